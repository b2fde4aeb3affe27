package plan

import (
	"testing"

	"github.com/encodelab/taenc/internal/cca"
	"github.com/stretchr/testify/assert"
)

func TestActionNameGroundSubstitutesPatternVarsPositionally(t *testing.T) {
	name := ActionName{Op: "pick", Args: []string{"?obj", "fixed", "?loc"}}
	grounded := name.Ground([]string{"cup1", "table3"})
	assert.Equal(t, "cup1", grounded.Args[0])
	assert.Equal(t, "fixed", grounded.Args[1])
	assert.Equal(t, "table3", grounded.Args[2])
}

func TestIsPatternVar(t *testing.T) {
	assert.True(t, IsPatternVar("?x"))
	assert.False(t, IsPatternVar("x"))
}

func TestPlanIDAndParsePAIndexRoundTrip(t *testing.T) {
	p := Plan{Actions: []Action{
		{Name: ActionName{Op: "A"}, Duration: cca.NewBounds(0, cca.Infinity)},
		{Name: ActionName{Op: "B"}, Duration: cca.NewBounds(0, cca.Infinity)},
	}}
	id := p.ID(2)
	assert.Equal(t, "B::2", id)
	idx, ok := ParsePAIndex(id)
	assert.True(t, ok)
	assert.Equal(t, 2, idx)
}

func TestParsePAIndexRejectsMalformed(t *testing.T) {
	_, ok := ParsePAIndex("nosep")
	assert.False(t, ok)
}
