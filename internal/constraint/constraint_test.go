package constraint

import (
	"testing"

	"github.com/encodelab/taenc/internal/cca"
	"github.com/stretchr/testify/assert"
)

func TestUnaryImplementsICInfo(t *testing.T) {
	var info ICInfo = Unary{
		NameStr:     "future1",
		Type:        Future,
		Spec:        Spec{Bounds: cca.NewBounds(3, 7), Targets: NewTargets("s1")},
		Activations: []string{"A::1"},
	}
	assert.Equal(t, "future1", info.Name())
}

func TestChainImplementsICInfo(t *testing.T) {
	var info ICInfo = Chain{
		NameStr:          "chain1",
		ActivationsStart: []string{"B::2"},
		ActivationsEnd:   []string{"D::4"},
		Stages: []StageSpec{
			{Bounds: cca.NewBounds(0, 3), Targets: NewTargets("s1")},
			{Bounds: cca.NewBounds(0, 5), Targets: NewTargets("s0")},
		},
	}
	assert.Equal(t, "chain1", info.Name())
	c := info.(Chain)
	assert.Len(t, c.Stages, 2)
}

func TestOperatorTypeString(t *testing.T) {
	assert.Equal(t, "Future", Future.String())
	assert.Equal(t, "UntilChain", UntilChain.String())
}
