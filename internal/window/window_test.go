package window

import (
	"testing"

	"github.com/encodelab/taenc/internal/cca"
	"github.com/encodelab/taenc/internal/plan"
	"github.com/stretchr/testify/assert"
)

func fourActionPlan() plan.Plan {
	d := cca.NewBounds(1, 3)
	unbounded := cca.NewBounds(0, cca.Infinity)
	mk := func(op string) plan.Action {
		return plan.Action{Name: plan.ActionName{Op: op}, Duration: d, AbsoluteTime: unbounded}
	}
	return plan.Plan{Actions: []plan.Action{mk("A"), mk("B"), mk("C"), mk("D")}}
}

func TestForwardWindowMonotonicityOnUpperBound(t *testing.T) {
	pl := fourActionPlan()
	small := Forward(pl, 1, cca.NewBounds(0, 2), 0, 0, 0)
	large := Forward(pl, 1, cca.NewBounds(0, 10), 0, 0, 0)
	assert.GreaterOrEqual(t, large.Len, small.Len)
}

func TestForwardWindowStopsAtExplicitEnd(t *testing.T) {
	pl := fourActionPlan()
	w := Forward(pl, 1, cca.NewBounds(0, 100), 0, 0, 2)
	assert.LessOrEqual(t, w.End(), 2)
}

func TestForwardWindowEmptyWhenOffsetPushesStartPastPlanEnd(t *testing.T) {
	pl := fourActionPlan()
	w := Forward(pl, 1, cca.NewBounds(0, cca.Infinity), 100, 0, 0)
	assert.True(t, w.Empty())
}

func TestBackwardWindowBoundedByContext(t *testing.T) {
	pl := fourActionPlan()
	w := Backward(pl, 4, cca.NewBounds(0, cca.Infinity))
	assert.LessOrEqual(t, 4-w.Start, Context)
}

func TestBackwardWindowAtFirstActionIsEmpty(t *testing.T) {
	pl := fourActionPlan()
	w := Backward(pl, 1, cca.NewBounds(0, 5))
	assert.True(t, w.Empty())
}
