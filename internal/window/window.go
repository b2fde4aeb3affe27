// Package window implements the window/context calculator: given an
// activation plan action and a bound, computes the index range of plan
// actions the rewrite must span.
package window

import (
	"github.com/encodelab/taenc/internal/cca"
	"github.com/encodelab/taenc/internal/plan"
)

// Context is the fixed lookback depth bounding a Past rewrite's window,
// since the metric temporal bound alone does not terminate a backward
// accumulation the way a plan boundary does for Future.
const Context = 8

// Window is the computed (1-based, inclusive) index range of plan actions
// a rewrite must span.
type Window struct {
	Start int // 1-based plan-action index
	Len   int // number of plan actions covered; 0 means empty (spec §7 kind 2)
}

// End returns the 1-based inclusive end index, or Start-1 if the window is
// empty.
func (w Window) End() int { return w.Start + w.Len - 1 }

// Empty reports whether the computed window spans zero plan actions.
func (w Window) Empty() bool { return w.Len == 0 }

// Forward computes the window for a Future-like constraint with bound,
// optional offsets (lbOff, ubOff), starting at the 1-based activation
// index. It accumulates duration lower/upper bounds (saturating at
// cca.Infinity) forward from the activation, advancing the window start
// while the accumulated upper bound has not yet reached lbOff, and stops
// accumulating the window's length once the accumulated lower bound meets
// or exceeds bound.Upper+ubOff or an explicit ending plan action (endIdx,
// 0 meaning "no explicit end") is reached.
func Forward(pl plan.Plan, activationIdx int, bound cca.Bounds, lbOff, ubOff uint64, endIdx int) Window {
	n := pl.Len()
	reachedEnd := func(i int) bool { return endIdx > 0 && i > endIdx }

	start := activationIdx
	ubAcc := uint64(0)
	for i := activationIdx; i <= n && !reachedEnd(i) && ubAcc < lbOff; i++ {
		pa := pl.Actions[i-1]
		ubAcc = cca.SafeAdd(ubAcc, pa.Duration.Upper)
		start = i + 1
	}
	if start > n {
		return Window{Start: activationIdx, Len: 0}
	}

	target := cca.SafeAdd(bound.Upper, ubOff)
	lbAcc := uint64(0)
	count := 0
	for i := start; i <= n && !reachedEnd(i); i++ {
		pa := pl.Actions[i-1]
		lbAcc = cca.SafeAdd(lbAcc, pa.Duration.Lower)
		count++
		if lbAcc >= target {
			break
		}
	}
	return Window{Start: start, Len: count}
}

// Backward computes the window for a Past-like rewrite: it extends
// symmetrically to the left of the activation, bounded by the fixed
// Context depth and by the accumulated lower-bound duration meeting
// bound.Upper.
func Backward(pl plan.Plan, activationIdx int, bound cca.Bounds) Window {
	lo := activationIdx - Context
	if lo < 1 {
		lo = 1
	}

	start := activationIdx
	lbAcc := uint64(0)
	for i := activationIdx - 1; i >= lo; i-- {
		pa := pl.Actions[i-1]
		lbAcc = cca.SafeAdd(lbAcc, pa.Duration.Lower)
		start = i
		if lbAcc >= bound.Upper {
			break
		}
	}
	return Window{Start: start, Len: activationIdx - start}
}
