package rewrite

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/encodelab/taenc/internal/cca"
	"github.com/encodelab/taenc/internal/constraint"
	"github.com/encodelab/taenc/internal/plan"
	"github.com/encodelab/taenc/internal/ta"
	"github.com/encodelab/taenc/internal/timeline"
)

func unbounded() cca.Bounds { return cca.NewBounds(0, cca.Infinity) }

func baseAutomaton() ta.Automaton {
	return ta.NewAutomaton(
		[]ta.Location{{ID: "s0", Initial: true}, {ID: "s1"}},
		[]ta.Transition{{Src: "s0", Dst: "s1", Action: "go"}},
		"base", true,
	)
}

func twoActionPlan() plan.Plan {
	return plan.Plan{Actions: []plan.Action{
		{Name: plan.ActionName{Op: "A"}, Duration: unbounded(), AbsoluteTime: unbounded()},
		{Name: plan.ActionName{Op: "B"}, Duration: unbounded(), AbsoluteTime: unbounded()},
	}}
}

func fourActionPlan() plan.Plan {
	return plan.Plan{Actions: []plan.Action{
		{Name: plan.ActionName{Op: "A"}, Duration: unbounded(), AbsoluteTime: unbounded()},
		{Name: plan.ActionName{Op: "B"}, Duration: unbounded(), AbsoluteTime: unbounded()},
		{Name: plan.ActionName{Op: "C"}, Duration: unbounded(), AbsoluteTime: unbounded()},
		{Name: plan.ActionName{Op: "D"}, Duration: unbounded(), AbsoluteTime: unbounded()},
	}}
}

// TestFutureScenario mirrors spec §8 scenario 2.
func TestFutureScenario(t *testing.T) {
	st := timeline.New(baseAutomaton(), twoActionPlan())
	info := constraint.Unary{
		NameStr: "reach_s1",
		Type:    constraint.Future,
		Spec:    constraint.Spec{Bounds: cca.NewBounds(3, 7), Targets: constraint.NewTargets("s1")},
	}
	require.NoError(t, Future(st, twoActionPlan(), "A::1", info))

	prefixes := st.Prefixes("A::1")
	require.Len(t, prefixes, 2) // "" and the fresh clone prefix
	var clonePrefix string
	for _, p := range prefixes {
		if p != "" {
			clonePrefix = p
		}
	}
	require.NotEmpty(t, clonePrefix)

	clone := st.Entry("A::1", clonePrefix)
	require.NotNil(t, clone)

	loc, ok := clone.Automaton.FindLocation("A::1::" + clonePrefix + ";;s1")
	require.True(t, ok)
	assert.Contains(t, loc.Invariant, "7")

	var exitGuard string
	for _, tr := range clone.TransOut {
		if tr.Dst == "A::1;;s1" {
			exitGuard = tr.Guard
		}
	}
	assert.Contains(t, exitGuard, "3")
	assert.Contains(t, exitGuard, "7")

	var trapGuards []string
	for _, tr := range clone.TransOut {
		if tr.Dst == "A::1::"+clonePrefix+";;trap" {
			trapGuards = append(trapGuards, tr.Guard)
		}
	}
	assert.NotEmpty(t, trapGuards)
	for _, g := range trapGuards {
		assert.Contains(t, g, "7")
	}
}

func TestFutureUnknownPAIsNoOp(t *testing.T) {
	st := timeline.New(baseAutomaton(), twoActionPlan())
	info := constraint.Unary{NameStr: "x", Spec: constraint.Spec{Bounds: cca.NewBounds(1, 2), Targets: constraint.NewTargets("s1")}}
	require.NoError(t, Future(st, twoActionPlan(), "ghost::9", info))
	require.Equal(t, 1, st.Diagnostics().Len())
}

// TestPastScenario mirrors spec §8 scenario 3.
func TestPastScenario(t *testing.T) {
	pl := twoActionPlan()
	st := timeline.New(baseAutomaton(), pl)
	info := constraint.Unary{
		NameStr: "was_s1",
		Type:    constraint.Past,
		Spec:    constraint.Spec{Bounds: cca.NewBounds(2, 5), Targets: constraint.NewTargets("s1")},
	}
	require.NoError(t, Past(st, pl, "B::2", info))

	prefixes := st.Prefixes("A::1")
	var clonePrefix string
	for _, p := range prefixes {
		if p != "" {
			clonePrefix = p
		}
	}
	require.NotEmpty(t, clonePrefix, "Past should clone the window preceding B::2, i.e. A::1")

	clone := st.Entry("A::1", clonePrefix)
	require.NotNil(t, clone)

	var returnGuard string
	for _, tr := range clone.TransOut {
		if tr.Dst == "B::2;;s1" || tr.Dst == "B::2;;s0" {
			returnGuard = tr.Guard
		}
	}
	require.NotEmpty(t, returnGuard)
	assert.Contains(t, returnGuard, "== true")
	assert.Contains(t, returnGuard, "2")
	assert.Contains(t, returnGuard, "5")
}

// TestUntilChainScenario mirrors spec §8 scenario 4.
func TestUntilChainScenario(t *testing.T) {
	pl := fourActionPlan()
	st := timeline.New(baseAutomaton(), pl)
	chain := constraint.Chain{
		NameStr:          "s0_then_s1",
		ActivationsStart: []string{"B::2"},
		Stages: []constraint.StageSpec{
			{Bounds: cca.NewBounds(0, 3), Targets: constraint.NewTargets("s0")},
			{Bounds: cca.NewBounds(0, 5), Targets: constraint.NewTargets("s1")},
		},
		ActivationsEnd: []string{"D::4"},
	}
	require.NoError(t, UntilChain(st, pl, chain, "B::2", "D::4"))

	prefixes := st.Prefixes("B::2")
	var clonePrefix string
	for _, p := range prefixes {
		if p != "" {
			clonePrefix = p
		}
	}
	require.NotEmpty(t, clonePrefix)

	// Both stages' windows cover the same three plan actions here (every
	// plan duration has lower bound zero), so the second stage's clones overwrite the
	// first's at B::2 (overwrite semantics); the final trap guard at B::2
	// reflects stage 2's upper bound, 5.
	stage2 := st.Entry("B::2", clonePrefix)
	require.NotNil(t, stage2)
	var sawTrapGuard bool
	for _, tr := range stage2.TransOut {
		if tr.Guard != "" && containsAll(tr.Guard, "5") {
			sawTrapGuard = true
		}
	}
	assert.True(t, sawTrapGuard, "expected an upper-bound trap guard referencing 5 after the stage-2 overwrite")

	// Stitching from the last stage-1 window PA to the first stage-2 window
	// PA happens on the SAME clone-prefix namespace since UntilChain reuses
	// one prefix across stages (overwrite semantics).
	var sawStitchGuard bool
	for _, paID := range st.PAOrder {
		entry := st.Entry(paID, clonePrefix)
		if entry == nil {
			continue
		}
		for _, tr := range entry.TransOut {
			if containsAll(tr.Guard, "0") && containsAll(tr.Guard, "3") && len(tr.Update.ResetClocks) == 1 {
				sawStitchGuard = true
			}
		}
	}
	assert.True(t, sawStitchGuard, "expected a stage1->stage2 stitching transition guarded by c >= 0 && c <= 3")
}

// TestFutureSeversUnconstrainedEntryIntoWindow guards against a run walking
// the untouched original timelines straight through the window to QUERY
// without ever being constrained by the clone.
func TestFutureSeversUnconstrainedEntryIntoWindow(t *testing.T) {
	pl := fourActionPlan()
	st := timeline.New(baseAutomaton(), pl)
	info := constraint.Unary{
		NameStr: "reach_s1",
		Type:    constraint.Future,
		Spec:    constraint.Spec{Bounds: cca.NewBounds(0, 0), Targets: constraint.NewTargets("s1")},
	}
	require.NoError(t, Future(st, pl, "B::2", info))

	pred := st.Entry("A::1", "")
	require.NotNil(t, pred)
	require.NotEmpty(t, pred.TransOut, "predecessor must still reach the window, just through the clone")
	for _, tr := range pred.TransOut {
		assert.NotEqual(t, "B::2;;s0", tr.Dst)
		assert.NotEqual(t, "B::2;;s1", tr.Dst)
	}
}

// TestPastSeversUnconstrainedEntryIntoWindow mirrors the Future case
// backward: the predecessor of the window's first plan action must no
// longer have an unguarded edge straight into the original window timeline.
func TestPastSeversUnconstrainedEntryIntoWindow(t *testing.T) {
	pl := fourActionPlan()
	st := timeline.New(baseAutomaton(), pl)
	info := constraint.Unary{
		NameStr: "was_s1",
		Type:    constraint.Past,
		Spec:    constraint.Spec{Bounds: cca.NewBounds(0, 0), Targets: constraint.NewTargets("s1")},
	}
	require.NoError(t, Past(st, pl, "C::3", info))

	pred := st.Entry("A::1", "")
	require.NotNil(t, pred)
	require.NotEmpty(t, pred.TransOut)
	for _, tr := range pred.TransOut {
		assert.NotEqual(t, "B::2;;s0", tr.Dst)
		assert.NotEqual(t, "B::2;;s1", tr.Dst)
	}
}

// TestUntilChainClearsSpannedOriginalTimelines checks that the chain's
// span no longer offers an unconstrained walk from startPAID to endPAID on
// the untouched base automaton.
func TestUntilChainClearsSpannedOriginalTimelines(t *testing.T) {
	pl := fourActionPlan()
	st := timeline.New(baseAutomaton(), pl)
	chain := constraint.Chain{
		NameStr:          "s0_then_s1",
		ActivationsStart: []string{"B::2"},
		Stages: []constraint.StageSpec{
			{Bounds: cca.NewBounds(0, 3), Targets: constraint.NewTargets("s0")},
			{Bounds: cca.NewBounds(0, 5), Targets: constraint.NewTargets("s1")},
		},
		ActivationsEnd: []string{"D::4"},
	}
	require.NoError(t, UntilChain(st, pl, chain, "B::2", "D::4"))

	assert.Empty(t, st.Entry("B::2", "").TransOut)
	assert.Empty(t, st.Entry("C::3", "").TransOut)

	endEntry := st.Entry("D::4", "")
	require.NotNil(t, endEntry)
	assert.NotEmpty(t, endEntry.TransOut, "endPAID itself is outside the cleared span")
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}

// TestInvariantFiltersInboundCrossTimelineEdges mirrors the mechanism of
// spec §8 scenario 6 applied at a non-first activation (B::2), where the
// store has a real predecessor timeline to filter.
func TestInvariantFiltersInboundCrossTimelineEdges(t *testing.T) {
	st := timeline.New(baseAutomaton(), twoActionPlan())
	require.NoError(t, Invariant(st, "B::2", constraint.NewTargets("s0")))

	a1 := st.Entry("A::1", "")
	var dests []string
	for _, tr := range a1.TransOut {
		dests = append(dests, tr.Dst)
	}
	assert.Contains(t, dests, "B::2;;s0")
	assert.NotContains(t, dests, "B::2;;s1")
}

func TestInvariantIdempotent(t *testing.T) {
	st1 := timeline.New(baseAutomaton(), twoActionPlan())
	require.NoError(t, Invariant(st1, "B::2", constraint.NewTargets("s0")))
	a1Once := st1.Entry("A::1", "")

	st2 := timeline.New(baseAutomaton(), twoActionPlan())
	require.NoError(t, Invariant(st2, "B::2", constraint.NewTargets("s0")))
	require.NoError(t, Invariant(st2, "B::2", constraint.NewTargets("s0")))
	a1Twice := st2.Entry("A::1", "")

	assert.Equal(t, len(a1Once.TransOut), len(a1Twice.TransOut))
}

func TestNoOpKeepsActivatingAutomatonUntouched(t *testing.T) {
	st := timeline.New(baseAutomaton(), twoActionPlan())
	before := st.Entry("B::2", "").Automaton
	require.NoError(t, NoOp(st, "B::2", constraint.NewTargets("s0")))
	after := st.Entry("B::2", "").Automaton
	assert.Equal(t, len(before.Locations), len(after.Locations))
}

func TestUntilAndSinceAreUnimplemented(t *testing.T) {
	st := timeline.New(baseAutomaton(), twoActionPlan())
	b := constraint.Binary{NameStr: "u", Spec: constraint.Spec{Bounds: unbounded(), Targets: constraint.NewTargets("s1")}}
	assert.ErrorIs(t, Until(st, b), ErrNotImplemented)
	assert.ErrorIs(t, Since(st, b), ErrNotImplemented)
}

func TestRewriteRejectsQuery(t *testing.T) {
	st := timeline.New(baseAutomaton(), twoActionPlan())
	err := Invariant(st, timeline.QueryID, constraint.NewTargets("s0"))
	assert.ErrorIs(t, err, ErrInvariant)
}
