package rewrite

import (
	"github.com/encodelab/taenc/internal/constraint"
	"github.com/encodelab/taenc/internal/diagnostics"
	"github.com/encodelab/taenc/internal/plan"
	"github.com/encodelab/taenc/internal/ta"
	"github.com/encodelab/taenc/internal/timeline"
	"github.com/encodelab/taenc/internal/window"
)

// cloneTimelineAutomaton copies orig (already qualified under paID with no
// extra op-prefixes) into a new clone namespace paID::addPrefix, preserving
// every location and transition.
func cloneTimelineAutomaton(paID string, orig ta.Automaton, addPrefix string) ta.Automaton {
	keepAll := make(map[string]bool, len(orig.Locations))
	for _, l := range orig.Locations {
		keepAll[l.ID] = true
	}
	rename := func(id string) string {
		_, base := timeline.SplitBase(id)
		return qualify(paID, []string{addPrefix}, base)
	}
	return ta.FilterAutomaton(orig, keepAll, addPrefix, rename)
}

// Future introduces a fresh clock c and, over the window computed for
// info.Spec.Bounds starting at the activation pa, clones every timeline in
// the window. Every accepting run must, starting from the activation, reach
// a target location within [B.lower, B.upper] real time units.
func Future(st *timeline.Store, pl plan.Plan, paID string, info constraint.Unary) error {
	if err := rejectQuery(paID); err != nil {
		return err
	}
	sink := st.Diagnostics()
	if !requireKnownPA(st, sink, paID) {
		return nil
	}

	activationIdx := planIdx1Based(st, paID)
	b := info.Spec.Bounds
	win := window.Forward(pl, activationIdx, b, 0, 0, 0)
	if win.Empty() {
		sink.Add(diagnostics.Diagnostic{Kind: diagnostics.EmptyWindow, ID: paID, Context: info.NameStr})
		return nil
	}

	clockID := st.FreshPrefix("c")
	clonePrefix := st.FreshPrefix(info.NameStr)
	targets := targetLocIDs(st, sink, info.Spec.Targets)
	delete(targets, ta.TrapID)

	clonePAIDs := make([]string, 0, win.Len)
	for i := win.Start; i <= win.End(); i++ {
		clonePAIDs = append(clonePAIDs, st.PAOrder[i-1])
	}

	inv, bounded := upperInvariant(clockID, b)

	for _, origPAID := range clonePAIDs {
		orig := st.Entry(origPAID, "")
		cloneTA := cloneTimelineAutomaton(origPAID, orig.Automaton, clonePrefix)
		if bounded {
			all := make(map[string]bool, len(cloneTA.Locations))
			for _, l := range cloneTA.Locations {
				all[l.ID] = true
			}
			cloneTA = ta.AddInvariants(cloneTA, all, inv)
		}
		st.SetEntry(origPAID, clonePrefix, &timeline.Entry{Automaton: cloneTA})
	}

	// Stitch the clone chain internally: clone[i] -> clone[i+1] mirrors
	// the original inter-timeline edges.
	for i := 0; i < len(clonePAIDs)-1; i++ {
		curID, nextID := clonePAIDs[i], clonePAIDs[i+1]
		curOrig := st.Entry(curID, "")
		curClone := st.Entry(curID, clonePrefix)
		for _, t := range curOrig.TransOut {
			_, base := timeline.SplitBase(t.Dst)
			nt := t
			nt.Src = qualify(curID, []string{clonePrefix}, mustBase(t.Src))
			nt.Dst = qualify(nextID, []string{clonePrefix}, base)
			curClone.TransOut = append(curClone.TransOut, nt)
		}
	}

	// Entry into the window: predecessor original -> clone[windowStart],
	// resetting c. The predecessor's own edges into the window are removed,
	// not just supplemented, so the window can only be entered through the
	// clone; otherwise a run could walk the untouched original timelines
	// straight through the window and on to QUERY without ever being
	// constrained (mirrors removeTransitionsToNextTl in the reference
	// encodeFuture, applied at the window's single entry point instead of
	// its exit since every clone index here, not just the last, carries its
	// own guarded exit back to the original). When the window starts at the
	// first plan action there is no predecessor edge to replace: the
	// original timelines stay enterable and c is not reset on entry.
	firstCloneID := clonePAIDs[0]
	if predID, ok := previousPA(st, firstCloneID); ok {
		pred := st.Entry(predID, "")
		var kept, added []ta.Transition
		for _, t := range pred.TransOut {
			prefix, base := timeline.SplitBase(t.Dst)
			if prefix != firstCloneID {
				kept = append(kept, t)
				continue
			}
			nt := t
			nt.Dst = qualify(firstCloneID, []string{clonePrefix}, base)
			nt.Update = ta.Update{ResetClocks: append(append([]string(nil), t.Update.ResetClocks...), clockID)}
			added = append(added, nt)
		}
		pred.TransOut = append(kept, added...)
	}

	// Exit: from each clone's target location, back to the original
	// timeline's same location at the same index, guarded by guard_sat.
	guardSat := satisfactionGuard(clockID, b)
	for _, cloneID := range clonePAIDs {
		cloneEntry := st.Entry(cloneID, clonePrefix)
		for base := range targets {
			if _, ok := cloneEntry.Automaton.FindLocation(qualify(cloneID, []string{clonePrefix}, base)); !ok {
				continue
			}
			cloneEntry.TransOut = append(cloneEntry.TransOut, ta.Transition{
				Src:   qualify(cloneID, []string{clonePrefix}, base),
				Dst:   qualify(cloneID, nil, base),
				Guard: guardSat,
			})
		}
	}

	// Upper-bound violation: from every clone location, a transition to
	// that clone's own trap when c has crossed B.upper without
	// satisfaction.
	if trapGuard, ok := upperViolationGuard(clockID, b); ok {
		for _, cloneID := range clonePAIDs {
			cloneEntry := st.Entry(cloneID, clonePrefix)
			trapID := qualify(cloneID, []string{clonePrefix}, ta.TrapID)
			for _, l := range cloneEntry.Automaton.Locations {
				if l.ID == trapID {
					continue
				}
				cloneEntry.TransOut = append(cloneEntry.TransOut, ta.Transition{
					Src: l.ID, Dst: trapID, Guard: trapGuard,
				})
			}
		}
	}

	return nil
}

func mustBase(id string) string {
	_, base := timeline.SplitBase(id)
	return base
}
