package rewrite

import (
	"github.com/encodelab/taenc/internal/cca"
	"github.com/encodelab/taenc/internal/constraint"
	"github.com/encodelab/taenc/internal/diagnostics"
	"github.com/encodelab/taenc/internal/plan"
	"github.com/encodelab/taenc/internal/ta"
	"github.com/encodelab/taenc/internal/timeline"
	"github.com/encodelab/taenc/internal/window"
)

// Past is symmetric to Future but the window precedes the activation. It
// introduces clock c (reset when entering the window) and boolean b (set
// true the first time a target location is visited inside the window). At
// the return transition to the original timeline at the activation, the
// guard b == true && guard_sat(c, B) must hold; b is then reset.
// Out-of-window lower/upper violations lead to trap.
//
// Unlike Future, the trap transition guarded by a lower-bound-not-reached
// check fires on the activation's own sync channel: this asymmetry is
// deliberate (spec §9 Open Questions) and must not be mirrored in Future.
func Past(st *timeline.Store, pl plan.Plan, paID string, info constraint.Unary) error {
	if err := rejectQuery(paID); err != nil {
		return err
	}
	sink := st.Diagnostics()
	if !requireKnownPA(st, sink, paID) {
		return nil
	}

	activationIdx := planIdx1Based(st, paID)
	b := info.Spec.Bounds
	win := window.Backward(pl, activationIdx, b)
	if win.Empty() {
		sink.Add(diagnostics.Diagnostic{Kind: diagnostics.EmptyWindow, ID: paID, Context: info.NameStr})
		return nil
	}

	clockID := st.FreshPrefix("c")
	boolID := st.FreshPrefix("b")
	clonePrefix := st.FreshPrefix(info.NameStr)
	targets := targetLocIDs(st, sink, info.Spec.Targets)
	delete(targets, ta.TrapID)

	clonePAIDs := make([]string, 0, win.Len)
	for i := win.Start; i <= win.End(); i++ {
		clonePAIDs = append(clonePAIDs, st.PAOrder[i-1])
	}

	for _, origPAID := range clonePAIDs {
		orig := st.Entry(origPAID, "")
		cloneTA := cloneTimelineAutomaton(origPAID, orig.Automaton, clonePrefix)
		// Transitions inside the clone that land on a target set b := true.
		for k, t := range cloneTA.Transitions {
			if !targets[mustBase(t.Dst)] {
				continue
			}
			assigns := map[string]bool{boolID: true}
			for name, v := range t.Update.BoolAssigns {
				assigns[name] = v
			}
			assigns[boolID] = true
			cloneTA.Transitions[k].Update.BoolAssigns = assigns
		}
		st.SetEntry(origPAID, clonePrefix, &timeline.Entry{Automaton: cloneTA})
	}

	// Internal stitching: clone[i] -> clone[i+1]; any edge landing on a
	// target location sets b := true.
	for i := 0; i < len(clonePAIDs)-1; i++ {
		curID, nextID := clonePAIDs[i], clonePAIDs[i+1]
		curOrig := st.Entry(curID, "")
		curClone := st.Entry(curID, clonePrefix)
		for _, t := range curOrig.TransOut {
			base := mustBase(t.Dst)
			nt := t
			nt.Src = qualify(curID, []string{clonePrefix}, mustBase(t.Src))
			nt.Dst = qualify(nextID, []string{clonePrefix}, base)
			if targets[base] {
				nt.Update = ta.Update{ResetClocks: t.Update.ResetClocks, BoolAssigns: map[string]bool{boolID: true}}
			}
			curClone.TransOut = append(curClone.TransOut, nt)
		}
	}

	// Entry into the window: predecessor original -> clone[windowStart],
	// resetting c. The predecessor's own edges into the window are removed,
	// not just supplemented: the window chain is only reachable from outside
	// through this one entry point, so replacing it is enough to make the
	// chain's own untouched continue-edge into the activation (at
	// lastCloneID below) unreachable without ever going through the clone
	// (mirrors removeTransitionsToNextTl in the reference encodePast). When
	// the window starts at the first plan action there is no predecessor
	// edge to replace: the original timelines stay enterable and c is not
	// reset on entry.
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
			if targets[base] {
				nt.Update.BoolAssigns = map[string]bool{boolID: true}
			}
			added = append(added, nt)
		}
		pred.TransOut = append(kept, added...)
	}

	// Return to the original (unrewritten) activation timeline, requiring
	// b == true and the clock to be inside [lower, upper].
	lastCloneID := clonePAIDs[len(clonePAIDs)-1]
	lastClone := st.Entry(lastCloneID, clonePrefix)
	returnGuard := cca.AndConstraints(boolID+" == true", satisfactionGuard(clockID, b))
	for _, l := range lastClone.Automaton.Locations {
		if l.ID == qualify(lastCloneID, []string{clonePrefix}, ta.TrapID) {
			continue
		}
		base := mustBase(l.ID)
		lastClone.TransOut = append(lastClone.TransOut, ta.Transition{
			Src:   l.ID,
			Dst:   qualify(paID, nil, base),
			Guard: returnGuard,
			Update: ta.Update{BoolAssigns: map[string]bool{boolID: false}},
		})
	}

	// Out-of-window upper violation -> trap.
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

	// Past-only asymmetry: a trap transition fires on the activation's own
	// sync channel when the lower bound has not yet been reached at the
	// moment the activation would otherwise fire.
	lowerGuard := cca.Render(cca.MakeComparison(cca.NewClock(clockID), cca.LT, b.Lower))
	lastTrapID := qualify(lastCloneID, []string{clonePrefix}, ta.TrapID)
	for _, l := range lastClone.Automaton.Locations {
		if l.ID == lastTrapID {
			continue
		}
		lastClone.TransOut = append(lastClone.TransOut, ta.Transition{
			Src: l.ID, Dst: lastTrapID, Guard: lowerGuard, Sync: paID,
		})
	}

	return nil
}

func setBool(boolID string, v bool) ta.Update {
	return ta.Update{BoolAssigns: map[string]bool{boolID: v}}
}
