package rewrite

import (
	"fmt"

	"github.com/encodelab/taenc/internal/cca"
	"github.com/encodelab/taenc/internal/constraint"
	"github.com/encodelab/taenc/internal/diagnostics"
	"github.com/encodelab/taenc/internal/plan"
	"github.com/encodelab/taenc/internal/ta"
	"github.com/encodelab/taenc/internal/timeline"
	"github.com/encodelab/taenc/internal/window"
)

// filteredCloneTimelineAutomaton copies orig into clone namespace
// paID::addPrefix, restricted to the locations named in keepBase (plus
// trap); transitions touching a dropped location are dropped with it.
func filteredCloneTimelineAutomaton(paID string, orig ta.Automaton, addPrefix string, keepBase map[string]bool) ta.Automaton {
	keep := make(map[string]bool, len(keepBase)+1)
	for _, l := range orig.Locations {
		_, base := timeline.SplitBase(l.ID)
		if keepBase[base] || base == ta.TrapID {
			keep[l.ID] = true
		}
	}
	rename := func(id string) string {
		_, base := timeline.SplitBase(id)
		return qualify(paID, []string{addPrefix}, base)
	}
	return ta.FilterAutomaton(orig, keep, addPrefix, rename)
}

// UntilChain rewrites a multi-stage constraint: reach a location of T1
// within B1, then T2 within B2 (clock restarted), ..., up to Tk, finally
// returning to the original plan execution at or before the end activation.
// A single fresh clock spans the entire chain; every clone produced across
// every stage shares one operator-name prefix, so a later stage's window
// overwrites an earlier stage's clone when their windows overlap a plan
// action.
func UntilChain(st *timeline.Store, pl plan.Plan, chain constraint.Chain, startPAID, endPAID string) error {
	if err := rejectQuery(startPAID); err != nil {
		return err
	}
	if err := rejectQuery(endPAID); err != nil {
		return err
	}
	sink := st.Diagnostics()
	if !requireKnownPA(st, sink, startPAID) || !requireKnownPA(st, sink, endPAID) {
		return nil
	}
	if len(chain.Stages) == 0 {
		return fmt.Errorf("%w: until-chain %q has no stages", ErrInvariant, chain.NameStr)
	}

	startIdx := planIdx1Based(st, startPAID)
	endIdx := planIdx1Based(st, endPAID)

	// Check every stage's window before touching the store, so an empty
	// window leaves the store unchanged.
	var lbChk, ubChk uint64
	for _, stage := range chain.Stages {
		if window.Forward(pl, startIdx, stage.Bounds, lbChk, ubChk, endIdx).Empty() {
			sink.Add(diagnostics.Diagnostic{Kind: diagnostics.EmptyWindow, ID: startPAID, Context: chain.NameStr})
			return nil
		}
		lbChk = cca.SafeAdd(lbChk, stage.Bounds.Lower)
		ubChk = cca.SafeAdd(ubChk, stage.Bounds.Upper)
	}

	clockID := st.FreshPrefix("c")
	chainPrefix := st.FreshPrefix(chain.NameStr + "F")

	// Clear every original (unrewritten) timeline spanned by the chain
	// before building any stage, mirroring the reference encodeUntilChain's
	// "for (window_pa = start_pa_entry; ...; ++window_pa) pa_tls[*window_pa]
	// .clear()". Without this a run can walk the untouched base automaton
	// straight from startPAID to endPAID, never satisfying any stage, and
	// still reach QUERY. The original outgoing edges are captured first:
	// within-stage stitching below still needs them as its template for
	// which base locations persist across a plan-action boundary.
	origTransOut := make(map[string][]ta.Transition, endIdx-startIdx)
	for i := startIdx; i < endIdx; i++ {
		spanID := st.PAOrder[i-1]
		spanOrig := st.Entry(spanID, "")
		origTransOut[spanID] = spanOrig.TransOut
		spanOrig.TransOut = nil
	}

	var lbOffAcc, ubOffAcc uint64
	var prevGuard string
	var prevWindow window.Window
	var prevTargets map[string]bool

	for i, stage := range chain.Stages {
		win := window.Forward(pl, startIdx, stage.Bounds, lbOffAcc, ubOffAcc, endIdx)
		if win.Empty() {
			sink.Add(diagnostics.Diagnostic{Kind: diagnostics.EmptyWindow, ID: startPAID, Context: chain.NameStr})
			return nil
		}

		targets := targetLocIDs(st, sink, stage.Targets)
		delete(targets, ta.TrapID)

		winPAIDs := make([]string, 0, win.Len)
		for idx := win.Start; idx <= win.End(); idx++ {
			winPAIDs = append(winPAIDs, st.PAOrder[idx-1])
		}

		inv, bounded := upperInvariant(clockID, stage.Bounds)
		for _, paID := range winPAIDs {
			orig := st.Entry(paID, "")
			cloneTA := filteredCloneTimelineAutomaton(paID, orig.Automaton, chainPrefix, targets)
			if bounded {
				all := make(map[string]bool, len(cloneTA.Locations))
				for _, l := range cloneTA.Locations {
					all[l.ID] = true
				}
				cloneTA = ta.AddInvariants(cloneTA, all, inv)
			}
			st.SetEntry(paID, chainPrefix, &timeline.Entry{Automaton: cloneTA})
		}

		// Internal stitching within this stage's window: clone[j] -> clone[j+1],
		// following only the original transitions that stay within Ti.
		for j := 0; j < len(winPAIDs)-1; j++ {
			curID, nextID := winPAIDs[j], winPAIDs[j+1]
			curClone := st.Entry(curID, chainPrefix)
			for _, t := range origTransOut[curID] {
				base := mustBase(t.Dst)
				if !targets[mustBase(t.Src)] || !targets[base] {
					continue
				}
				nt := t
				nt.Src = qualify(curID, []string{chainPrefix}, mustBase(t.Src))
				nt.Dst = qualify(nextID, []string{chainPrefix}, base)
				curClone.TransOut = append(curClone.TransOut, nt)
			}
		}

		if i == 0 {
			// First stage: redirect transitions from the predecessor of
			// start into this window's clones, resetting c.
			if predID, ok := previousPA(st, winPAIDs[0]); ok {
				pred := st.Entry(predID, "")
				var added []ta.Transition
				for _, t := range pred.TransOut {
					prefix, base := timeline.SplitBase(t.Dst)
					if prefix != winPAIDs[0] || !targets[base] {
						continue
					}
					nt := t
					nt.Dst = qualify(winPAIDs[0], []string{chainPrefix}, base)
					nt.Update = ta.Update{ResetClocks: append(append([]string(nil), t.Update.ResetClocks...), clockID)}
					added = append(added, nt)
				}
				pred.TransOut = append(pred.TransOut, added...)
			}
		} else {
			// Stitch the previous stage's last clone PA to this stage's
			// first clone PA, guarded by the previous stage's satisfaction
			// constraint, resetting c, carrying one step of the base
			// automaton's own transition structure.
			prevLastID := pl.ID(prevWindow.End())
			prevLastClone := st.Entry(prevLastID, chainPrefix)
			firstID := winPAIDs[0]
			for _, bt := range st.Base().Transitions {
				if !prevTargets[bt.Src] || !targets[bt.Dst] {
					continue
				}
				prevLastClone.TransOut = append(prevLastClone.TransOut, ta.Transition{
					Src:    qualify(prevLastID, []string{chainPrefix}, bt.Src),
					Dst:    qualify(firstID, []string{chainPrefix}, bt.Dst),
					Action: bt.Action,
					Guard:  prevGuard,
					Update: ta.Update{ResetClocks: []string{clockID}},
					Sync:   bt.Sync,
				})
			}
		}

		// Upper-bound violation within this stage's window -> trap.
		if trapGuard, ok := upperViolationGuard(clockID, stage.Bounds); ok {
			for _, paID := range winPAIDs {
				cloneEntry := st.Entry(paID, chainPrefix)
				trapID := qualify(paID, []string{chainPrefix}, ta.TrapID)
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

		prevGuard = satisfactionGuard(clockID, stage.Bounds)
		prevWindow = win
		prevTargets = targets

		if i == len(chain.Stages)-1 {
			// Last stage: re-enable transitions from the clones back to the
			// original, unrewritten timeline at the end activation, guarded
			// by the final satisfaction constraint.
			lastID := winPAIDs[len(winPAIDs)-1]
			lastClone := st.Entry(lastID, chainPrefix)
			for base := range targets {
				cloneLocID := qualify(lastID, []string{chainPrefix}, base)
				if _, ok := lastClone.Automaton.FindLocation(cloneLocID); !ok {
					continue
				}
				lastClone.TransOut = append(lastClone.TransOut, ta.Transition{
					Src:   cloneLocID,
					Dst:   qualify(endPAID, nil, base),
					Guard: prevGuard,
				})
			}
		}

		lbOffAcc = cca.SafeAdd(lbOffAcc, stage.Bounds.Lower)
		ubOffAcc = cca.SafeAdd(ubOffAcc, stage.Bounds.Upper)
	}

	return nil
}
