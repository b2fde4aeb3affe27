// Package rewrite implements the operator-specific rewrite procedures that
// clone sub-timelines, inject guards/invariants, add trap transitions, and
// stitch cross-window edges: Invariant, NoOp, Future, Past, and UntilChain.
// Until and Since are declared on the driver surface (spec §9 Open
// Questions) but intentionally left unimplemented.
package rewrite

import (
	"errors"
	"fmt"

	"github.com/encodelab/taenc/internal/cca"
	"github.com/encodelab/taenc/internal/constraint"
	"github.com/encodelab/taenc/internal/diagnostics"
	"github.com/encodelab/taenc/internal/ta"
	"github.com/encodelab/taenc/internal/timeline"
)

// ErrNotImplemented is returned by Until and Since: the reference source
// carries commented-out branches for both and this module does not guess
// their semantics (spec §9 Open Questions).
var ErrNotImplemented = errors.New("rewrite: operator not implemented")

// ErrInvariant signals a fatal invariant violation (spec §7 kind 3): an
// attempt to rewrite the QUERY timeline, or any other construction
// invariant break that must abort the job rather than degrade to a
// diagnostic.
var ErrInvariant = errors.New("rewrite: invariant violation")

func qualify(paID string, prefixes []string, baseLocID string) string {
	return timeline.LocationID(paID, prefixes, baseLocID)
}

// targetLocIDs resolves a target set (base-automaton location ids) against
// the store's base automaton, reporting any id absent from the base as an
// UnknownLocation diagnostic (spec §7 kind 1) rather than failing the
// rewrite outright; unknown ids are simply dropped from the resulting set.
func targetLocIDs(st *timeline.Store, sink *diagnostics.Sink, targets constraint.Targets) map[string]bool {
	out := make(map[string]bool, len(targets))
	for id := range targets {
		if _, ok := st.Base().FindLocation(id); !ok {
			sink.Add(diagnostics.Diagnostic{Kind: diagnostics.UnknownLocation, ID: id, Context: "target set"})
			continue
		}
		out[id] = true
	}
	out[ta.TrapID] = true
	return out
}

// qualifiedKeepSet builds the location-id membership set (as required by
// ta.FilterAutomaton/ta.AddInvariants) for a timeline identified by
// (paID, prefixes), restricted to the base locations named in targets.
func qualifiedKeepSet(paID string, prefixes []string, targets map[string]bool) map[string]bool {
	out := make(map[string]bool, len(targets))
	for base := range targets {
		out[qualify(paID, prefixes, base)] = true
	}
	return out
}

func previousPA(st *timeline.Store, paID string) (string, bool) {
	idx := st.IndexOf(paID)
	if idx <= 0 {
		return "", false
	}
	return st.PAOrder[idx-1], true
}

func nextPA(st *timeline.Store, paID string) (string, bool) {
	idx := st.IndexOf(paID)
	if idx < 0 || idx+1 >= len(st.PAOrder) {
		return "", false
	}
	return st.PAOrder[idx+1], true
}

// requireKnownPA reports a structural-reference diagnostic (spec §7 kind 1)
// and returns false if paID is not present in the store; the caller's
// rewrite becomes a no-op on the store.
func requireKnownPA(st *timeline.Store, sink *diagnostics.Sink, paID string) bool {
	if st.HasPA(paID) {
		return true
	}
	sink.Add(diagnostics.Diagnostic{Kind: diagnostics.UnknownPlanAction, ID: paID})
	return false
}

func rejectQuery(paID string) error {
	if paID == timeline.QueryID {
		return fmt.Errorf("%w: cannot rewrite QUERY timeline", ErrInvariant)
	}
	return nil
}

// satisfactionGuard builds guard_sat = (c rev(l_op) B.lower) && (c op_r
// B.upper), the clock-satisfies-the-window guard shared by Future, Past,
// and every UntilChain stage.
func satisfactionGuard(clockID string, b cca.Bounds) string {
	c := cca.NewClock(clockID)
	lower := cca.MakeComparison(c, cca.ReverseOp(b.LOp), b.Lower)
	if b.Unbounded() {
		return cca.Render(lower)
	}
	upper := cca.MakeComparison(c, b.ROp, b.Upper)
	return cca.Render(cca.MakeConjunction(lower, upper))
}

// upperViolationGuard builds the trap guard "c inv(op_r) B.upper": the
// complementary guard that fires once the upper bound has been crossed
// without satisfaction.
func upperViolationGuard(clockID string, b cca.Bounds) (string, bool) {
	if b.Unbounded() {
		return "", false
	}
	c := cca.NewClock(clockID)
	return cca.Render(cca.MakeComparison(c, cca.InverseOp(b.ROp), b.Upper)), true
}

func upperInvariant(clockID string, b cca.Bounds) (string, bool) {
	if b.Unbounded() {
		return "", false
	}
	c := cca.NewClock(clockID)
	return cca.Render(cca.MakeComparison(c, b.ROp, b.Upper)), true
}

func resetClock(clockID string) ta.Update {
	return ta.Update{ResetClocks: []string{clockID}}
}

func planIdx1Based(st *timeline.Store, paID string) int {
	return st.IndexOf(paID) + 1
}
