// Package encoder exposes the driver surface: construct an encoder over a
// base automaton and a plan, apply rewriters by plan-action activation,
// merge independently-built encoders, and finalize into one product
// automaton plus the QUERY location.
package encoder

import (
	"fmt"

	"github.com/encodelab/taenc/internal/cca"
	"github.com/encodelab/taenc/internal/constraint"
	"github.com/encodelab/taenc/internal/diagnostics"
	"github.com/encodelab/taenc/internal/plan"
	"github.com/encodelab/taenc/internal/rewrite"
	"github.com/encodelab/taenc/internal/ta"
	"github.com/encodelab/taenc/internal/timeline"
)

// Encoder owns exactly one TimelineStore for the lifetime of one encoding
// job (spec §5: single-threaded, synchronous, one job per store).
type Encoder struct {
	store *timeline.Store
	plan  plan.Plan
}

// New builds an encoder over the base platform automaton and the plan.
func New(base ta.Automaton, pl plan.Plan) *Encoder {
	return &Encoder{store: timeline.New(base, pl), plan: pl}
}

// EncodeFuture applies the Future rewriter at the given activation.
func (e *Encoder) EncodeFuture(paID string, info constraint.Unary) error {
	return rewrite.Future(e.store, e.plan, paID, info)
}

// EncodePast applies the Past rewriter at the given activation.
func (e *Encoder) EncodePast(paID string, info constraint.Unary) error {
	return rewrite.Past(e.store, e.plan, paID, info)
}

// EncodeNoOp applies the NoOp rewriter at the given activation.
func (e *Encoder) EncodeNoOp(paID string, targets constraint.Targets) error {
	return rewrite.NoOp(e.store, paID, targets)
}

// EncodeInvariant applies the Invariant rewriter at the given activation.
func (e *Encoder) EncodeInvariant(paID string, targets constraint.Targets) error {
	return rewrite.Invariant(e.store, paID, targets)
}

// EncodeUntilChain applies the UntilChain rewriter over the given start/end
// activations.
func (e *Encoder) EncodeUntilChain(chain constraint.Chain, startPAID, endPAID string) error {
	return rewrite.UntilChain(e.store, e.plan, chain, startPAID, endPAID)
}

// EncodeUntil is declared on the driver surface per spec §6 but, per §9 Open
// Questions, is not implemented.
func (e *Encoder) EncodeUntil(b constraint.Binary) error {
	return rewrite.Until(e.store, b)
}

// EncodeSince is the backward counterpart of EncodeUntil, equally
// unimplemented.
func (e *Encoder) EncodeSince(b constraint.Binary) error {
	return rewrite.Since(e.store, b)
}

// Diagnostics returns every non-fatal diagnostic recorded by rewrites
// applied so far.
func (e *Encoder) Diagnostics() []diagnostics.Diagnostic {
	return e.store.Diagnostics().All()
}

// ErrPlanMismatch is returned by Merge when the two encoders were not built
// against the identical pa_order (spec §7 kind 3: fatal).
var ErrPlanMismatch = fmt.Errorf("%w: merge requires identical pa_order", rewrite.ErrInvariant)

// Merge composes two encoders built over the same pa_order into one: for
// each plan action and each shared timeline prefix, computes the product of
// the two automata (shared location ids are merged with invariants
// conjoined; transitions sharing (src, dst, action, sync) are matched and
// have their guards conjoined and updates unioned — a synchronous product —
// while transitions unique to one side are carried over as independent
// interleaving); prefixes present in only one encoder are carried over
// whole. Cross-timeline transitions are unioned.
func (e *Encoder) Merge(other *Encoder) (*Encoder, error) {
	if len(e.store.PAOrder) != len(other.store.PAOrder) {
		return nil, ErrPlanMismatch
	}
	for i, id := range e.store.PAOrder {
		if other.store.PAOrder[i] != id {
			return nil, ErrPlanMismatch
		}
	}

	merged := timeline.New(e.store.Base(), e.plan)

	for _, paID := range merged.PAOrder {
		prefixes := map[string]bool{}
		for _, p := range e.store.Prefixes(paID) {
			prefixes[p] = true
		}
		for _, p := range other.store.Prefixes(paID) {
			prefixes[p] = true
		}

		for prefix := range prefixes {
			a := e.store.Entry(paID, prefix)
			b := other.store.Entry(paID, prefix)
			switch {
			case a != nil && b != nil:
				merged.SetEntry(paID, prefix, productEntry(a, b))
			case a != nil:
				merged.SetEntry(paID, prefix, a)
			default:
				merged.SetEntry(paID, prefix, b)
			}
		}
	}

	return &Encoder{store: merged, plan: e.plan}, nil
}

func productEntry(a, b *timeline.Entry) *timeline.Entry {
	return &timeline.Entry{
		Automaton: productAutomaton(a.Automaton, b.Automaton),
		TransOut:  unionTransitions(a.TransOut, b.TransOut),
	}
}

// productAutomaton merges two automata sharing the same location-id
// grammar: a location present in both has its invariants conjoined; a
// location present in only one side is carried over as-is. Transitions
// sharing (src, dst, action, sync) are treated as a synchronized pair —
// guards conjoined, updates unioned; transitions unique to one side
// interleave independently.
func productAutomaton(a, b ta.Automaton) ta.Automaton {
	locByID := map[string]ta.Location{}
	var order []string
	for _, l := range a.Locations {
		locByID[l.ID] = l
		order = append(order, l.ID)
	}
	for _, l := range b.Locations {
		if existing, ok := locByID[l.ID]; ok {
			existing.Invariant = cca.AndConstraints(existing.Invariant, l.Invariant)
			existing.Urgent = existing.Urgent || l.Urgent
			locByID[l.ID] = existing
			continue
		}
		locByID[l.ID] = l
		order = append(order, l.ID)
	}
	locs := make([]ta.Location, len(order))
	for i, id := range order {
		locs[i] = locByID[id]
	}

	trans := matchTransitions(a.Transitions, b.Transitions)

	out := ta.NewAutomaton(locs, trans, a.Prefix, true)
	out.Clocks = unionStrings(a.Clocks, b.Clocks)
	out.BoolVars = unionStrings(a.BoolVars, b.BoolVars)
	return out
}

type transKey struct {
	src, dst, action, sync string
}

func keyOf(t ta.Transition) transKey {
	return transKey{t.Src, t.Dst, t.Action, t.Sync}
}

func matchTransitions(a, b []ta.Transition) []ta.Transition {
	bByKey := map[transKey][]ta.Transition{}
	for _, t := range b {
		k := keyOf(t)
		bByKey[k] = append(bByKey[k], t)
	}
	matched := map[transKey]bool{}

	var out []ta.Transition
	for _, ta1 := range a {
		k := keyOf(ta1)
		partners := bByKey[k]
		if len(partners) == 0 {
			out = append(out, ta1)
			continue
		}
		matched[k] = true
		for _, ta2 := range partners {
			nt := ta1
			nt.Guard = cca.AndConstraints(ta1.Guard, ta2.Guard)
			nt.Update = ta.Update{
				ResetClocks: unionStrings(ta1.Update.ResetClocks, ta2.Update.ResetClocks),
				BoolAssigns: mergeBoolAssigns(ta1.Update.BoolAssigns, ta2.Update.BoolAssigns),
			}
			out = append(out, nt)
		}
	}
	for _, t := range b {
		if !matched[keyOf(t)] {
			out = append(out, t)
		}
	}
	return out
}

func unionTransitions(a, b []ta.Transition) []ta.Transition {
	seen := map[string]bool{}
	var out []ta.Transition
	for _, t := range append(append([]ta.Transition{}, a...), b...) {
		k := fmt.Sprintf("%s>%s|%s|%s|%s|%v|%v", t.Src, t.Dst, t.Action, t.Guard, t.Sync, t.Update.ResetClocks, t.Update.BoolAssigns)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, t)
	}
	return out
}

func unionStrings(a, b []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range append(append([]string{}, a...), b...) {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func mergeBoolAssigns(a, b map[string]bool) map[string]bool {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	out := make(map[string]bool, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}

// Finalize collects every automaton and cross-timeline transition in the
// store into a single Automaton with prefix "direct", plus the QUERY
// location, per spec §4.12.
func (e *Encoder) Finalize() ta.AutomataSystem {
	var locs []ta.Location
	var trans []ta.Transition
	seenLoc := map[string]bool{}

	locs = append(locs, ta.Location{ID: timeline.QueryID})
	seenLoc[timeline.QueryID] = true

	var clocks, boolVars []string
	for _, triple := range e.store.AllEntries() {
		for _, l := range triple.Entry.Automaton.Locations {
			if seenLoc[l.ID] {
				continue
			}
			seenLoc[l.ID] = true
			locs = append(locs, l)
		}
		trans = append(trans, triple.Entry.Automaton.Transitions...)
		trans = append(trans, triple.Entry.TransOut...)
		clocks = unionStrings(clocks, triple.Entry.Automaton.Clocks)
		boolVars = unionStrings(boolVars, triple.Entry.Automaton.BoolVars)
	}

	product := ta.NewAutomaton(locs, trans, "direct", true)
	product.Clocks = clocks
	product.BoolVars = boolVars

	return ta.AutomataSystem{
		Instances: []ta.Instance{{Automaton: product, Name: "direct"}},
		Globals: ta.Globals{
			Clocks:   clocks,
			BoolVars: boolVars,
		},
	}
}
