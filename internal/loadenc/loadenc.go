// Package loadenc loads the core's inputs — a base automaton, a Plan,
// and a list of constraint descriptors — from a JSON document, playing the
// role the out-of-scope benchmark/platform generator holds in the original
// design: the core never reads a file itself, it only consumes what this
// package hands it.
package loadenc

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/encodelab/taenc/internal/cca"
	"github.com/encodelab/taenc/internal/constraint"
	"github.com/encodelab/taenc/internal/plan"
	"github.com/encodelab/taenc/internal/ta"
)

// Document is the on-disk JSON shape accepted by Load.
type Document struct {
	Base        baseAutomaton          `json:"base"`
	Plan        []planAction           `json:"plan"`
	Constraints []constraintDescriptor `json:"constraints"`
}

type baseAutomaton struct {
	Locations   []locationDoc   `json:"locations"`
	Transitions []transitionDoc `json:"transitions"`
}

type locationDoc struct {
	ID        string `json:"id"`
	Invariant string `json:"invariant"`
	Urgent    bool   `json:"urgent"`
	Initial   bool   `json:"initial"`
}

type transitionDoc struct {
	Src    string `json:"src"`
	Dst    string `json:"dst"`
	Action string `json:"action"`
	Guard  string `json:"guard"`
	Sync   string `json:"sync"`
}

type boundsDoc struct {
	Lower uint64 `json:"lower"`
	Upper uint64 `json:"upper"`
}

func (b boundsDoc) toBounds() cca.Bounds {
	return cca.NewBounds(b.Lower, b.Upper)
}

type planAction struct {
	Op             string    `json:"op"`
	Args           []string  `json:"args"`
	Duration       boundsDoc `json:"duration"`
	AbsoluteTime   boundsDoc `json:"absolute_time"`
	DelayTolerance boundsDoc `json:"delay_tolerance"`
}

type constraintDescriptor struct {
	Name             string      `json:"name"`
	Type             string      `json:"type"` // future | past | no_op | invariant | until | since | until_chain
	Bounds           boundsDoc   `json:"bounds"`
	Targets          []string    `json:"targets"`
	Activations      []string    `json:"activations"`
	ActivationsStart []string    `json:"activations_start"`
	ActivationsEnd   []string    `json:"activations_end"`
	Stages           []stageDoc  `json:"stages"`
}

type stageDoc struct {
	Bounds  boundsDoc `json:"bounds"`
	Targets []string  `json:"targets"`
}

// Load parses r into a base automaton, a plan, and constraint descriptors.
// Every location id referenced by a transition, target set, or constraint
// is validated eagerly against the declared location set so malformed
// input is rejected here rather than deep inside a rewriter.
func Load(r io.Reader) (ta.Automaton, plan.Plan, []constraint.ICInfo, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return ta.Automaton{}, plan.Plan{}, nil, fmt.Errorf("loadenc: failed to decode document: %w", err)
	}

	base, knownLocs, err := buildBase(doc.Base)
	if err != nil {
		return ta.Automaton{}, plan.Plan{}, nil, err
	}

	pl, err := buildPlan(doc.Plan)
	if err != nil {
		return ta.Automaton{}, plan.Plan{}, nil, err
	}

	infos, err := buildConstraints(doc.Constraints, knownLocs)
	if err != nil {
		return ta.Automaton{}, plan.Plan{}, nil, err
	}

	return base, pl, infos, nil
}

func buildBase(b baseAutomaton) (ta.Automaton, map[string]bool, error) {
	if len(b.Locations) == 0 {
		return ta.Automaton{}, nil, fmt.Errorf("loadenc: base automaton declares no locations")
	}
	known := make(map[string]bool, len(b.Locations))
	locs := make([]ta.Location, 0, len(b.Locations))
	for _, l := range b.Locations {
		if l.ID == "" {
			return ta.Automaton{}, nil, fmt.Errorf("loadenc: base automaton location with empty id")
		}
		known[l.ID] = true
		locs = append(locs, ta.Location{ID: l.ID, Invariant: l.Invariant, Urgent: l.Urgent, Initial: l.Initial})
	}

	trans := make([]ta.Transition, 0, len(b.Transitions))
	for _, t := range b.Transitions {
		if !known[t.Src] {
			return ta.Automaton{}, nil, fmt.Errorf("loadenc: transition references unknown source location %q", t.Src)
		}
		if !known[t.Dst] {
			return ta.Automaton{}, nil, fmt.Errorf("loadenc: transition references unknown destination location %q", t.Dst)
		}
		trans = append(trans, ta.Transition{Src: t.Src, Dst: t.Dst, Action: t.Action, Guard: t.Guard, Sync: t.Sync})
	}

	return ta.NewAutomaton(locs, trans, "base", true), known, nil
}

func buildPlan(actions []planAction) (plan.Plan, error) {
	if len(actions) == 0 {
		return plan.Plan{}, fmt.Errorf("loadenc: plan declares no actions")
	}
	out := make([]plan.Action, 0, len(actions))
	for i, a := range actions {
		if a.Op == "" {
			return plan.Plan{}, fmt.Errorf("loadenc: plan action %d has an empty op", i+1)
		}
		out = append(out, plan.Action{
			Name:           plan.ActionName{Op: a.Op, Args: a.Args},
			Duration:       a.Duration.toBounds(),
			AbsoluteTime:   a.AbsoluteTime.toBounds(),
			DelayTolerance: a.DelayTolerance.toBounds(),
		})
	}
	return plan.Plan{Actions: out}, nil
}

func buildConstraints(descs []constraintDescriptor, knownLocs map[string]bool) ([]constraint.ICInfo, error) {
	out := make([]constraint.ICInfo, 0, len(descs))
	for _, d := range descs {
		if err := validateTargets(d.Name, d.Targets, knownLocs); err != nil {
			return nil, err
		}
		for _, s := range d.Stages {
			if err := validateTargets(d.Name, s.Targets, knownLocs); err != nil {
				return nil, err
			}
		}

		switch d.Type {
		case "future", "past", "no_op", "invariant":
			out = append(out, constraint.Unary{
				NameStr:     d.Name,
				Type:        unaryType(d.Type),
				Spec:        constraint.Spec{Bounds: d.Bounds.toBounds(), Targets: constraint.NewTargets(d.Targets...)},
				Activations: d.Activations,
			})
		case "until", "since":
			out = append(out, constraint.Binary{
				NameStr:     d.Name,
				Type:        binaryType(d.Type),
				Spec:        constraint.Spec{Bounds: d.Bounds.toBounds(), Targets: constraint.NewTargets(d.Targets...)},
				Activations: d.Activations,
			})
		case "until_chain":
			stages := make([]constraint.StageSpec, 0, len(d.Stages))
			for _, s := range d.Stages {
				stages = append(stages, constraint.StageSpec{Bounds: s.Bounds.toBounds(), Targets: constraint.NewTargets(s.Targets...)})
			}
			out = append(out, constraint.Chain{
				NameStr:          d.Name,
				ActivationsStart: d.ActivationsStart,
				Stages:           stages,
				ActivationsEnd:   d.ActivationsEnd,
			})
		default:
			return nil, fmt.Errorf("loadenc: constraint %q has unknown type %q", d.Name, d.Type)
		}
	}
	return out, nil
}

func validateTargets(name string, targets []string, knownLocs map[string]bool) error {
	for _, t := range targets {
		if !knownLocs[t] {
			return fmt.Errorf("loadenc: constraint %q targets unknown base location %q", name, t)
		}
	}
	return nil
}

func unaryType(s string) constraint.OperatorType {
	switch s {
	case "future":
		return constraint.Future
	case "past":
		return constraint.Past
	case "no_op":
		return constraint.NoOp
	default:
		return constraint.Invariant
	}
}

func binaryType(s string) constraint.OperatorType {
	if s == "since" {
		return constraint.Since
	}
	return constraint.Until
}
