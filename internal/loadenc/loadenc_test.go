package loadenc

import (
	"strings"
	"testing"
)

const validDoc = `{
  "base": {
    "locations": [
      {"id": "s0", "initial": true},
      {"id": "s1"}
    ],
    "transitions": [
      {"src": "s0", "dst": "s1", "action": "go"}
    ]
  },
  "plan": [
    {"op": "pick", "duration": {"lower": 0, "upper": 18446744073709551615}, "absolute_time": {"lower": 0, "upper": 18446744073709551615}},
    {"op": "place", "duration": {"lower": 0, "upper": 18446744073709551615}, "absolute_time": {"lower": 0, "upper": 18446744073709551615}}
  ],
  "constraints": [
    {"name": "reach_s1", "type": "future", "bounds": {"lower": 3, "upper": 7}, "targets": ["s1"], "activations": ["pick::1"]}
  ]
}`

func TestLoadValidDocument(t *testing.T) {
	base, pl, infos, err := Load(strings.NewReader(validDoc))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(base.Locations) != 3 { // s0, s1, trap
		t.Fatalf("expected 3 locations (incl. trap), got %d", len(base.Locations))
	}
	if pl.Len() != 2 {
		t.Fatalf("expected 2 plan actions, got %d", pl.Len())
	}
	if len(infos) != 1 {
		t.Fatalf("expected 1 constraint, got %d", len(infos))
	}
	u, ok := infos[0].(interface{ Name() string })
	if !ok || u.Name() != "reach_s1" {
		t.Fatalf("unexpected constraint descriptor: %+v", infos[0])
	}
}

func TestLoadRejectsUnknownTransitionLocation(t *testing.T) {
	doc := `{"base":{"locations":[{"id":"s0"}],"transitions":[{"src":"s0","dst":"missing"}]},"plan":[{"op":"a"}],"constraints":[]}`
	_, _, _, err := Load(strings.NewReader(doc))
	if err == nil {
		t.Fatal("expected error for transition referencing an unknown location")
	}
}

func TestLoadRejectsUnknownConstraintTarget(t *testing.T) {
	doc := `{"base":{"locations":[{"id":"s0"}],"transitions":[]},"plan":[{"op":"a"}],"constraints":[{"name":"c","type":"invariant","targets":["nope"]}]}`
	_, _, _, err := Load(strings.NewReader(doc))
	if err == nil {
		t.Fatal("expected error for a constraint targeting an unknown location")
	}
}

func TestLoadRejectsEmptyPlan(t *testing.T) {
	doc := `{"base":{"locations":[{"id":"s0"}],"transitions":[]},"plan":[],"constraints":[]}`
	_, _, _, err := Load(strings.NewReader(doc))
	if err == nil {
		t.Fatal("expected error for an empty plan")
	}
}

func TestLoadRejectsUnknownConstraintType(t *testing.T) {
	doc := `{"base":{"locations":[{"id":"s0"}],"transitions":[]},"plan":[{"op":"a"}],"constraints":[{"name":"c","type":"whatever"}]}`
	_, _, _, err := Load(strings.NewReader(doc))
	if err == nil {
		t.Fatal("expected error for an unknown constraint type")
	}
}
