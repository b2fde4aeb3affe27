package cache

import (
	"testing"
	"time"

	"github.com/encodelab/taenc/internal/cca"
	"github.com/encodelab/taenc/internal/constraint"
	"github.com/encodelab/taenc/internal/plan"
	"github.com/encodelab/taenc/internal/ta"
)

func samplePlan() plan.Plan {
	return plan.Plan{Actions: []plan.Action{
		{Name: plan.ActionName{Op: "pick"}, Duration: cca.NewBounds(0, cca.Infinity), AbsoluteTime: cca.NewBounds(0, cca.Infinity)},
		{Name: plan.ActionName{Op: "place"}, Duration: cca.NewBounds(0, cca.Infinity), AbsoluteTime: cca.NewBounds(0, cca.Infinity)},
	}}
}

func sampleInfos() []constraint.ICInfo {
	return []constraint.ICInfo{
		constraint.Unary{
			NameStr: "reach_s1",
			Type:    constraint.Future,
			Spec:    constraint.Spec{Bounds: cca.NewBounds(3, 7), Targets: constraint.NewTargets("s1")},
		},
	}
}

func TestCacheMissThenHit(t *testing.T) {
	c := New(10, time.Minute)
	pl := samplePlan()
	infos := sampleInfos()

	if _, ok := c.Get(pl, infos); ok {
		t.Fatal("expected miss on empty cache")
	}

	want := &ta.AutomataSystem{Instances: []ta.Instance{{Automaton: ta.NewAutomaton(nil, nil, "direct", true), Name: "direct"}}}
	c.Set(pl, infos, want)

	got, ok := c.Get(pl, infos)
	if !ok {
		t.Fatal("expected hit after Set")
	}
	if got.Instances[0].Name != "direct" {
		t.Fatalf("unexpected cached system: %+v", got)
	}

	hits, misses, size := c.Stats()
	if hits != 1 || misses != 1 || size != 1 {
		t.Fatalf("unexpected stats: hits=%d misses=%d size=%d", hits, misses, size)
	}
}

func TestCacheKeySensitiveToConstraints(t *testing.T) {
	c := New(10, time.Minute)
	pl := samplePlan()

	c.Set(pl, sampleInfos(), &ta.AutomataSystem{})

	differentInfos := []constraint.ICInfo{
		constraint.Unary{NameStr: "reach_s0", Type: constraint.Future, Spec: constraint.Spec{Bounds: cca.NewBounds(3, 7), Targets: constraint.NewTargets("s0")}},
	}
	if _, ok := c.Get(pl, differentInfos); ok {
		t.Fatal("expected miss for a differently-named constraint set")
	}
}

func TestCacheExpiry(t *testing.T) {
	c := New(10, time.Nanosecond)
	pl := samplePlan()
	infos := sampleInfos()

	c.Set(pl, infos, &ta.AutomataSystem{})
	time.Sleep(time.Millisecond)

	if _, ok := c.Get(pl, infos); ok {
		t.Fatal("expected expired entry to miss")
	}
}

func TestCacheEvictsWhenFull(t *testing.T) {
	c := New(1, time.Minute)
	pl := samplePlan()

	c.Set(pl, sampleInfos(), &ta.AutomataSystem{})
	c.Set(pl, []constraint.ICInfo{
		constraint.Unary{NameStr: "other", Type: constraint.NoOp, Spec: constraint.Spec{Targets: constraint.NewTargets("s0")}},
	}, &ta.AutomataSystem{})

	_, _, size := c.Stats()
	if size > 1 {
		t.Fatalf("expected eviction to keep size at maxSize=1, got %d", size)
	}
}

func TestNilCacheIsSafe(t *testing.T) {
	var c *Cache
	if _, ok := c.Get(samplePlan(), sampleInfos()); ok {
		t.Fatal("nil cache must always miss")
	}
	c.Set(samplePlan(), sampleInfos(), &ta.AutomataSystem{})
	c.Clear()
}
