package engine

import (
	"errors"
	"math"
	"testing"
)

// scriptedRand replays fixed values, repeating the last one.
type scriptedRand struct {
	vals []float64
	i    int
}

func (r *scriptedRand) Float64() float64 {
	v := r.vals[min(r.i, len(r.vals)-1)]
	r.i++
	return v
}

func mustCatalog(t *testing.T, defs ...EventDefinition) *Catalog {
	t.Helper()
	c, err := CompileCatalog(defs)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return c
}

func TestSelectionConvergesToWeights(t *testing.T) {
	c := mustCatalog(t,
		EventDefinition{Name: "a", Probability: 0.1, Effect: "民心+1"},
		EventDefinition{Name: "b", Probability: 0.3, Effect: "民心+1"},
		EventDefinition{Name: "c", Probability: 0.6, Effect: "民心+1"},
	)
	s := NewAttributeState()
	seed, _ := NewRunSeed("weights")
	rng := seed.Stream("draws")
	counts := map[string]int{}
	total := 20000
	for i := 0; i < total; i++ {
		ev, ok, err := c.Draw(s, rng)
		if err != nil {
			t.Fatalf("draw: %v", err)
		}
		if !ok {
			t.Fatalf("summed probability 1 must always fire")
		}
		counts[ev.Name]++
	}
	for name, want := range map[string]float64{"a": 0.1, "b": 0.3, "c": 0.6} {
		got := float64(counts[name]) / float64(total)
		if math.Abs(got-want) > 0.02 {
			t.Fatalf("share of %s = %.3f, want %.2f", name, got, want)
		}
	}
}

func TestFireRateMatchesSummedProbability(t *testing.T) {
	c := mustCatalog(t,
		EventDefinition{Name: "a", Probability: 0.2, Effect: "民心+1"},
		EventDefinition{Name: "b", Probability: 0.2, Effect: "民心+1"},
		EventDefinition{Name: "never", Probability: 0.9, Condition: "currentYear < 0", Effect: "民心+1"},
	)
	s := NewAttributeState()
	seed, _ := NewRunSeed("fire-rate")
	rng := seed.Stream("draws")
	fired := 0
	total := 20000
	for i := 0; i < total; i++ {
		if ev, ok, _ := c.Draw(s, rng); ok {
			if ev.Name == "never" {
				t.Fatalf("event with false condition fired")
			}
			fired++
		}
	}
	if rate := float64(fired) / float64(total); math.Abs(rate-0.4) > 0.02 {
		t.Fatalf("fire rate = %.3f, want 0.4", rate)
	}
}

func TestEmptyCatalogNeverFires(t *testing.T) {
	s := NewAttributeState()
	var nilCatalog *Catalog
	for _, c := range []*Catalog{nilCatalog, NewCatalog()} {
		if _, ok, err := c.Draw(s, &scriptedRand{vals: []float64{0}}); ok || err != nil {
			t.Fatalf("empty catalog fired: ok=%v err=%v", ok, err)
		}
	}
}

func TestSelectionFallsBackToFirstCandidate(t *testing.T) {
	cands := []Event{{Name: "first", Probability: 0.5}, {Name: "second", Probability: 0.5}}
	// second value scales to 1.0 * total which lands exactly on the final sum
	ev, ok := SelectEvent(cands, &scriptedRand{vals: []float64{0, 1}})
	if !ok || ev.Name != "second" {
		t.Fatalf("got %q %v", ev.Name, ok)
	}
	ev, ok = SelectEvent(cands, &scriptedRand{vals: []float64{0, 1.5}})
	if !ok || ev.Name != "first" {
		t.Fatalf("fallback got %q %v", ev.Name, ok)
	}
}

func TestProbabilityClamping(t *testing.T) {
	c := mustCatalog(t,
		EventDefinition{Name: "neg", Probability: -1, Effect: "民心+1"},
		EventDefinition{Name: "nan", Probability: math.NaN(), Effect: "民心+1"},
		EventDefinition{Name: "big", Probability: 7, Effect: "民心+1"},
	)
	cands, err := c.Candidates(NewAttributeState())
	if err != nil {
		t.Fatalf("candidates: %v", err)
	}
	if len(cands) != 1 || cands[0].Name != "big" || cands[0].Probability != 1 {
		t.Fatalf("unexpected candidates: %+v", cands)
	}
	if _, ok := SelectEvent(cands, &scriptedRand{vals: []float64{0.999999}}); !ok {
		t.Fatalf("probability clamped to 1 must fire")
	}
}

func TestCompileCatalogReportsBadContent(t *testing.T) {
	c, err := CompileCatalog([]EventDefinition{
		{Name: "ok", Probability: 0.1, Effect: "民心+1"},
		{Name: "bad-cond", Probability: 0.1, Condition: "security >", Effect: "民心+1"},
		{Name: "bad-effect", Probability: 0.1, Effect: "民心+1,oops"},
	})
	if c.Len() != 2 {
		t.Fatalf("expected bad condition entry dropped, have %d", c.Len())
	}
	var ce *ConditionEvaluationError
	var me *MalformedEffectError
	if !errors.As(err, &ce) || !errors.As(err, &me) {
		t.Fatalf("expected both error kinds, got %v", err)
	}
	if me.Event != "bad-effect" {
		t.Fatalf("effect error not tagged with event: %+v", me)
	}
	if got := c.Events()[1].Effects; len(got) != 1 {
		t.Fatalf("valid terms of bad-effect lost: %v", got)
	}
}

func TestEventMessage(t *testing.T) {
	ev := Event{Name: "地震", Description: "地下城发生地震。"}
	if got := EventMessage(ev, []string{"安全-5", "人口-1%"}); got != "【地震】地下城发生地震。 安全-5，人口-1%" {
		t.Fatalf("message = %q", got)
	}
}
