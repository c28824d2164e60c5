package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestGame(t *testing.T, opts ...Option) *Game {
	t.Helper()
	seed, _ := NewRunSeed("game-test")
	g, err := NewGame(append([]Option{WithSeed(seed), WithLogger(quietLogger())}, opts...)...)
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	return g
}

func TestYearlyInvariantsHold(t *testing.T) {
	harsh := []EventDefinition{
		{Name: "塌方", Probability: 0.3, Effect: "资源-20%,安全-8"},
		{Name: "暴动", Condition: "peopleSupport < 60", Probability: 0.2, Effect: "民心-15,人口-5%"},
		{Name: "丰收", Probability: 0.3, Effect: "资源+30%,民心+12,文明+9"},
		{Name: "技术突破", Condition: "researchLevel >= 2", Probability: 0.1, Effect: "安全+40"},
	}
	for _, seedText := range []string{"inv-1", "inv-2", "inv-3"} {
		seed, _ := NewRunSeed(seedText)
		g, err := NewGame(WithSeed(seed), WithLogger(quietLogger()), WithEvents(harsh), WithStrategy("rapid"))
		if err != nil {
			t.Fatalf("NewGame: %v", err)
		}
		prev := g.Snapshot()
		for {
			rep, err := g.ProcessYear(context.Background())
			if err != nil {
				t.Fatalf("%s: ProcessYear: %v", seedText, err)
			}
			s := g.Snapshot()
			if !s.InRange() {
				t.Fatalf("%s year %d: out of range %+v", seedText, s.Year, s)
			}
			if s.Research.Level < prev.Research.Level || s.Construction.Level < prev.Construction.Level {
				t.Fatalf("%s year %d: level decreased", seedText, s.Year)
			}
			if s.Research.ConsumedTotal < prev.Research.ConsumedTotal || s.Construction.ConsumedTotal < prev.Construction.ConsumedTotal {
				t.Fatalf("%s year %d: consumed total decreased", seedText, s.Year)
			}
			if s.Construction.Level > s.Research.Level {
				t.Fatalf("%s year %d: construction %d above research %d", seedText, s.Year, s.Construction.Level, s.Research.Level)
			}
			prev = s
			if rep.Ending != nil {
				break
			}
		}
		if _, ok := g.Ending(); !ok {
			t.Fatalf("%s: ending not recorded", seedText)
		}
	}
}

func TestEmptyCatalogYearsHaveNoEvents(t *testing.T) {
	g := newTestGame(t)
	for i := 0; i < 50; i++ {
		rep, err := g.ProcessYear(context.Background())
		if err != nil {
			t.Fatalf("ProcessYear: %v", err)
		}
		if len(rep.Events) != 0 || len(g.Snapshot().LastTriggeredEvents) != 0 {
			t.Fatalf("event fired with empty catalog")
		}
	}
}

func TestIncomeCutoffIsPermanent(t *testing.T) {
	g := newTestGame(t)
	g.state.Resources = 1e12
	g.state.TotalResourcesAdded = 1e11 - 1

	rep, _ := g.ProcessYear(context.Background())
	if rep.Income != 15000000 {
		t.Fatalf("income before cutoff = %v", rep.Income)
	}
	rep, _ = g.ProcessYear(context.Background())
	if rep.Income != 0 || !g.state.IncomeCutoff {
		t.Fatalf("income after reaching 1e11 = %v", rep.Income)
	}
	g.state.TotalResourcesAdded = 0
	for i := 0; i < 5; i++ {
		rep, _ = g.ProcessYear(context.Background())
		if rep.Income != 0 {
			t.Fatalf("income re-enabled in year %d", rep.Year)
		}
	}
}

func TestIncomeIsCapped(t *testing.T) {
	g := newTestGame(t)
	g.state.Research.Level = 40
	g.state.Construction.Level = 1
	g.state.Resources = 1e12
	rep, _ := g.ProcessYear(context.Background())
	if rep.Income != 2e8 {
		t.Fatalf("income = %v, want cap 2e8", rep.Income)
	}
}

func TestYearlyArithmetic(t *testing.T) {
	g := newTestGame(t)
	rep, err := g.ProcessYear(context.Background())
	if err != nil {
		t.Fatalf("ProcessYear: %v", err)
	}
	// births 1e6*0.01*10*0.1 = 10000, deaths ceil(1e6*0.01) = 10000
	if rep.Births != 10000 || rep.Deaths != 10000 {
		t.Fatalf("births=%v deaths=%v", rep.Births, rep.Deaths)
	}
	want := 20000000 + 15000000 - (500000 + 1000000 + 12000000.0)
	s := g.Snapshot()
	if s.Resources != want || s.Year != EpochYear+1 {
		t.Fatalf("resources=%v year=%d", s.Resources, s.Year)
	}
	if s.PeopleSupport != 49.9 || s.Civilization != 89.9 {
		t.Fatalf("drift: support=%v civ=%v", s.PeopleSupport, s.Civilization)
	}
	if len(s.PopulationHistory) != 1 {
		t.Fatalf("history not recorded")
	}
	last := g.Journal()[len(g.Journal())-1]
	if last.Topic != TopicSettlement || last.Message != "📅 2165年结算：人口增加0，资源增加1,500,000" {
		t.Fatalf("settlement entry = %+v", last)
	}
}

func TestEventCanEndGameMidYear(t *testing.T) {
	g := newTestGame(t,
		WithEvents([]EventDefinition{{Name: "瘟疫", Description: "无人幸免。", Probability: 1, Effect: "人口-100%"}}),
		WithRand(&scriptedRand{vals: []float64{0.5}}),
	)
	rep, err := g.ProcessYear(context.Background())
	if err != nil {
		t.Fatalf("ProcessYear: %v", err)
	}
	if rep.Ending == nil || rep.Ending.ID != EndingExtinct {
		t.Fatalf("expected extinction ending, got %+v", rep.Ending)
	}
	s := g.Snapshot()
	if s.Resources != 20000000 || len(s.LastTriggeredEvents) != 1 {
		t.Fatalf("yearly update ran after the ending: %+v", s)
	}
	if _, err := g.ProcessYear(context.Background()); !errors.Is(err, ErrGameOver) {
		t.Fatalf("expected ErrGameOver, got %v", err)
	}
	j := g.Journal()
	if j[0].Kind != LogEvent || j[0].Message != "【瘟疫】无人幸免。 人口-100%" {
		t.Fatalf("event entry = %+v", j[0])
	}
	if j[len(j)-1].Topic != TopicEnding {
		t.Fatalf("missing ending entry")
	}
}

func TestStrategyChangeAppliesNextYear(t *testing.T) {
	g := newTestGame(t)
	if err := g.SetStrategy("高速发展"); err != nil {
		t.Fatalf("SetStrategy: %v", err)
	}
	if e := g.Journal()[0]; e.Topic != TopicStrategy || e.Message != "策略变更为：高速发展" {
		t.Fatalf("strategy entry = %+v", e)
	}
	rep, _ := g.ProcessYear(context.Background())
	if rep.ResearchCost != 1000000 {
		t.Fatalf("research cost = %v", rep.ResearchCost)
	}
	if s := g.Snapshot(); s.PeopleSupport != 47.9 || s.Security != 51.9 {
		t.Fatalf("support=%v security=%v", s.PeopleSupport, s.Security)
	}
	if err := g.SetStrategy("nope"); !errors.Is(err, ErrUnknownStrategy) {
		t.Fatalf("expected ErrUnknownStrategy, got %v", err)
	}
	if g.Strategy().ID != "rapid" {
		t.Fatalf("strategy changed by failed call")
	}
}

func TestWarningsAreLogged(t *testing.T) {
	g := newTestGame(t)
	g.state.PeopleSupport = 10
	g.state.Population = 50000
	g.state.Resources = 1e12
	rep, _ := g.ProcessYear(context.Background())
	var warnings []string
	for _, e := range rep.Entries {
		if e.Topic == TopicWarning {
			warnings = append(warnings, e.Message)
		}
	}
	if len(warnings) != 2 || !strings.HasPrefix(warnings[0], "⚠️ 民心过低") {
		t.Fatalf("warnings = %v", warnings)
	}
}

func TestGuardsAndCancellation(t *testing.T) {
	g := newTestGame(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := g.ProcessYear(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	g.busy.Store(true)
	if _, err := g.ProcessYear(context.Background()); !errors.Is(err, ErrReentrant) {
		t.Fatalf("expected ErrReentrant, got %v", err)
	}
	g.busy.Store(false)
	if g.Snapshot().Year != EpochYear {
		t.Fatalf("rejected calls advanced the year")
	}
}

func TestBirthRateClamped(t *testing.T) {
	g := newTestGame(t)
	if got := g.SetBirthRate(99); got != MaxBirthRate {
		t.Fatalf("birth rate = %d", got)
	}
	if got := g.SetBirthRate(-1); got != 0 {
		t.Fatalf("birth rate = %d", got)
	}
}

func TestInvalidLevelConfigDegrades(t *testing.T) {
	var got []LogEntry
	g := newTestGame(t,
		WithLevelConfig(LevelConfig{Research: []float64{1}}),
		WithSink(SinkFunc(func(e LogEntry) error { got = append(got, e); return nil })),
	)
	if len(g.leveler.Config.Research) != defaultLevels {
		t.Fatalf("default config not used")
	}
	if len(got) != 1 || got[0].Topic != TopicConfig {
		t.Fatalf("config entry = %+v", got)
	}
}

func TestRunStopsAtEnding(t *testing.T) {
	g := newTestGame(t, WithStrategy("rationing"))
	n, err := g.Run(context.Background(), 0)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	e, ok := g.Ending()
	if !ok || n == 0 {
		t.Fatalf("run ended without ending after %d years", n)
	}
	// rationing drains support by 1.1 a year
	if e.ID != EndingExiled {
		t.Fatalf("ending = %+v", e)
	}
}

func TestSeededGamesAreReproducible(t *testing.T) {
	defs := []EventDefinition{
		{Name: "a", Probability: 0.3, Effect: "民心+2"},
		{Name: "b", Probability: 0.3, Effect: "安全-3"},
	}
	run := func() []string {
		seed, _ := NewRunSeed("replay")
		g, _ := NewGame(WithSeed(seed), WithLogger(quietLogger()), WithEvents(defs))
		_, _ = g.Run(context.Background(), 100)
		var out []string
		for _, e := range g.Journal() {
			out = append(out, e.String())
		}
		return out
	}
	a, b := run(), run()
	if strings.Join(a, "\n") != strings.Join(b, "\n") {
		t.Fatalf("seeded runs diverged")
	}
}

func TestGamesShareCompiledCatalog(t *testing.T) {
	c, err := CompileCatalog([]EventDefinition{{Name: "补给", Probability: 0.5, Effect: "资源+10%"}})
	if err != nil {
		t.Fatalf("CompileCatalog: %v", err)
	}
	a := newTestGame(t, WithCatalog(c))
	b := newTestGame(t, WithCatalog(c))
	if a.Catalog() != c || b.Catalog() != c {
		t.Fatal("games did not keep the shared catalog")
	}
	if _, err := a.Run(context.Background(), 20); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, err := b.Run(context.Background(), 20); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if a.Snapshot().Resources != b.Snapshot().Resources {
		t.Fatal("same seed and catalog diverged")
	}
	if c.Len() != 1 {
		t.Fatalf("running games changed the catalog: %d events", c.Len())
	}
}
