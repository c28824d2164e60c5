package engine

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/dustin/go-humanize"
)

const (
	DefaultBirthRate = 10
	MaxBirthRate     = 30

	researchUpkeep     = 500_000
	constructionUpkeep = 1_000_000
	populationUpkeep   = 12
	incomePerResearch  = 15_000_000
	incomeCap          = 2e8
	incomeCutoffTotal  = 1e11
	yearlyDecay        = 0.1
	minDeaths          = 1000
)

// YearReport summarises one processed year.
type YearReport struct {
	Year   int
	Events []string

	Births           float64
	Deaths           float64
	Income           float64
	ResearchCost     float64
	ConstructionCost float64
	PopulationCost   float64
	PopulationChange float64
	ResourceChange   float64

	Levels  []LevelOutcome
	Entries []LogEntry
	Ending  *Ending
}

// Game owns one running simulation. ProcessYear is the only writer; the query methods may be
// called from other goroutines.
type Game struct {
	mu   sync.RWMutex
	busy atomic.Bool

	state     *AttributeState
	leveler   Leveler
	catalog   *Catalog
	strategy  Strategy
	birthRate int

	seed   RunSeed
	rng    Rand
	logger *slog.Logger
	sinks  []Sink

	journal []LogEntry
	ending  *Ending

	cfgErr error
}

// Option configures a Game.
type Option func(*Game)

// WithRand injects the random source used for every event draw.
func WithRand(r Rand) Option { return func(g *Game) { g.rng = r } }

// WithSeed derives a fresh stream for each year and draw from seed.
func WithSeed(seed RunSeed) Option { return func(g *Game) { g.seed = seed } }

func WithLogger(l *slog.Logger) Option { return func(g *Game) { g.logger = l } }

// WithSink registers an additional journal receiver.
func WithSink(s Sink) Option { return func(g *Game) { g.sinks = append(g.sinks, s) } }

// WithLevelConfig replaces the default level thresholds. Invalid content falls back to the
// default and is reported in the journal.
func WithLevelConfig(cfg LevelConfig) Option {
	return func(g *Game) {
		valid, err := cfg.OrDefault()
		g.leveler.Config = valid
		g.cfgErr = errors.Join(g.cfgErr, err)
	}
}

// WithCatalog shares an already compiled catalog; catalogs are read-only once built.
func WithCatalog(c *Catalog) Option { return func(g *Game) { g.catalog = c } }

// WithEvents compiles definitions into the game's catalog, keeping every usable entry.
// Entries dropped while compiling are reported in the journal.
func WithEvents(defs []EventDefinition) Option {
	return func(g *Game) {
		c, err := CompileCatalog(defs)
		WithCatalog(c)(g)
		g.cfgErr = errors.Join(g.cfgErr, err)
	}
}

// WithStrategy selects the starting strategy; unknown names keep the default.
func WithStrategy(idOrName string) Option {
	return func(g *Game) {
		if s, ok := LookupStrategy(idOrName); ok {
			g.strategy = s
			return
		}
		g.cfgErr = errors.Join(g.cfgErr, fmt.Errorf("%w: %q", ErrUnknownStrategy, idOrName))
	}
}

func WithBirthRate(n int) Option { return func(g *Game) { g.birthRate = clampBirthRate(n) } }

// NewGame creates a game at the fixed starting state.
func NewGame(opts ...Option) (*Game, error) {
	def, _ := LookupStrategy(DefaultStrategyID)
	g := &Game{
		state:     NewAttributeState(),
		leveler:   Leveler{Config: DefaultLevelConfig()},
		strategy:  def,
		birthRate: DefaultBirthRate,
	}
	for _, o := range opts {
		o(g)
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	if g.rng == nil && g.seed.Text == "" {
		seed, err := NewRunSeed(RandomSeedText())
		if err != nil {
			return nil, err
		}
		g.seed = seed
	}
	if g.cfgErr != nil {
		for _, err := range unjoin(g.cfgErr) {
			g.logger.Warn("content degraded", "err", err)
			g.emit(LogEntry{Year: g.state.Year, Kind: LogWarning, Topic: TopicConfig, Message: "⚠️ " + err.Error()})
		}
	}
	return g, nil
}

// RandomSeedText returns a short random seed suitable for display.
func RandomSeedText() string {
	var buf [10]byte
	_, _ = rand.Read(buf[:])
	return strings.ToLower(base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(buf[:]))
}

func (g *Game) rngFor(year, draw int) Rand {
	if g.rng != nil {
		return g.rng
	}
	return g.seed.Stream(EventLabel(year, draw))
}

// ProcessYear simulates exactly one year. It returns ErrGameOver once an ending has been
// reached and ErrReentrant if another call is still running.
func (g *Game) ProcessYear(ctx context.Context) (YearReport, error) {
	if err := ctx.Err(); err != nil {
		return YearReport{}, err
	}
	if !g.busy.CompareAndSwap(false, true) {
		return YearReport{}, ErrReentrant
	}
	defer g.busy.Store(false)

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.ending != nil {
		return YearReport{}, ErrGameOver
	}
	mark := len(g.journal)
	s := g.state
	s.Year++
	rep := YearReport{Year: s.Year}

	s.LastTriggeredEvents = nil
	for draw := 1; draw <= DrawsPerYear; draw++ {
		ev, ok, err := g.catalog.Draw(s, g.rngFor(s.Year, draw))
		if err != nil {
			g.logger.Debug("event condition failed", "year", s.Year, "err", err)
		}
		if !ok {
			continue
		}
		applied := ApplyEvent(s, ev)
		s.LastTriggeredEvents = append(s.LastTriggeredEvents, ev.Name)
		rep.Events = append(rep.Events, ev.Name)
		g.emit(LogEntry{Year: s.Year, Kind: LogEvent, Topic: TopicEvent, Message: EventMessage(ev, applied)})
		if IsTerminal(s) {
			g.finish(&rep)
			rep.Entries = g.entriesSince(mark)
			return rep, nil
		}
	}

	g.applyYearlyChanges(s, &rep)
	g.checkWarnings(s)
	s.RecordPopulation()
	g.emit(LogEntry{Year: s.Year, Kind: LogNormal, Topic: TopicSettlement, Message: fmt.Sprintf("📅 %d年结算：人口%s%s，资源%s%s",
		s.Year, changeVerb(rep.PopulationChange), FormatNumber(math.Abs(rep.PopulationChange)),
		changeVerb(rep.ResourceChange), FormatNumber(math.Abs(rep.ResourceChange)))})

	if IsTerminal(s) {
		g.finish(&rep)
	}
	rep.Entries = g.entriesSince(mark)
	return rep, nil
}

func (g *Game) applyYearlyChanges(s *AttributeState, rep *YearReport) {
	st := g.strategy
	startPop, startRes := s.Population, s.Resources

	rep.Births = math.Floor(s.Population * 0.01 * float64(g.birthRate) * 0.1)
	rep.Deaths = math.Max(minDeaths, math.Ceil(s.Population*0.01))
	s.Population += rep.Births - rep.Deaths

	rep.ResearchCost = researchUpkeep * float64(s.Research.Level) * st.ResearchMultiplier()
	rep.ConstructionCost = constructionUpkeep * float64(s.Construction.Level) * st.ConstructionMultiplier()
	rep.PopulationCost = s.Population * populationUpkeep * st.PopulationMultiplier()

	income := incomePerResearch * float64(s.Research.Level)
	if s.IncomeCutoff || s.TotalResourcesAdded >= incomeCutoffTotal {
		s.IncomeCutoff = true
		income = 0
	}
	rep.Income = math.Min(income, incomeCap)

	s.Resources += rep.Income - (rep.ResearchCost + rep.ConstructionCost + rep.PopulationCost)
	s.TotalResourcesAdded += rep.Income
	s.Research.ConsumedTotal += rep.ResearchCost
	s.Construction.ConsumedTotal += rep.ConstructionCost

	s.PeopleSupport += st.PeopleSupport - yearlyDecay
	s.Security += st.Security - yearlyDecay
	s.Civilization += st.Civilization - yearlyDecay

	for _, t := range AllTracks {
		out := g.leveler.Advance(s, t)
		rep.Levels = append(rep.Levels, out)
		if e, ok := out.Entry(s.Year); ok {
			g.emit(e)
		}
	}
	AdvanceTalent(s, st.CultivatesTalent)

	if !s.InRange() {
		g.logger.Debug("clamping", "err", &InvariantViolation{Year: s.Year, Stage: "yearly update"})
	}
	s.Clamp()
	rep.PopulationChange = s.Population - startPop
	rep.ResourceChange = s.Resources - startRes
}

func (g *Game) checkWarnings(s *AttributeState) {
	warnings := []struct {
		hit bool
		msg string
	}{
		{s.PeopleSupport < 20, fmt.Sprintf("⚠️ 民心过低！当前值：%.2f", s.PeopleSupport)},
		{s.Security < 20, fmt.Sprintf("⚠️ 安全指数过低！当前值：%.2f", s.Security)},
		{s.Civilization < 20, fmt.Sprintf("⚠️ 文明指数过低！当前值：%.2f", s.Civilization)},
		{s.Resources < 200_000, "⚠️ 资源即将耗尽！当前剩余：" + FormatNumber(s.Resources)},
		{s.Population < 100_000, "⚠️ 人口危机！当前人口：" + FormatNumber(s.Population)},
	}
	for _, w := range warnings {
		if w.hit {
			g.emit(LogEntry{Year: s.Year, Kind: LogWarning, Topic: TopicWarning, Message: w.msg})
		}
	}
}

func (g *Game) finish(rep *YearReport) {
	e := ResolveEnding(g.state)
	g.ending = &e
	rep.Ending = &e
	g.emit(LogEntry{Year: g.state.Year, Kind: LogWarning, Topic: TopicEnding, Message: "游戏结束：" + e.Title})
}

func (g *Game) emit(e LogEntry) {
	g.journal = append(g.journal, e)
	for _, s := range g.sinks {
		if err := s.Record(e); err != nil {
			g.logger.Warn("journal sink failed", "year", e.Year, "topic", e.Topic, "err", err)
		}
	}
}

func (g *Game) entriesSince(mark int) []LogEntry {
	return append([]LogEntry(nil), g.journal[mark:]...)
}

// Run processes years until an ending, until limit years have passed (limit <= 0 means no
// limit), or until ctx is cancelled between years.
func (g *Game) Run(ctx context.Context, limit int) (int, error) {
	n := 0
	for limit <= 0 || n < limit {
		rep, err := g.ProcessYear(ctx)
		if err != nil {
			if errors.Is(err, ErrGameOver) {
				return n, nil
			}
			return n, err
		}
		n++
		if rep.Ending != nil {
			return n, nil
		}
	}
	return n, nil
}

// SetStrategy switches the active strategy; it applies from the next processed year.
func (g *Game) SetStrategy(idOrName string) error {
	st, ok := LookupStrategy(idOrName)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownStrategy, idOrName)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.ending != nil {
		return ErrGameOver
	}
	g.strategy = st
	g.emit(LogEntry{Year: g.state.Year, Kind: LogNormal, Topic: TopicStrategy, Message: "策略变更为：" + st.Name})
	return nil
}

// SetBirthRate sets the birth-rate slider (0-30, read as tenths) and returns the stored value.
func (g *Game) SetBirthRate(n int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.birthRate = clampBirthRate(n)
	return g.birthRate
}

func clampBirthRate(n int) int { return min(max(n, 0), MaxBirthRate) }

func (g *Game) BirthRate() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.birthRate
}

// Snapshot returns a deep copy of the current state.
func (g *Game) Snapshot() AttributeState {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state.Clone()
}

func (g *Game) LevelStatus(t Track) LevelStatus {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.leveler.Status(g.state, t)
}

func (g *Game) Strategy() Strategy {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.strategy
}

func (g *Game) Strategies() []Strategy { return Strategies() }

// Ending returns the resolved ending once the game is over.
func (g *Game) Ending() (Ending, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.ending == nil {
		return Ending{}, false
	}
	return *g.ending, true
}

// Journal returns every entry emitted so far, oldest first.
func (g *Game) Journal() []LogEntry {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]LogEntry(nil), g.journal...)
}

func (g *Game) Seed() RunSeed { return g.seed }

func (g *Game) Catalog() *Catalog { return g.catalog }

// FormatNumber rounds v and groups thousands.
func FormatNumber(v float64) string {
	return humanize.Comma(int64(math.Round(v)))
}

func changeVerb(delta float64) string {
	if delta >= 0 {
		return "增加"
	}
	return "减少"
}
