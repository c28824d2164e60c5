package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/DaanHessen/undercity/internal/catalog"
	"github.com/DaanHessen/undercity/internal/engine"
	"github.com/DaanHessen/undercity/internal/store"
	"github.com/DaanHessen/undercity/internal/text"
	"github.com/DaanHessen/undercity/internal/ui"
	"github.com/DaanHessen/undercity/internal/util"
)

var version = "0.1.0"

func main() {
	// Load .env file if it exists (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cfg, err := util.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}
	flag.StringVar(&cfg.Seed, "seed", cfg.Seed, "Run seed string (optional; random if omitted)")
	flag.StringVar(&cfg.DSN, "dsn", cfg.DSN, "PostgreSQL DSN for the run chronicle (SQLite is used when empty)")
	flag.StringVar(&cfg.SQLitePath, "sqlite", cfg.SQLitePath, "SQLite chronicle path")
	flag.StringVar(&cfg.LevelsPath, "levels", cfg.LevelsPath, "Level requirements file (YAML or JSON)")
	flag.StringVar(&cfg.EventsPath, "events", cfg.EventsPath, "Event catalog file (YAML or JSON)")
	flag.StringVar(&cfg.Strategy, "strategy", cfg.Strategy, "Starting strategy id or name")
	flag.StringVar(&cfg.City, "city", cfg.City, "Settlement name")
	flag.DurationVar(&cfg.Tick, "tick", cfg.Tick, "Real time per simulated year in the TUI")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "undercity [--seed s] [--dsn DSN] [--sqlite path] [--levels f] [--events f] [--strategy id] [--city name] | migrate up|down|version | simulate [--years n] | history [--limit n] [--run id] | version\n")
	}
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	args := flag.Args()
	cmd := ""
	if len(args) > 0 {
		cmd = args[0]
	}
	switch cmd {
	case "version":
		fmt.Println("undercity", version)
		return
	case "migrate":
		err = migrateCmd(ctx, cfg, args[1:])
	case "simulate":
		err = simulateCmd(ctx, cfg, stderrLogger(cfg), args[1:])
	case "history":
		err = historyCmd(ctx, cfg, args[1:])
	case "":
		err = play(ctx, cfg)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal(err)
	}
}

func stderrLogger(cfg util.Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
}

func migrateCmd(ctx context.Context, cfg util.Config, args []string) error {
	if len(args) < 1 {
		return errors.New("migrate requires 'up' or 'down'")
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	migrator, err := store.NewMigrator(cfg.DSN)
	if err != nil {
		return err
	}
	switch args[0] {
	case "up":
		if err := migrator.Up(ctx); err != nil && !errors.Is(err, store.ErrNoChange) {
			return err
		}
		fmt.Println("Migrations applied")
	case "down":
		if err := migrator.Down(ctx); err != nil && !errors.Is(err, store.ErrNoChange) {
			return err
		}
		fmt.Println("Migrations rolled back")
	case "version":
	default:
		return errors.New("unknown migrate action; use up|down|version")
	}
	v, dirty, err := migrator.Version()
	if err != nil {
		return err
	}
	fmt.Printf("Schema version %d (dirty=%v)\n", v, dirty)
	return nil
}

// session is one game wired to its content and, when available, its chronicle run.
type session struct {
	cfg     util.Config
	logger  *slog.Logger
	content catalog.Content
	game    *engine.Game
	chron   store.Chronicle
	run     *store.Run
	sink    *store.RunSink
}

func startSession(ctx context.Context, cfg util.Config, logger *slog.Logger, archive bool) (*session, error) {
	content, err := catalog.Load(cfg.LevelsPath, cfg.EventsPath)
	if err != nil {
		logger.Warn("content degraded", "err", err)
	}
	seedText := strings.TrimSpace(cfg.Seed)
	if seedText == "" {
		seedText = engine.RandomSeedText()
		logger.Info("generated run seed", "seed", seedText)
	}
	seed, err := engine.NewRunSeed(seedText)
	if err != nil {
		return nil, err
	}
	s := &session{cfg: cfg, logger: logger, content: content}
	opts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithLevelConfig(content.Levels),
		engine.WithEvents(content.Events),
		engine.WithStrategy(cfg.Strategy),
		engine.WithBirthRate(cfg.BirthRate),
	}
	runContext := "local"
	if archive {
		if err := s.openChronicle(ctx, seedText); err != nil {
			logger.Warn("chronicle unavailable; run will not be archived", "err", err)
		}
	}
	if s.run != nil {
		s.sink = store.NewRunSink(ctx, s.chron, s.run.ID)
		runContext = s.sink.RunID().String()
		opts = append(opts, engine.WithSink(s.sink))
	}
	opts = append(opts, engine.WithSeed(seed.WithRunContext(runContext, content.Version)))
	g, err := engine.NewGame(opts...)
	if err != nil {
		s.close(ctx)
		return nil, err
	}
	s.game = g
	logger.Info("game ready", "seed", seedText, "events", g.Catalog().Len(), "content", content.Version)
	return s, nil
}

func (s *session) openChronicle(ctx context.Context, seedText string) error {
	if s.cfg.DSN != "" {
		mig, err := store.NewMigrator(s.cfg.DSN)
		if err != nil {
			return err
		}
		migCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := mig.Up(migCtx); err != nil && !errors.Is(err, store.ErrNoChange) {
			return err
		}
	}
	ch, err := store.Open(ctx, s.cfg)
	if err != nil {
		return err
	}
	run, err := ch.CreateRun(ctx, store.NewRun{Seed: seedText, City: s.cfg.City, Strategy: s.cfg.Strategy, ContentVersion: s.content.Version})
	if err != nil {
		ch.Close()
		return err
	}
	s.chron, s.run = ch, &run
	return nil
}

func (s *session) finish(ctx context.Context, e engine.Ending, st engine.AttributeState) {
	if s.sink == nil {
		return
	}
	if err := s.chron.FinishRun(ctx, s.sink.RunID(), st.Year, e); err != nil {
		s.logger.Warn("archive ending", "err", err)
	}
}

func (s *session) close(ctx context.Context) {
	if s.chron != nil {
		_ = s.chron.Close()
	}
}

func play(ctx context.Context, cfg util.Config) error {
	// The TUI owns the terminal, so logs go to a file only when debugging.
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if cfg.SlogLevel() == slog.LevelDebug {
		f, err := tea.LogToFile("undercity.log", "undercity")
		if err != nil {
			return err
		}
		defer f.Close()
		logger = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	s, err := startSession(ctx, cfg, logger, true)
	if err != nil {
		return err
	}
	defer s.close(ctx)
	return ui.Run(ctx, s.game, ui.Options{
		City:  cfg.City,
		Tick:  cfg.Tick,
		Theme: cfg.Theme,
		OnEnd: func(e engine.Ending, st engine.AttributeState) { s.finish(ctx, e, st) },
	})
}

func simulateCmd(ctx context.Context, cfg util.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("simulate", flag.ContinueOnError)
	years := fs.Int("years", 0, "Stop after n years (0 runs to the ending)")
	archive := fs.Bool("archive", true, "Record the run in the chronicle")
	quiet := fs.Bool("quiet", false, "Print only the summary")
	if err := fs.Parse(args); err != nil {
		return err
	}
	s, err := startSession(ctx, cfg, logger, *archive)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	played, err := s.game.Run(ctx, *years)
	if !*quiet {
		for _, e := range s.game.Journal() {
			fmt.Println(e.String())
		}
	}
	if err != nil {
		return err
	}
	snap := s.game.Snapshot()
	e, ended := s.game.Ending()
	if !ended {
		fmt.Printf("\n%s years simulated; stopped in %d with no ending\n", humanize.Comma(int64(played)), snap.Year)
		return nil
	}
	s.finish(ctx, e, snap)
	fmt.Println()
	fmt.Print(text.Summary(cfg.City, snap, e))
	if s.sink != nil {
		fmt.Printf("\nrun %s archived\n", s.sink.RunID())
	}
	return nil
}

func historyCmd(ctx context.Context, cfg util.Config, args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "Number of runs to list")
	runID := fs.String("run", "", "Print the journal of one run")
	if err := fs.Parse(args); err != nil {
		return err
	}
	ch, err := store.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer ch.Close()

	if *runID != "" {
		id, err := uuid.Parse(*runID)
		if err != nil {
			return fmt.Errorf("run id: %w", err)
		}
		entries, err := ch.Entries(ctx, id)
		if err != nil {
			return err
		}
		for _, e := range entries {
			fmt.Println(e.String())
		}
		return nil
	}

	runs, err := ch.Runs(ctx, *limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no archived runs")
		return nil
	}
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		ending, year := "(进行中)", "-"
		if r.Ending != nil {
			ending = r.Ending.Title
			year = fmt.Sprintf("%d", r.FinalYear)
		}
		rows = append(rows, []string{r.ID.String(), humanize.Time(r.StartedAt), r.City, r.Seed, r.Strategy, year, ending})
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("run", "started", "city", "seed", "strategy", "year", "ending").
		Rows(rows...)
	fmt.Println(t.Render())
	return nil
}
