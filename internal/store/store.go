package store

import (
	"context"
	errs "errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/DaanHessen/undercity/internal/engine"
	"github.com/DaanHessen/undercity/internal/util"
)

var (
	ErrNoChange = errs.New("no change")
	ErrNotFound = errs.New("not found")
)

// Run is one archived game. Ending is nil while the game is still being played or was
// abandoned.
type Run struct {
	ID             uuid.UUID
	Seed           string
	City           string
	Strategy       string
	ContentVersion string
	StartedAt      time.Time
	FinishedAt     *time.Time
	FinalYear      int
	Ending         *engine.Ending
}

// NewRun is what is known when a game starts.
type NewRun struct {
	Seed           string
	City           string
	Strategy       string
	ContentVersion string
}

// Chronicle is the append-only archive of played games. Nothing is ever restored from it.
type Chronicle interface {
	CreateRun(ctx context.Context, nr NewRun) (Run, error)
	AppendEntry(ctx context.Context, runID uuid.UUID, seq int, e engine.LogEntry) error
	FinishRun(ctx context.Context, runID uuid.UUID, year int, ending engine.Ending) error
	Runs(ctx context.Context, limit int) ([]Run, error)
	Entries(ctx context.Context, runID uuid.UUID) ([]engine.LogEntry, error)
	Close() error
}

// Open picks Postgres when a DSN is configured and the local SQLite file otherwise.
func Open(ctx context.Context, cfg util.Config) (Chronicle, error) {
	if cfg.DSN != "" {
		db, err := OpenPostgres(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return NewPGChronicle(db), nil
	}
	return OpenSQLite(ctx, cfg.SQLitePath)
}

// RunSink streams a game's journal into a chronicle run.
type RunSink struct {
	ctx   context.Context
	ch    Chronicle
	runID uuid.UUID

	mu  sync.Mutex
	seq int
}

func NewRunSink(ctx context.Context, ch Chronicle, runID uuid.UUID) *RunSink {
	return &RunSink{ctx: ctx, ch: ch, runID: runID}
}

// Record implements engine.Sink.
func (s *RunSink) Record(e engine.LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return wrap(s.ch.AppendEntry(s.ctx, s.runID, s.seq, e), "append journal entry")
}

func (s *RunSink) RunID() uuid.UUID { return s.runID }

func clampLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return 50
	}
	return limit
}

// Helper error wrap
func wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, msg)
}
