package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/DaanHessen/undercity/internal/engine"
)

// DB wraps gorm.DB for the Postgres chronicle and exposes Close.
type DB struct {
	gorm *gorm.DB
	sql  *sql.DB
}

func (d *DB) Close() error { return d.sql.Close() }

// OpenPostgres connects and pings.
func OpenPostgres(ctx context.Context, dsn string) (*DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("missing DSN")
	}
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, wrap(err, "open postgres")
	}
	sdb, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sdb.SetConnMaxLifetime(30 * time.Minute)
	sdb.SetMaxOpenConns(10)
	sdb.SetMaxIdleConns(5)
	if err := sdb.PingContext(ctx); err != nil {
		return nil, wrap(err, "ping postgres")
	}
	return &DB{gorm: gdb, sql: sdb}, nil
}

// WithTx executes fn within a database transaction.
func (d *DB) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return d.gorm.WithContext(ctx).Transaction(fn)
}

// PGChronicle stores runs in Postgres. The schema comes from the embedded migrations.
type PGChronicle struct{ db *DB }

func NewPGChronicle(db *DB) *PGChronicle { return &PGChronicle{db: db} }

func (c *PGChronicle) Close() error { return c.db.Close() }

func (c *PGChronicle) CreateRun(ctx context.Context, nr NewRun) (Run, error) {
	r := Run{ID: uuid.New(), Seed: nr.Seed, City: nr.City, Strategy: nr.Strategy, ContentVersion: nr.ContentVersion, StartedAt: time.Now().UTC()}
	err := c.db.gorm.WithContext(ctx).Exec(`INSERT INTO runs(id, seed, city, strategy, content_version, started_at) VALUES (?,?,?,?,?,?)`,
		r.ID, r.Seed, r.City, r.Strategy, r.ContentVersion, r.StartedAt).Error
	if err != nil {
		return Run{}, wrap(err, "insert run")
	}
	return r, nil
}

func (c *PGChronicle) AppendEntry(ctx context.Context, runID uuid.UUID, seq int, e engine.LogEntry) error {
	return wrap(c.db.gorm.WithContext(ctx).Exec(`INSERT INTO log_entries(run_id, seq, year, kind, topic, message) VALUES (?,?,?,?,?,?)`,
		runID, seq, e.Year, string(e.Kind), string(e.Topic), e.Message).Error, "insert log entry")
}

func (c *PGChronicle) FinishRun(ctx context.Context, runID uuid.UUID, year int, ending engine.Ending) error {
	return c.db.WithTx(ctx, func(tx *gorm.DB) error {
		res := tx.Exec(`UPDATE runs SET finished_at = ?, final_year = ?, ending_id = ?, ending_title = ? WHERE id = ?`,
			time.Now().UTC(), year, ending.ID, ending.Title, runID)
		if res.Error != nil {
			return wrap(res.Error, "finish run")
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (c *PGChronicle) Runs(ctx context.Context, limit int) ([]Run, error) {
	rows, err := c.db.gorm.WithContext(ctx).Raw(`SELECT id, seed, city, strategy, content_version, started_at, finished_at, final_year, ending_id
		FROM runs ORDER BY started_at DESC LIMIT ?`, clampLimit(limit)).Rows()
	if err != nil {
		return nil, wrap(err, "list runs")
	}
	defer rows.Close()
	var out []Run
	for rows.Next() {
		var (
			r        Run
			finished sql.NullTime
			year     sql.NullInt64
			ending   sql.NullInt64
		)
		if err := rows.Scan(&r.ID, &r.Seed, &r.City, &r.Strategy, &r.ContentVersion, &r.StartedAt, &finished, &year, &ending); err != nil {
			return nil, wrap(err, "scan run")
		}
		fillOutcome(&r, finished, year, ending)
		out = append(out, r)
	}
	return out, wrap(rows.Err(), "list runs")
}

func (c *PGChronicle) Entries(ctx context.Context, runID uuid.UUID) ([]engine.LogEntry, error) {
	rows, err := c.db.gorm.WithContext(ctx).Raw(`SELECT year, kind, topic, message FROM log_entries WHERE run_id = ? ORDER BY seq`, runID).Rows()
	if err != nil {
		return nil, wrap(err, "list entries")
	}
	defer rows.Close()
	var out []engine.LogEntry
	for rows.Next() {
		var (
			e           engine.LogEntry
			kind, topic string
		)
		if err := rows.Scan(&e.Year, &kind, &topic, &e.Message); err != nil {
			return nil, wrap(err, "scan entry")
		}
		e.Kind, e.Topic = engine.LogKind(kind), engine.LogTopic(topic)
		out = append(out, e)
	}
	return out, wrap(rows.Err(), "list entries")
}

func fillOutcome(r *Run, finished sql.NullTime, year, ending sql.NullInt64) {
	if finished.Valid {
		t := finished.Time
		r.FinishedAt = &t
	}
	if year.Valid {
		r.FinalYear = int(year.Int64)
	}
	if ending.Valid {
		e := engine.EndingByID(int(ending.Int64))
		r.Ending = &e
	}
}
