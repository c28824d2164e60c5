package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/DaanHessen/undercity/internal/engine"
)

// DefaultSQLitePath is used when neither a DSN nor a path is configured.
const DefaultSQLitePath = "undercity.db"

// SQLiteChronicle keeps the archive in a local SQLite file.
type SQLiteChronicle struct {
	conn *sqlx.DB
}

// OpenSQLite opens or creates the database at path and ensures its schema.
// ":memory:" gives a private in-memory archive.
func OpenSQLite(ctx context.Context, path string) (*SQLiteChronicle, error) {
	if path == "" {
		path = DefaultSQLitePath
	}
	dsn := path
	if path != ":memory:" {
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	}
	conn, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, wrap(err, "open sqlite")
	}
	// One connection keeps :memory: databases shared and serialises writers.
	conn.SetMaxOpenConns(1)
	c := &SQLiteChronicle{conn: conn}
	if err := c.migrate(ctx); err != nil {
		conn.Close()
		return nil, wrap(err, "migrate sqlite")
	}
	return c, nil
}

func (c *SQLiteChronicle) Close() error { return c.conn.Close() }

func (c *SQLiteChronicle) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		seed TEXT NOT NULL,
		city TEXT NOT NULL DEFAULT '',
		strategy TEXT NOT NULL,
		content_version TEXT NOT NULL DEFAULT '',
		started_unix INTEGER NOT NULL,
		finished_unix INTEGER,
		final_year INTEGER,
		ending_id INTEGER,
		ending_title TEXT
	);

	CREATE TABLE IF NOT EXISTS log_entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		year INTEGER NOT NULL,
		kind TEXT NOT NULL,
		topic TEXT NOT NULL,
		message TEXT NOT NULL,
		UNIQUE (run_id, seq)
	);

	CREATE INDEX IF NOT EXISTS idx_log_entries_run ON log_entries(run_id, seq);
	`
	_, err := c.conn.ExecContext(ctx, schema)
	return err
}

func (c *SQLiteChronicle) CreateRun(ctx context.Context, nr NewRun) (Run, error) {
	r := Run{ID: uuid.New(), Seed: nr.Seed, City: nr.City, Strategy: nr.Strategy, ContentVersion: nr.ContentVersion, StartedAt: time.Now().UTC().Truncate(time.Second)}
	_, err := c.conn.ExecContext(ctx, `INSERT INTO runs(id, seed, city, strategy, content_version, started_unix) VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID.String(), r.Seed, r.City, r.Strategy, r.ContentVersion, r.StartedAt.Unix())
	if err != nil {
		return Run{}, wrap(err, "insert run")
	}
	return r, nil
}

func (c *SQLiteChronicle) AppendEntry(ctx context.Context, runID uuid.UUID, seq int, e engine.LogEntry) error {
	_, err := c.conn.ExecContext(ctx, `INSERT INTO log_entries(run_id, seq, year, kind, topic, message) VALUES (?, ?, ?, ?, ?, ?)`,
		runID.String(), seq, e.Year, string(e.Kind), string(e.Topic), e.Message)
	return wrap(err, "insert log entry")
}

func (c *SQLiteChronicle) FinishRun(ctx context.Context, runID uuid.UUID, year int, ending engine.Ending) error {
	tx, err := c.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	res, err := tx.ExecContext(ctx, `UPDATE runs SET finished_unix = ?, final_year = ?, ending_id = ?, ending_title = ? WHERE id = ?`,
		time.Now().UTC().Unix(), year, ending.ID, ending.Title, runID.String())
	if err != nil {
		return wrap(err, "finish run")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

type runRow struct {
	ID             string        `db:"id"`
	Seed           string        `db:"seed"`
	City           string        `db:"city"`
	Strategy       string        `db:"strategy"`
	ContentVersion string        `db:"content_version"`
	StartedUnix    int64         `db:"started_unix"`
	FinishedUnix   sql.NullInt64 `db:"finished_unix"`
	FinalYear      sql.NullInt64 `db:"final_year"`
	EndingID       sql.NullInt64 `db:"ending_id"`
}

func (c *SQLiteChronicle) Runs(ctx context.Context, limit int) ([]Run, error) {
	var rows []runRow
	err := c.conn.SelectContext(ctx, &rows, `SELECT id, seed, city, strategy, content_version, started_unix, finished_unix, final_year, ending_id
		FROM runs ORDER BY started_unix DESC, rowid DESC LIMIT ?`, clampLimit(limit))
	if err != nil {
		return nil, wrap(err, "list runs")
	}
	out := make([]Run, 0, len(rows))
	for _, row := range rows {
		id, err := uuid.Parse(row.ID)
		if err != nil {
			return nil, wrap(err, "parse run id")
		}
		r := Run{ID: id, Seed: row.Seed, City: row.City, Strategy: row.Strategy, ContentVersion: row.ContentVersion,
			StartedAt: time.Unix(row.StartedUnix, 0).UTC()}
		var finished sql.NullTime
		if row.FinishedUnix.Valid {
			finished = sql.NullTime{Time: time.Unix(row.FinishedUnix.Int64, 0).UTC(), Valid: true}
		}
		fillOutcome(&r, finished, row.FinalYear, row.EndingID)
		out = append(out, r)
	}
	return out, nil
}

type entryRow struct {
	Year    int    `db:"year"`
	Kind    string `db:"kind"`
	Topic   string `db:"topic"`
	Message string `db:"message"`
}

func (c *SQLiteChronicle) Entries(ctx context.Context, runID uuid.UUID) ([]engine.LogEntry, error) {
	var rows []entryRow
	if err := c.conn.SelectContext(ctx, &rows, `SELECT year, kind, topic, message FROM log_entries WHERE run_id = ? ORDER BY seq`, runID.String()); err != nil {
		return nil, wrap(err, "list entries")
	}
	out := make([]engine.LogEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, engine.LogEntry{Year: r.Year, Kind: engine.LogKind(r.Kind), Topic: engine.LogTopic(r.Topic), Message: r.Message})
	}
	return out, nil
}
