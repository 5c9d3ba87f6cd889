// Package storage provides SQLite-based persistence for simulation runs.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/vovakirdan/nodewar/internal/digest"
	"github.com/vovakirdan/nodewar/internal/runner"
	"github.com/vovakirdan/nodewar/internal/tick"
	"github.com/vovakirdan/nodewar/internal/world"
)

// ErrRunNotFound is returned when a run id has no record.
var ErrRunNotFound = errors.New("storage: run not found")

// Store manages the SQLite database connection for run persistence.
type Store struct {
	db *sql.DB
}

// Run is one recorded simulation of a world.
type Run struct {
	ID          string
	WorldID     string
	Scenario    string
	StartedTick uint64
	LastTick    uint64 // Highest tick with a digest; equals StartedTick before any tick is saved
	TickCount   int
	CreatedAt   time.Time
}

// TickDigest is the state fingerprint recorded after a tick.
type TickDigest struct {
	Tick   uint64
	Digest string
	Events int
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			world_id TEXT NOT NULL,
			scenario TEXT NOT NULL DEFAULT '',
			started_tick INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(run_id),
			seq INTEGER NOT NULL,
			tick INTEGER NOT NULL,
			type TEXT NOT NULL,
			entity_id TEXT NOT NULL,
			data TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_events_run_tick ON events(run_id, tick, seq);
		CREATE INDEX IF NOT EXISTS idx_events_run_entity ON events(run_id, entity_id);

		CREATE TABLE IF NOT EXISTS digests (
			run_id TEXT NOT NULL REFERENCES runs(run_id),
			tick INTEGER NOT NULL,
			digest TEXT NOT NULL,
			event_count INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (run_id, tick)
		);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// CreateRun records the start of a run and returns its generated id.
func (s *Store) CreateRun(w *world.World, scenario string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(
		"INSERT INTO runs (run_id, world_id, scenario, started_tick) VALUES (?, ?, ?, ?)",
		id, w.ID, scenario, int64(w.CurrentTick),
	)
	if err != nil {
		return "", fmt.Errorf("storage: cannot create run: %w", err)
	}
	return id, nil
}

// SaveTick stores the processed events and the resulting state digest of
// one tick in a single transaction. A paused tick (no events, world not
// advanced) is still recorded. Saving a tick again replaces what was stored
// for it.
func (s *Store) SaveTick(runID string, res tick.Result) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("storage: cannot begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		"DELETE FROM events WHERE run_id = ? AND tick = ?",
		runID, int64(res.ProcessedTick),
	); err != nil {
		return fmt.Errorf("storage: cannot clear tick events: %w", err)
	}

	stmt, err := tx.Prepare(
		"INSERT INTO events (run_id, seq, tick, type, entity_id, data) VALUES (?, ?, ?, ?, ?, ?)",
	)
	if err != nil {
		return fmt.Errorf("storage: cannot prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range res.Events {
		var data any
		if len(e.Data) > 0 {
			raw, err := json.Marshal(e.Data)
			if err != nil {
				return fmt.Errorf("storage: cannot encode event data: %w", err)
			}
			data = string(raw)
		}
		if _, err := stmt.Exec(runID, i, int64(e.Tick), string(e.Type), e.EntityID, data); err != nil {
			return fmt.Errorf("storage: cannot save event: %w", err)
		}
	}

	_, err = tx.Exec(
		`INSERT INTO digests (run_id, tick, digest, event_count) VALUES (?, ?, ?, ?)
		 ON CONFLICT(run_id, tick) DO UPDATE SET digest = excluded.digest, event_count = excluded.event_count`,
		runID, int64(res.ProcessedTick), digest.State(res.World), len(res.Events),
	)
	if err != nil {
		return fmt.Errorf("storage: cannot save digest: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: cannot commit tick: %w", err)
	}
	return nil
}

// Ensure Store implements runner.TickSaver
var _ runner.TickSaver = (*Store)(nil)

// EventsInRange returns the events of a run with from <= tick <= to, in the
// order they were processed.
func (s *Store) EventsInRange(runID string, from, to uint64) ([]world.GameEvent, error) {
	rows, err := s.db.Query(
		`SELECT tick, type, entity_id, data
		 FROM events
		 WHERE run_id = ? AND tick BETWEEN ? AND ?
		 ORDER BY tick, seq`,
		runID, int64(from), int64(to),
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query events: %w", err)
	}
	return scanEvents(rows)
}

// EventsForEntity returns every event of a run whose entity is entityID.
func (s *Store) EventsForEntity(runID, entityID string) ([]world.GameEvent, error) {
	rows, err := s.db.Query(
		`SELECT tick, type, entity_id, data
		 FROM events
		 WHERE run_id = ? AND entity_id = ?
		 ORDER BY tick, seq`,
		runID, entityID,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query events: %w", err)
	}
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]world.GameEvent, error) {
	defer rows.Close()

	var evts []world.GameEvent
	for rows.Next() {
		var (
			e    world.GameEvent
			tick int64
			typ  string
			data sql.NullString
		)
		if err := rows.Scan(&tick, &typ, &e.EntityID, &data); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		e.Tick = uint64(tick)
		e.Type = world.EventType(typ)
		if data.Valid && data.String != "" {
			if err := json.Unmarshal([]byte(data.String), &e.Data); err != nil {
				return nil, fmt.Errorf("storage: cannot decode event data: %w", err)
			}
		}
		evts = append(evts, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return evts, nil
}

// Digests returns the recorded digests of a run, ordered by tick.
func (s *Store) Digests(runID string) ([]TickDigest, error) {
	rows, err := s.db.Query(
		`SELECT tick, digest, event_count FROM digests WHERE run_id = ? ORDER BY tick`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query digests: %w", err)
	}
	defer rows.Close()

	var out []TickDigest
	for rows.Next() {
		var d TickDigest
		var tick int64
		if err := rows.Scan(&tick, &d.Digest, &d.Events); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		d.Tick = uint64(tick)
		out = append(out, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return out, nil
}

const runColumns = `
	SELECT r.run_id, r.world_id, r.scenario, r.started_tick, r.created_at,
	       COALESCE(MAX(d.tick), r.started_tick), COUNT(d.tick)
	FROM runs r
	LEFT JOIN digests d ON d.run_id = r.run_id`

// Runs returns the most recent runs first.
func (s *Store) Runs(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		runColumns+`
		 GROUP BY r.run_id
		 ORDER BY r.created_at DESC, r.rowid DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return runs, nil
}

// RunByID retrieves a run by its id.
func (s *Store) RunByID(runID string) (*Run, error) {
	row := s.db.QueryRow(runColumns+`
		 WHERE r.run_id = ?
		 GROUP BY r.run_id`, runID)

	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		r         Run
		started   int64
		last      int64
		createdAt any
	)
	err := sc.Scan(&r.ID, &r.WorldID, &r.Scenario, &started, &createdAt, &last, &r.TickCount)
	if errors.Is(err, sql.ErrNoRows) {
		return r, err
	}
	if err != nil {
		return r, fmt.Errorf("storage: cannot scan run: %w", err)
	}
	r.StartedTick = uint64(started)
	r.LastTick = uint64(last)
	r.CreatedAt = parseTime(createdAt)
	return r, nil
}

// parseTime handles both time.Time and string datetimes from the driver.
func parseTime(v any) time.Time {
	switch v := v.(type) {
	case time.Time:
		return v
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", v); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
