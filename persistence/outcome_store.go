package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/lexcodex/reformat/framework"
)

// OutcomeRecord is one finished format request.
type OutcomeRecord struct {
	ID         int64
	RequestID  string
	Syntax     framework.SyntaxTag
	Scope      string
	Strategy   string
	Outcome    framework.OutcomeKind
	Message    string
	FilePath   string
	Duration   time.Duration
	RecordedAt time.Time
}

// OutcomeStore keeps a history of format outcomes. It is write-only from the
// dispatcher's point of view and never influences formatting.
type OutcomeStore interface {
	Record(ctx context.Context, rec OutcomeRecord) error
	Recent(ctx context.Context, limit int) ([]OutcomeRecord, error)
	Summary(ctx context.Context) (map[framework.OutcomeKind]int, error)
}

// SQLiteOutcomeStore persists outcomes in a SQLite database.
type SQLiteOutcomeStore struct {
	db     *sql.DB
	logger *log.Logger
}

// NewSQLiteOutcomeStore opens/creates the database at dbPath.
func NewSQLiteOutcomeStore(dbPath string, logger *log.Logger) (*SQLiteOutcomeStore, error) {
	if dbPath == "" {
		return nil, errors.New("history database path required")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	// Concurrent dispatches share one writer.
	db.SetMaxOpenConns(1)
	if logger == nil {
		logger = log.Default()
	}
	store := &SQLiteOutcomeStore{db: db, logger: logger}
	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteOutcomeStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS outcomes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		request_id TEXT NOT NULL,
		syntax TEXT,
		scope TEXT,
		strategy TEXT,
		outcome TEXT NOT NULL,
		message TEXT,
		file_path TEXT,
		duration_ns INTEGER,
		recorded_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_outcomes_recorded_at ON outcomes(recorded_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record inserts one outcome row.
func (s *SQLiteOutcomeStore) Record(ctx context.Context, rec OutcomeRecord) error {
	if rec.RequestID == "" {
		return errors.New("request id required")
	}
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO outcomes (request_id, syntax, scope, strategy, outcome, message, file_path, duration_ns, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RequestID, string(rec.Syntax), rec.Scope, rec.Strategy, string(rec.Outcome),
		rec.Message, rec.FilePath, rec.Duration.Nanoseconds(), rec.RecordedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("record outcome: %w", err)
	}
	return nil
}

// Recent returns up to limit outcomes, newest first.
func (s *SQLiteOutcomeStore) Recent(ctx context.Context, limit int) ([]OutcomeRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, request_id, syntax, scope, strategy, outcome, message, file_path, duration_ns, recorded_at
		FROM outcomes ORDER BY recorded_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []OutcomeRecord
	for rows.Next() {
		var (
			rec                  OutcomeRecord
			syntax, outcome      string
			durationNS, recorded int64
		)
		if err := rows.Scan(&rec.ID, &rec.RequestID, &syntax, &rec.Scope, &rec.Strategy, &outcome,
			&rec.Message, &rec.FilePath, &durationNS, &recorded); err != nil {
			return nil, err
		}
		rec.Syntax = framework.SyntaxTag(syntax)
		rec.Outcome = framework.OutcomeKind(outcome)
		rec.Duration = time.Duration(durationNS)
		rec.RecordedAt = time.Unix(0, recorded)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Summary counts stored outcomes per kind.
func (s *SQLiteOutcomeStore) Summary(ctx context.Context) (map[framework.OutcomeKind]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT outcome, COUNT(*) FROM outcomes GROUP BY outcome`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make(map[framework.OutcomeKind]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, err
		}
		counts[framework.OutcomeKind(kind)] = n
	}
	return counts, rows.Err()
}

// Emit implements framework.Telemetry by recording finished requests.
func (s *SQLiteOutcomeStore) Emit(event framework.Event) {
	if event.Type != framework.EventRequestFinished {
		return
	}
	err := s.Record(context.Background(), OutcomeRecord{
		RequestID:  event.RequestID,
		Syntax:     event.Syntax,
		Scope:      event.Scope,
		Strategy:   event.Strategy,
		Outcome:    event.Outcome,
		Message:    event.Message,
		FilePath:   event.FilePath,
		Duration:   event.Duration,
		RecordedAt: event.Timestamp,
	})
	if err != nil {
		s.logger.Printf("(reformat) history: %v", err)
	}
}

// Close releases the database handle.
func (s *SQLiteOutcomeStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
