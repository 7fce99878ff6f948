package journal

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"turntable/internal/config"
	"turntable/internal/services"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped when the schema changes; an old database must be
// cleared (turntable history clear) or deleted.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the
// expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Store manages render attempt persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the journal database under the log
// directory.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.LogDir, "journal.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (run 'turntable history clear' or delete %s)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// Begin records a new render attempt in the planning state.
func (s *Store) Begin(ctx context.Context, renderID, audioPath, outputPath, profile string) (*Record, error) {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO render_attempts (
            render_id, audio_path, output_path, profile, status, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		renderID, audioPath, outputPath, profile, StatusPlanning, timestamp, timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert render attempt: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// SetPlan records the probed duration and planned chunk count.
func (s *Store) SetPlan(ctx context.Context, id int64, durationSeconds float64, chunkCount int) error {
	return s.update(ctx,
		"UPDATE render_attempts SET duration_seconds = ?, chunk_count = ?, updated_at = ? WHERE id = ?",
		durationSeconds, chunkCount, nowStamp(), id,
	)
}

// SetStatus advances the attempt to a non-terminal stage.
func (s *Store) SetStatus(ctx context.Context, id int64, status Status) error {
	if status.Terminal() {
		return fmt.Errorf("use Finish for terminal status %q", status)
	}
	return s.update(ctx,
		"UPDATE render_attempts SET status = ?, updated_at = ? WHERE id = ?",
		status, nowStamp(), id,
	)
}

// Finish closes the attempt. A nil error records success; otherwise the
// failure is stored with its classification label.
func (s *Store) Finish(ctx context.Context, id int64, renderErr error) error {
	stamp := nowStamp()
	if renderErr == nil {
		return s.update(ctx,
			"UPDATE render_attempts SET status = ?, updated_at = ?, completed_at = ? WHERE id = ?",
			StatusSucceeded, stamp, stamp, id,
		)
	}
	return s.update(ctx,
		"UPDATE render_attempts SET status = ?, failure_kind = ?, error_message = ?, updated_at = ?, completed_at = ? WHERE id = ?",
		StatusFailed, services.Classify(renderErr), renderErr.Error(), stamp, stamp, id,
	)
}

// GetByID loads a single attempt.
func (s *Store) GetByID(ctx context.Context, id int64) (*Record, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("render attempt %d not found", id)
	}
	return record, err
}

// List returns the most recent attempts, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, selectColumns+" ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("list render attempts: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// Stats counts attempts per status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT status, COUNT(1) FROM render_attempts GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("journal stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// Clear removes all recorded attempts.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM render_attempts")
	if err != nil {
		return 0, fmt.Errorf("clear journal: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return affected, nil
}

const selectColumns = `SELECT id, render_id, audio_path, output_path, profile,
    duration_seconds, chunk_count, status, failure_kind, error_message,
    created_at, updated_at, completed_at
    FROM render_attempts`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var (
		record      Record
		failureKind sql.NullString
		errMessage  sql.NullString
		createdAt   string
		updatedAt   string
		completedAt sql.NullString
	)
	err := row.Scan(
		&record.ID, &record.RenderID, &record.AudioPath, &record.OutputPath, &record.Profile,
		&record.DurationSeconds, &record.ChunkCount, &record.Status, &failureKind, &errMessage,
		&createdAt, &updatedAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}
	record.FailureKind = failureKind.String
	record.ErrorMessage = errMessage.String
	record.CreatedAt = parseStamp(createdAt)
	record.UpdatedAt = parseStamp(updatedAt)
	if completedAt.Valid {
		stamp := parseStamp(completedAt.String)
		record.CompletedAt = &stamp
	}
	return &record, nil
}

func (s *Store) update(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update render attempt: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return errors.New("render attempt not found")
	}
	return nil
}

func nowStamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func parseStamp(value string) time.Time {
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return parsed
}
