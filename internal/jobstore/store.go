// Package jobstore persists video generation jobs in SQLite and guards
// their status lifecycle behind an explicit transition check.
package jobstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// ErrJobNotFound is returned when no job exists for the requested ID
var ErrJobNotFound = errors.New("job not found")

// Job is one video generation request and its current state
type Job struct {
	ID          string    `json:"id"`
	Surah       int       `json:"surah"`
	StartAyah   int       `json:"start_ayah"`
	EndAyah     int       `json:"end_ayah"`
	Reciter     string    `json:"reciter"`
	Translation string    `json:"translation"`
	Background  string    `json:"background"`
	Status      Status    `json:"status"`
	Error       string    `json:"error,omitempty"`
	OutputPath  string    `json:"output_path,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Store persists jobs in a SQLite database
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
	id TEXT PRIMARY KEY,
	surah INTEGER NOT NULL,
	start_ayah INTEGER NOT NULL,
	end_ayah INTEGER NOT NULL,
	reciter TEXT NOT NULL,
	translation TEXT NOT NULL,
	background TEXT NOT NULL,
	status TEXT NOT NULL,
	error TEXT NOT NULL DEFAULT '',
	output_path TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
`

// NewStore opens (creating if needed) the job database at dbPath
func NewStore(dbPath string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create job database directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open job database %s: %w", dbPath, err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create job schema: %w", err)
	}

	logger.Info("job store opened", zap.String("path", dbPath))
	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// Create inserts a new queued job and returns it
func (s *Store) Create(ctx context.Context, surah, startAyah, endAyah int, reciter, translation, background string) (*Job, error) {
	now := time.Now().UTC()
	job := &Job{
		ID:          uuid.NewString(),
		Surah:       surah,
		StartAyah:   startAyah,
		EndAyah:     endAyah,
		Reciter:     reciter,
		Translation: translation,
		Background:  background,
		Status:      StatusQueued,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs (id, surah, start_ayah, end_ayah, reciter, translation, background, status, error, output_path, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, '', '', ?, ?)`,
		job.ID, job.Surah, job.StartAyah, job.EndAyah, job.Reciter, job.Translation, job.Background,
		string(job.Status), now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("failed to insert job: %w", err)
	}

	s.logger.Info("job created",
		zap.String("job_id", job.ID),
		zap.Int("surah", surah),
		zap.Int("start_ayah", startAyah),
		zap.Int("end_ayah", endAyah))
	return job, nil
}

// Get returns the job with the given ID
func (s *Store) Get(ctx context.Context, id string) (*Job, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, surah, start_ayah, end_ayah, reciter, translation, background, status, error, output_path, created_at, updated_at
		 FROM jobs WHERE id = ?`, id)
	return scanJob(row)
}

// List returns the most recently created jobs, newest first
func (s *Store) List(ctx context.Context, limit int) ([]*Job, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, surah, start_ayah, end_ayah, reciter, translation, background, status, error, output_path, created_at, updated_at
		 FROM jobs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// MarkProcessing transitions a queued job to processing
func (s *Store) MarkProcessing(ctx context.Context, id string) error {
	return s.transition(ctx, id, StatusProcessing, "", "")
}

// MarkCompleted transitions a processing job to completed, recording the
// output path
func (s *Store) MarkCompleted(ctx context.Context, id, outputPath string) error {
	return s.transition(ctx, id, StatusCompleted, "", outputPath)
}

// MarkFailed transitions a job to failed, recording the error message
func (s *Store) MarkFailed(ctx context.Context, id, message string) error {
	return s.transition(ctx, id, StatusFailed, message, "")
}

// transition is the single path for status changes; every move is validated
// against the current stored status inside one transaction
func (s *Store) transition(ctx context.Context, id string, next Status, errMsg, outputPath string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var current string
	if err := tx.QueryRowContext(ctx, `SELECT status FROM jobs WHERE id = ?`, id).Scan(&current); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("job %s: %w", id, ErrJobNotFound)
		}
		return fmt.Errorf("failed to read job status: %w", err)
	}

	if err := checkTransition(Status(current), next); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE jobs SET status = ?, error = ?, output_path = ?, updated_at = ? WHERE id = ?`,
		string(next), errMsg, outputPath, time.Now().UTC().Format(time.RFC3339Nano), id)
	if err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit status transition: %w", err)
	}

	s.logger.Info("job status changed",
		zap.String("job_id", id),
		zap.String("from", current),
		zap.String("to", string(next)))
	return nil
}

// scanner covers both *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

func scanJob(row scanner) (*Job, error) {
	var job Job
	var status, createdAt, updatedAt string
	err := row.Scan(&job.ID, &job.Surah, &job.StartAyah, &job.EndAyah,
		&job.Reciter, &job.Translation, &job.Background,
		&status, &job.Error, &job.OutputPath, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan job row: %w", err)
	}

	job.Status = Status(status)
	if job.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse job created_at: %w", err)
	}
	if job.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse job updated_at: %w", err)
	}
	return &job, nil
}
