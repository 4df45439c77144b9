package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrJobNotFound is returned when a transition targets an unknown job.
var ErrJobNotFound = errors.New("job not found")

// Create inserts a pending job for the given request id.
func (s *Store) Create(ctx context.Context, id, preset, languageCode string, itemCount int) (*Job, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("job id is required")
	}
	now := time.Now().UTC()
	_, err := s.exec(ctx,
		`INSERT INTO jobs (id, status, preset, language_code, item_count, progress_item, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, -1, ?, ?)`,
		id, StatusPending, nullableString(preset), nullableString(languageCode), itemCount,
		formatTime(now), formatTime(now),
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	return s.Get(ctx, id)
}

// Get fetches a job by id. It returns nil without error when absent.
func (s *Store) Get(ctx context.Context, id string) (*Job, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+jobColumns+" FROM jobs WHERE id = ?", id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// MarkProcessing records that a worker picked up the job.
func (s *Store) MarkProcessing(ctx context.Context, id string) error {
	now := formatTime(time.Now())
	return s.transition(ctx, id,
		`UPDATE jobs SET status = ?, started_at = ?, updated_at = ? WHERE id = ? AND status = ?`,
		StatusProcessing, now, now, id, StatusPending,
	)
}

// UpdateProgress stores the latest stage report for a running job.
func (s *Store) UpdateProgress(ctx context.Context, id, stage string, item int, message string) error {
	return s.transition(ctx, id,
		`UPDATE jobs SET progress_stage = ?, progress_item = ?, progress_message = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		nullableString(stage), item, nullableString(message), formatTime(time.Now()), id, StatusProcessing,
	)
}

// Complete marks a job finished and records its outputs.
func (s *Store) Complete(ctx context.Context, id, videoPath, thumbnailPath string, duration time.Duration) error {
	now := formatTime(time.Now())
	return s.transition(ctx, id,
		`UPDATE jobs SET status = ?, video_path = ?, thumbnail_path = ?, duration_seconds = ?,
		 progress_message = NULL, finished_at = ?, updated_at = ?
		 WHERE id = ? AND status IN (?, ?)`,
		StatusCompleted, videoPath, thumbnailPath, duration.Seconds(), now, now,
		id, StatusPending, StatusProcessing,
	)
}

// Fail marks a job failed with the error kind reported to clients.
func (s *Store) Fail(ctx context.Context, id, kind, message string) error {
	now := formatTime(time.Now())
	return s.transition(ctx, id,
		`UPDATE jobs SET status = ?, error_kind = ?, error_message = ?, finished_at = ?, updated_at = ?
		 WHERE id = ? AND status IN (?, ?)`,
		StatusFailed, nullableString(kind), nullableString(message), now, now,
		id, StatusPending, StatusProcessing,
	)
}

func (s *Store) transition(ctx context.Context, id, query string, args ...any) error {
	res, err := s.exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update job %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update job %s: %w", id, err)
	}
	if affected == 0 {
		job, getErr := s.Get(ctx, id)
		if getErr != nil {
			return getErr
		}
		if job == nil {
			return fmt.Errorf("%w: %s", ErrJobNotFound, id)
		}
		return fmt.Errorf("job %s is %s", id, job.Status)
	}
	return nil
}

// List returns jobs newest first, optionally filtered by status.
func (s *Store) List(ctx context.Context, limit int, statuses ...Status) ([]*Job, error) {
	query := "SELECT " + jobColumns + " FROM jobs"
	args := make([]any, 0, len(statuses)+1)
	if len(statuses) > 0 {
		query += " WHERE status IN (" + makePlaceholders(len(statuses)) + ")"
		for _, status := range statuses {
			args = append(args, status)
		}
	}
	query += " ORDER BY created_at DESC, id"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// Stats returns job counts grouped by status.
func (s *Store) Stats(ctx context.Context) (HealthSummary, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM jobs GROUP BY status")
	if err != nil {
		return HealthSummary{}, fmt.Errorf("job stats: %w", err)
	}
	defer rows.Close()

	var summary HealthSummary
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return HealthSummary{}, err
		}
		summary.Total += count
		switch Status(status) {
		case StatusPending:
			summary.Pending = count
		case StatusProcessing:
			summary.Processing = count
		case StatusCompleted:
			summary.Completed = count
		case StatusFailed:
			summary.Failed = count
		}
	}
	return summary, rows.Err()
}

// FailInterrupted marks jobs left pending or processing by a previous daemon
// as failed. It returns the number of rows updated.
func (s *Store) FailInterrupted(ctx context.Context) (int64, error) {
	now := formatTime(time.Now())
	res, err := s.exec(ctx,
		`UPDATE jobs SET status = ?, error_kind = 'internal', error_message = ?, finished_at = ?, updated_at = ?
		 WHERE status IN (?, ?)`,
		StatusFailed, DaemonStopReason, now, now, StatusPending, StatusProcessing,
	)
	if err != nil {
		return 0, fmt.Errorf("fail interrupted jobs: %w", err)
	}
	return res.RowsAffected()
}

// Purge deletes finished jobs older than the cutoff and returns the count.
func (s *Store) Purge(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.exec(ctx,
		`DELETE FROM jobs WHERE status IN (?, ?) AND finished_at IS NOT NULL AND finished_at < ?`,
		StatusCompleted, StatusFailed, formatTime(before),
	)
	if err != nil {
		return 0, fmt.Errorf("purge jobs: %w", err)
	}
	return res.RowsAffected()
}
