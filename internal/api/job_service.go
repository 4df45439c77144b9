package api

import (
	"context"
	"time"

	"reelforge/internal/queue"
)

// JobReader abstracts job persistence interactions needed for API queries.
type JobReader interface {
	List(ctx context.Context, limit int, statuses ...queue.Status) ([]*queue.Job, error)
	Stats(ctx context.Context) (queue.HealthSummary, error)
	Get(ctx context.Context, id string) (*queue.Job, error)
}

// JobService exposes read-only job operations returning API DTOs.
type JobService struct {
	store JobReader
	now   func() time.Time
}

// NewJobService constructs a JobService around the provided reader.
func NewJobService(store JobReader) *JobService {
	if store == nil {
		return nil
	}
	return &JobService{store: store, now: time.Now}
}

// List returns jobs newest first, filtered by status.
func (s *JobService) List(ctx context.Context, limit int, statuses ...queue.Status) ([]Job, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	jobs, err := s.store.List(ctx, limit, statuses...)
	if err != nil {
		return nil, err
	}
	return FromJobs(jobs, s.now()), nil
}

// Stats returns job counts by status.
func (s *JobService) Stats(ctx context.Context) (queue.HealthSummary, error) {
	if s == nil || s.store == nil {
		return queue.HealthSummary{}, nil
	}
	return s.store.Stats(ctx)
}

// Describe fetches a single job, or nil when it does not exist.
func (s *JobService) Describe(ctx context.Context, id string) (*Job, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	job, err := s.store.Get(ctx, id)
	if err != nil || job == nil {
		return nil, err
	}
	dto := FromJob(job, s.now())
	return &dto, nil
}
