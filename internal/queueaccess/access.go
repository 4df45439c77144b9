package queueaccess

import (
	"context"

	"reelforge/internal/api"
	"reelforge/internal/queue"
)

// Access provides job queries regardless of daemon or direct store backing.
type Access interface {
	Stats(ctx context.Context) (queue.HealthSummary, error)
	List(ctx context.Context, limit int, statuses []string) ([]api.Job, error)
	Describe(ctx context.Context, id string) (*api.Job, error)
	Source() string
}

// NewAPIAccess returns an Access backed by the daemon HTTP API.
func NewAPIAccess(client *api.Client) Access {
	return &apiAccess{client: client}
}

// NewStoreAccess returns an Access backed by direct DB access.
func NewStoreAccess(store *queue.Store) Access {
	return &storeAccess{service: api.NewJobService(store)}
}

type apiAccess struct {
	client *api.Client
}

func (a *apiAccess) Stats(ctx context.Context) (queue.HealthSummary, error) {
	status, err := a.client.Status(ctx)
	if err != nil {
		return queue.HealthSummary{}, err
	}
	return status.Jobs, nil
}

func (a *apiAccess) List(ctx context.Context, limit int, statuses []string) ([]api.Job, error) {
	return a.client.Jobs(ctx, limit, statuses)
}

func (a *apiAccess) Describe(ctx context.Context, id string) (*api.Job, error) {
	return a.client.Job(ctx, id)
}

func (a *apiAccess) Source() string { return "daemon" }

type storeAccess struct {
	service *api.JobService
}

func (a *storeAccess) Stats(ctx context.Context) (queue.HealthSummary, error) {
	return a.service.Stats(ctx)
}

func (a *storeAccess) List(ctx context.Context, limit int, statuses []string) ([]api.Job, error) {
	var filters []queue.Status
	for _, s := range statuses {
		if parsed, ok := queue.ParseStatus(s); ok {
			filters = append(filters, parsed)
		}
	}
	return a.service.List(ctx, limit, filters...)
}

func (a *storeAccess) Describe(ctx context.Context, id string) (*api.Job, error) {
	return a.service.Describe(ctx, id)
}

func (a *storeAccess) Source() string { return "database" }
