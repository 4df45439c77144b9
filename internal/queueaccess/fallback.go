package queueaccess

import (
	"context"
	"fmt"

	"reelforge/internal/api"
	"reelforge/internal/queue"
)

// Session represents a job access handle and its cleanup function.
type Session struct {
	Access Access
	close  func() error
}

// Close releases resources associated with the session.
func (s Session) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// OpenWithFallback asks the daemon first and falls back to reading the job
// database directly when no daemon answers.
func OpenWithFallback(
	ctx context.Context,
	client *api.Client,
	openStore func() (*queue.Store, error),
) (Session, error) {
	if client != nil {
		if _, err := client.Status(ctx); err == nil {
			return Session{Access: NewAPIAccess(client)}, nil
		}
	}
	store, err := openStore()
	if err != nil {
		return Session{}, fmt.Errorf("open job store: %w", err)
	}
	return Session{
		Access: NewStoreAccess(store),
		close:  store.Close,
	}, nil
}
