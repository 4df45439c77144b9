package queueaccess_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"reelforge/internal/api"
	"reelforge/internal/queue"
	"reelforge/internal/queueaccess"
	"reelforge/internal/testsupport"
)

func TestOpenWithFallbackUsesStoreWhenDaemonDown(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	seed := testsupport.MustOpenStore(t, cfg)
	testsupport.NewJob(t, seed, "job-a", "sentences")

	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()
	client, _ := api.NewClient(addr, "")

	session, err := queueaccess.OpenWithFallback(context.Background(), client, func() (*queue.Store, error) {
		return queue.Open(cfg)
	})
	if err != nil {
		t.Fatalf("OpenWithFallback: %v", err)
	}
	defer session.Close()

	if session.Access.Source() != "database" {
		t.Fatalf("expected database access, got %s", session.Access.Source())
	}
	jobs, err := session.Access.List(context.Background(), 0, []string{"pending", "bogus"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(jobs) != 1 || jobs[0].ID != "job-a" {
		t.Fatalf("unexpected jobs %+v", jobs)
	}
	job, err := session.Access.Describe(context.Background(), "job-a")
	if err != nil || job == nil {
		t.Fatalf("Describe: %+v %v", job, err)
	}
}

func TestOpenWithFallbackPrefersDaemon(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/status":
			_ = json.NewEncoder(w).Encode(api.DaemonStatus{Running: true, Jobs: queue.HealthSummary{Total: 4, Completed: 4}})
		case "/api/jobs":
			_ = json.NewEncoder(w).Encode(api.JobListResponse{Jobs: []api.Job{{ID: "remote"}}})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	client, _ := api.NewClient(srv.URL, "")

	session, err := queueaccess.OpenWithFallback(context.Background(), client, func() (*queue.Store, error) {
		t.Fatal("store should not be opened when daemon answers")
		return nil, nil
	})
	if err != nil {
		t.Fatalf("OpenWithFallback: %v", err)
	}
	if session.Access.Source() != "daemon" {
		t.Fatalf("expected daemon access, got %s", session.Access.Source())
	}
	stats, err := session.Access.Stats(context.Background())
	if err != nil || stats.Completed != 4 {
		t.Fatalf("unexpected stats %+v %v", stats, err)
	}
	jobs, err := session.Access.List(context.Background(), 0, nil)
	if err != nil || len(jobs) != 1 || jobs[0].ID != "remote" {
		t.Fatalf("unexpected jobs %+v %v", jobs, err)
	}
}
