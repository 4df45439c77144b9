package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"reelforge/internal/config"
	"reelforge/internal/queue"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	cfg        *config.Config
}

// setupCLITestEnv writes a config whose directories live under a temp dir and
// whose API bind points at a closed port, so commands fall back to the job
// database.
func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))
	t.Setenv("GOOGLE_TTS_API_KEY", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	configPath := filepath.Join(base, "reelforge.toml")
	contents := fmt.Sprintf(`[paths]
work_dir = %q
output_dir = %q
thumbnail_dir = %q
log_dir = %q
state_dir = %q
api_bind = "127.0.0.1:1"

[speech]
api_key = "test"
`,
		filepath.Join(base, "work"),
		filepath.Join(base, "videos"),
		filepath.Join(base, "thumbnails"),
		filepath.Join(base, "logs"),
		filepath.Join(base, "state"),
	)
	if err := os.WriteFile(configPath, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cliTestEnv{baseDir: base, configPath: configPath, cfg: cfg}
}

func (env *cliTestEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (env *cliTestEnv) seedJobs(t *testing.T) {
	t.Helper()
	store, err := queue.Open(env.cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	if _, err := store.Create(ctx, "aaaaaaaaaaaaaaaa1111", "sentences", "en-US", 2); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.MarkProcessing(ctx, "aaaaaaaaaaaaaaaa1111"); err != nil {
		t.Fatalf("mark processing: %v", err)
	}
	if _, err := store.Create(ctx, "bbbbbbbbbbbbbbbb2222", "windowed", "hi-IN", 1); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Fail(ctx, "bbbbbbbbbbbbbbbb2222", "download", "media returned 404"); err != nil {
		t.Fatalf("fail: %v", err)
	}
}
