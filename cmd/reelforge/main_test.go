package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"reelforge/internal/api"
	"reelforge/internal/logging"
	"reelforge/internal/services"
)

func TestPresetsCommandListsBuiltins(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := env.run(t, "presets")
	if err != nil {
		t.Fatalf("presets: %v", err)
	}
	for _, name := range []string{"sentences (default)", "windowed", "logo", "landscape", "10 words", "720x1280@25"} {
		if !strings.Contains(out, name) {
			t.Fatalf("expected %q in output:\n%s", name, out)
		}
	}

	out, err = env.run(t, "--json", "presets")
	if err != nil {
		t.Fatalf("presets --json: %v", err)
	}
	var payload struct {
		Default string `json:"default"`
		Presets []struct {
			Name string `json:"name"`
		} `json:"presets"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if payload.Default != "sentences" || len(payload.Presets) != 4 {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestJobsCommandFallsBackToDatabase(t *testing.T) {
	env := setupCLITestEnv(t)
	env.seedJobs(t)

	out, err := env.run(t, "jobs")
	if err != nil {
		t.Fatalf("jobs: %v", err)
	}
	if !strings.Contains(out, "aaaaaaaaaaaa") || !strings.Contains(out, "Processing") || !strings.Contains(out, "Failed") {
		t.Fatalf("unexpected jobs output:\n%s", out)
	}
	if !strings.Contains(out, "Source: database") {
		t.Fatalf("expected database source:\n%s", out)
	}

	out, err = env.run(t, "--json", "jobs", "--status", "failed")
	if err != nil {
		t.Fatalf("jobs --json: %v", err)
	}
	var list api.JobListResponse
	if err := json.Unmarshal([]byte(out), &list); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(list.Jobs) != 1 || list.Jobs[0].ErrorKind != "download" {
		t.Fatalf("unexpected filtered jobs %+v", list.Jobs)
	}

	if _, err := env.run(t, "jobs", "--status", "exploded"); err == nil {
		t.Fatal("expected unknown status to fail")
	}
}

func TestJobCommandShowsDetail(t *testing.T) {
	env := setupCLITestEnv(t)
	env.seedJobs(t)

	out, err := env.run(t, "job", "bbbbbbbbbbbbbbbb2222")
	if err != nil {
		t.Fatalf("job: %v", err)
	}
	if !strings.Contains(out, "[download] media returned 404") || !strings.Contains(out, "hi-IN") {
		t.Fatalf("unexpected detail:\n%s", out)
	}

	if _, err := env.run(t, "job", "missing"); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestStatusCommandJSON(t *testing.T) {
	env := setupCLITestEnv(t)
	env.seedJobs(t)

	out, err := env.run(t, "--json", "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	var report struct {
		Daemon *api.DaemonStatus `json:"daemon"`
		Checks []struct {
			Name string `json:"name"`
		} `json:"checks"`
		Jobs struct {
			Total  int `json:"total"`
			Failed int `json:"failed"`
		} `json:"jobs"`
		Source string `json:"source"`
	}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if report.Daemon != nil {
		t.Fatalf("expected no daemon, got %+v", report.Daemon)
	}
	if report.Jobs.Total != 2 || report.Jobs.Failed != 1 || report.Source != "database" {
		t.Fatalf("unexpected report %+v", report)
	}
	if len(report.Checks) != 6 {
		t.Fatalf("expected 6 checks, got %d", len(report.Checks))
	}
}

func TestWorkdirsCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	env.seedJobs(t)

	old := time.Now().Add(-24 * time.Hour)
	for _, name := range []string{"aaaaaaaaaaaaaaaa1111", "cccccccccccccccc3333"} {
		dir := filepath.Join(env.cfg.Paths.WorkDir, name)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(filepath.Join(dir, "audio.mp3"), make([]byte, 2048), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		if err := os.Chtimes(dir, old, old); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}

	out, err := env.run(t, "workdirs")
	if err != nil {
		t.Fatalf("workdirs: %v", err)
	}
	if !strings.Contains(out, "Total: 2 directories") {
		t.Fatalf("unexpected listing:\n%s", out)
	}

	out, err = env.run(t, "workdirs", "--clean")
	if err != nil {
		t.Fatalf("workdirs --clean: %v", err)
	}
	if !strings.Contains(out, "Removed 1 work directories") {
		t.Fatalf("unexpected clean output:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(env.cfg.Paths.WorkDir, "aaaaaaaaaaaaaaaa1111")); err != nil {
		t.Fatalf("processing job's work dir should survive: %v", err)
	}
}

func TestLogsCommandFiltersByRequest(t *testing.T) {
	env := setupCLITestEnv(t)
	logPath := filepath.Join(env.cfg.Paths.LogDir, logging.LogFileName)
	lines := "INFO render started request_id=abc\nINFO render started request_id=def\nINFO render completed request_id=abc\n"
	if err := os.WriteFile(logPath, []byte(lines), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	out, err := env.run(t, "logs", "--request", "abc")
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if strings.Contains(out, "def") || strings.Count(out, "request_id=abc") != 2 {
		t.Fatalf("unexpected filtered logs:\n%s", out)
	}

	if err := os.Remove(logPath); err != nil {
		t.Fatalf("remove: %v", err)
	}
	out, err = env.run(t, "logs")
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if !strings.Contains(out, "No log entries available") {
		t.Fatalf("expected empty notice, got:\n%s", out)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)
	target := filepath.Join(env.baseDir, "generated", "config.toml")

	out, err := env.run(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Fatalf("expected target path in output: %s", out)
	}
	if _, err := env.run(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected second init without --overwrite to fail")
	}

	out, err = env.run(t, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	if !strings.Contains(out, "Configuration valid") || !strings.Contains(out, env.configPath) {
		t.Fatalf("unexpected validate output: %s", out)
	}
}

func TestSubmitReportsUnreachableDaemon(t *testing.T) {
	env := setupCLITestEnv(t)
	requestPath := filepath.Join(env.baseDir, "request.yaml")
	doc := "language_code: en-US\nvoice_name: en-US-Standard-A\ncontent:\n  - type: image\n    url: https://example.com/a.png\n    text: Hello.\n"
	if err := os.WriteFile(requestPath, []byte(doc), 0o644); err != nil {
		t.Fatalf("write request: %v", err)
	}

	_, err := env.run(t, "submit", requestPath)
	if err == nil || !strings.Contains(err.Error(), "reelforge serve") {
		t.Fatalf("expected unreachable daemon hint, got %v", err)
	}
}

func TestRenderRejectsMissingRequestFile(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, err := env.run(t, "render", filepath.Join(env.baseDir, "missing.yaml")); err == nil {
		t.Fatal("expected missing request file error")
	}
}

func TestExitCodeSeparatesInputErrors(t *testing.T) {
	validation := services.Wrap(services.ErrValidation, "validate", "request", "content is empty", nil)
	if got := exitCode(validation); got != 2 {
		t.Fatalf("expected exit 2 for validation, got %d", got)
	}
	download := services.Wrap(services.ErrDownload, "acquire", "media", "status 404", nil)
	if got := exitCode(download); got != 1 {
		t.Fatalf("expected exit 1 for download, got %d", got)
	}
}

func TestEncodeJSONKeepsURLsReadable(t *testing.T) {
	var buf strings.Builder
	if err := encodeJSON(&buf, map[string]string{"url": "https://cdn.example.com/a.mp4?x=1&y=2"}); err != nil {
		t.Fatalf("encodeJSON: %v", err)
	}
	if !strings.Contains(buf.String(), "x=1&y=2") {
		t.Fatalf("expected unescaped ampersand, got %s", buf.String())
	}
}
