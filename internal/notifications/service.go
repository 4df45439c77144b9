package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"reelforge/internal/config"
)

const userAgent = "reelforge/0.1"

// RenderSummary describes a finished render for notification purposes.
type RenderSummary struct {
	RequestID string
	Preset    string
	VideoPath string
	Duration  time.Duration
	Elapsed   time.Duration
	ErrorKind string
	Error     string
}

// Service defines the notification surface used by the daemon.
type Service interface {
	NotifyRenderCompleted(ctx context.Context, summary RenderSummary) error
	NotifyRenderFailed(ctx context.Context, summary RenderSummary) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:  topic,
		client:    &http.Client{Timeout: timeout},
		onSuccess: cfg.Notifications.OnSuccess,
		onFailure: cfg.Notifications.OnFailure,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint  string
	client    *http.Client
	onSuccess bool
	onFailure bool
}

func (n *ntfyService) NotifyRenderCompleted(ctx context.Context, summary RenderSummary) error {
	if !n.onSuccess {
		return nil
	}
	name := filepath.Base(strings.TrimSpace(summary.VideoPath))
	if name == "." || name == "" {
		name = summary.RequestID
	}
	message := fmt.Sprintf("🎬 %s ready (%s", name, formatSeconds(summary.Duration))
	if summary.Preset != "" {
		message += ", " + summary.Preset
	}
	message += ")"
	if summary.Elapsed > 0 {
		message += fmt.Sprintf("\nRendered in %s", summary.Elapsed.Round(time.Second))
	}
	return n.send(ctx, payload{
		title:   "reelforge - Video Ready",
		message: message,
		tags:    []string{"reelforge", "render", "completed"},
	})
}

func (n *ntfyService) NotifyRenderFailed(ctx context.Context, summary RenderSummary) error {
	if !n.onFailure {
		return nil
	}
	kind := strings.TrimSpace(summary.ErrorKind)
	if kind == "" {
		kind = "internal"
	}
	detail := strings.TrimSpace(summary.Error)
	if len(detail) > 300 {
		detail = detail[:300] + "..."
	}
	return n.send(ctx, payload{
		title:    "reelforge - Render Failed",
		message:  fmt.Sprintf("❌ Request %s failed (%s)\n%s", summary.RequestID, kind, detail),
		tags:     []string{"reelforge", "render", "error", kind},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "reelforge - Test",
		message:  "🔔 Notifications are configured",
		tags:     []string{"reelforge", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func formatSeconds(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}

type noopService struct{}

func (noopService) NotifyRenderCompleted(context.Context, RenderSummary) error { return nil }
func (noopService) NotifyRenderFailed(context.Context, RenderSummary) error    { return nil }
func (noopService) TestNotification(context.Context) error                     { return nil }
