package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"reelforge/internal/content"
	"reelforge/internal/fileutil"
	"reelforge/internal/logging"
	"reelforge/internal/services"
)

// Kind identifies what a downloaded asset will be used for.
type Kind string

const (
	KindVideo   Kind = "video"
	KindImage   Kind = "image"
	KindLogo    Kind = "logo"
	KindOverlay Kind = "overlay"
	KindMusic   Kind = "music"
)

const defaultRetryBaseDelay = 500 * time.Millisecond

// Options bounds every download.
type Options struct {
	Timeout       time.Duration
	LogoTimeout   time.Duration
	RetryAttempts int
	MaxBytes      int64
	UserAgent     string
	AllowLocal    bool
}

// StatusError reports a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: http %d", e.URL, e.StatusCode)
}

// Option customizes the acquirer.
type Option func(*Acquirer)

// WithHTTPClient overrides the transport client. Per-kind timeouts are still
// applied through the request context.
func WithHTTPClient(client *http.Client) Option {
	return func(a *Acquirer) {
		if client != nil {
			a.client = client
		}
	}
}

// WithSleeper overrides retry sleeps (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(a *Acquirer) {
		a.sleeper = sleeper
	}
}

// Acquirer downloads remote assets, or copies local ones in batch mode, into a
// request work directory. It is safe for concurrent use.
type Acquirer struct {
	opts    Options
	client  *http.Client
	logger  *slog.Logger
	sleeper func(time.Duration)
}

// New constructs an acquirer.
func New(opts Options, logger *slog.Logger, options ...Option) *Acquirer {
	if logger == nil {
		logger = logging.NewNop()
	}
	if opts.RetryAttempts < 0 {
		opts.RetryAttempts = 0
	}
	a := &Acquirer{
		opts:   opts,
		client: &http.Client{},
		logger: logger,
	}
	for _, opt := range options {
		opt(a)
	}
	return a
}

// Fetch stores source under dir as name plus an extension derived from the
// URL or kind, returning the written path. Failures carry services.ErrDownload.
func (a *Acquirer) Fetch(ctx context.Context, source string, kind Kind, dir, name string) (string, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return "", services.Wrap(services.ErrDownload, "acquire", string(kind), "empty source", nil)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", services.Wrap(services.ErrDownload, "acquire", string(kind), "create work dir", err)
	}
	dest := filepath.Join(dir, name+Extension(source, kind))

	if content.IsLocal(source) {
		if !a.opts.AllowLocal {
			return "", services.Wrap(services.ErrDownload, "acquire", string(kind), "local files are not allowed: "+source, nil)
		}
		if err := fileutil.CopyFile(content.LocalPath(source), dest); err != nil {
			return "", services.Wrap(services.ErrDownload, "acquire", string(kind), "copy "+source, err)
		}
		return dest, nil
	}

	timeout := a.opts.Timeout
	if kind == KindLogo && a.opts.LogoTimeout > 0 {
		timeout = a.opts.LogoTimeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	started := time.Now()
	attempts := a.opts.RetryAttempts + 1
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		written, err := a.download(ctx, source, dest)
		if err == nil {
			logging.WithContext(ctx, a.logger).Debug("asset downloaded",
				logging.String("kind", string(kind)),
				logging.String("url", source),
				logging.Int64("bytes", written),
				logging.Duration("elapsed", time.Since(started)),
			)
			return dest, nil
		}
		lastErr = err
		_ = os.Remove(dest)
		if attempt == attempts || !retryable(ctx, err) {
			break
		}
		if err := a.sleep(ctx, defaultRetryBaseDelay*time.Duration(1<<(attempt-1))); err != nil {
			lastErr = err
			break
		}
	}

	if errors.Is(lastErr, context.DeadlineExceeded) {
		return "", services.Wrap(services.ErrTimeout, "acquire", string(kind), source,
			fmt.Errorf("%w: %w", services.ErrDownload, lastErr))
	}
	return "", services.Wrap(services.ErrDownload, "acquire", string(kind), source, lastErr)
}

func (a *Acquirer) download(ctx context.Context, source, dest string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return 0, fmt.Errorf("new request: %w", err)
	}
	if a.opts.UserAgent != "" {
		req.Header.Set("User-Agent", a.opts.UserAgent)
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return 0, &StatusError{URL: source, StatusCode: resp.StatusCode}
	}
	if a.opts.MaxBytes > 0 && resp.ContentLength > a.opts.MaxBytes {
		return 0, fmt.Errorf("content length %d exceeds limit %d", resp.ContentLength, a.opts.MaxBytes)
	}

	out, err := os.Create(dest)
	if err != nil {
		return 0, err
	}
	defer out.Close()

	var body io.Reader = resp.Body
	if a.opts.MaxBytes > 0 {
		body = io.LimitReader(resp.Body, a.opts.MaxBytes+1)
	}
	written, err := io.Copy(out, body)
	if err != nil {
		return written, fmt.Errorf("read body: %w", err)
	}
	if a.opts.MaxBytes > 0 && written > a.opts.MaxBytes {
		return written, fmt.Errorf("body exceeds limit %d", a.opts.MaxBytes)
	}
	if written == 0 {
		return 0, errors.New("empty response body")
	}
	return written, out.Close()
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusTooManyRequests || statusErr.StatusCode >= http.StatusInternalServerError
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

func (a *Acquirer) sleep(ctx context.Context, delay time.Duration) error {
	if a.sleeper != nil {
		a.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

var knownExtensions = map[string]bool{
	".mp4": true, ".mov": true, ".webm": true, ".mkv": true, ".m4v": true,
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true, ".bmp": true,
	".mp3": true, ".wav": true, ".m4a": true, ".aac": true, ".ogg": true, ".flac": true,
}

// Extension returns the file extension for source, falling back to a default
// per kind when the URL path carries none that is recognised.
func Extension(source string, kind Kind) string {
	p := source
	if parsed, err := url.Parse(source); err == nil && parsed.Scheme != "" && len(parsed.Scheme) > 1 {
		p = parsed.Path
	}
	ext := strings.ToLower(path.Ext(p))
	if knownExtensions[ext] {
		return ext
	}
	switch kind {
	case KindVideo:
		return ".mp4"
	case KindMusic:
		return ".mp3"
	default:
		return ".png"
	}
}
