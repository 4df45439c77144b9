package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"reelforge/internal/config"
	"reelforge/internal/deps"
	"reelforge/internal/services/googletts"
)

const speechCheckTimeout = 15 * time.Second

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSystemDeps evaluates the encoder binaries named by the config. Both
// the daemon and the CLI status command use this list.
func CheckSystemDeps(_ context.Context, cfg *config.Config) []deps.Status {
	return deps.CheckBinaries(deps.EncoderRequirements(cfg.Encoder.FFmpegBinary, cfg.Encoder.FFprobeBinary))
}

// CheckSpeech verifies that the speech provider is reachable and accepts the
// configured credentials by listing voices for languageCode. It uses a
// single attempt.
func CheckSpeech(ctx context.Context, cfg *config.Config, languageCode string, opts ...googletts.Option) Result {
	const name = "Speech provider"
	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	if err := cfg.RequireSpeechCredentials(); err != nil {
		return Result{Name: name, Detail: "credentials missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, speechCheckTimeout)
	defer cancel()

	client, err := googletts.NewClient(checkCtx, googletts.Config{
		APIKey:          cfg.Speech.APIKey,
		CredentialsFile: cfg.Speech.CredentialsFile,
		BaseURL:         cfg.Speech.BaseURL,
		AudioEncoding:   cfg.Speech.AudioEncoding,
		TimeoutSeconds:  int(speechCheckTimeout / time.Second),
		RetryAttempts:   0,
	}, opts...)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	voices, err := client.ListVoices(checkCtx, languageCode)
	if err != nil {
		return Result{Name: name, Detail: summarizeSpeechError(err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("reachable (%d voices for %s)", len(voices), languageCode)}
}

func summarizeSpeechError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "voice listing timed out (speech API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "voice listing timed out (speech API unreachable)"
	}
	var statusErr *googletts.StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case 401, 403:
			return "auth failed (check api key or service account)"
		default:
			return fmt.Sprintf("voice listing failed (%d)", statusErr.StatusCode)
		}
	}
	return err.Error()
}
