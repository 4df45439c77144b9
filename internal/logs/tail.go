package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

const pollInterval = 250 * time.Millisecond

// TailOptions controls a single Tail call. A negative Offset reads the last
// Limit lines; otherwise reading resumes at Offset. Match keeps only lines
// containing it (a request id, for instance) and is applied before Limit, so
// Limit counts matching lines.
type TailOptions struct {
	Offset int64
	Limit  int
	Follow bool
	Wait   time.Duration
	Match  string
}

// TailResult carries the lines read and the offset to resume from.
type TailResult struct {
	Lines  []string
	Offset int64
}

// Tail reads the log file at path according to opts. With Follow set and
// nothing new to report it polls for up to Wait before returning empty.
// A file shorter than Offset was rotated or truncated and is read from the
// start.
func Tail(ctx context.Context, path string, opts TailOptions) (TailResult, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return TailResult{}, nil
	}
	if err != nil {
		return TailResult{Offset: opts.Offset}, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return TailResult{Offset: opts.Offset}, fmt.Errorf("log path %q is a directory", path)
	}

	start, limit := opts.Offset, 0
	switch {
	case start < 0 && opts.Limit <= 0:
		start = info.Size()
	case start < 0:
		start, limit = 0, opts.Limit
	case start > info.Size():
		start = 0
	}

	keep := matcher(opts.Match)
	deadline := time.Now().Add(max(opts.Wait, 0))
	for {
		lines, next, err := readLines(path, start, limit, keep)
		if err != nil {
			return TailResult{Offset: start}, err
		}
		if len(lines) > 0 || !opts.Follow || !time.Now().Before(deadline) {
			return TailResult{Lines: lines, Offset: next}, nil
		}
		start, limit = next, 0
		select {
		case <-ctx.Done():
			return TailResult{Offset: start}, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

func matcher(match string) func(string) bool {
	match = strings.TrimSpace(match)
	if match == "" {
		return func(string) bool { return true }
	}
	return func(line string) bool { return strings.Contains(line, match) }
}

// readLines returns the complete lines after offset that satisfy keep, and
// the offset just past the last complete line. With limit > 0 only the last
// limit kept lines are returned. A trailing line without a newline is left
// for the next call.
func readLines(path string, offset int64, limit int, keep func(string) bool) ([]string, int64, error) {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, offset, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return nil, offset, fmt.Errorf("seek log file: %w", err)
	}

	var (
		lines []string
		ring  []string
		next  int
		count int
	)
	if limit > 0 {
		ring = make([]string, limit)
	}
	reader := bufio.NewReaderSize(file, 64*1024)
	pos := offset
	for {
		raw, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, offset, fmt.Errorf("read log file: %w", err)
		}
		pos += int64(len(raw))
		line := strings.TrimRight(raw, "\r\n")
		if !keep(line) {
			continue
		}
		if ring == nil {
			lines = append(lines, line)
			continue
		}
		ring[next] = line
		next = (next + 1) % limit
		count++
	}

	if ring != nil {
		n := min(count, limit)
		lines = make([]string, 0, n)
		for i := range n {
			lines = append(lines, ring[(next-n+i+limit)%limit])
		}
	}
	return lines, pos, nil
}
