package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a render job.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// DaemonStopReason is recorded on jobs interrupted by a daemon restart.
const DaemonStopReason = "daemon stopped before the job finished"

var allStatuses = []Status{StatusPending, StatusProcessing, StatusCompleted, StatusFailed}

// AllStatuses returns every known status in lifecycle order.
func AllStatuses() []Status {
	return append([]Status(nil), allStatuses...)
}

// ParseStatus converts user input into a Status.
func ParseStatus(value string) (Status, bool) {
	candidate := Status(strings.ToLower(strings.TrimSpace(value)))
	for _, status := range allStatuses {
		if status == candidate {
			return status, true
		}
	}
	return "", false
}

// IsTerminal reports whether the job can no longer change.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job is one render request as seen by operators.
type Job struct {
	ID              string     `json:"id"`
	Status          Status     `json:"status"`
	Preset          string     `json:"preset,omitempty"`
	LanguageCode    string     `json:"language_code,omitempty"`
	ItemCount       int        `json:"item_count"`
	ProgressStage   string     `json:"progress_stage,omitempty"`
	ProgressItem    int        `json:"progress_item"`
	ProgressMessage string     `json:"progress_message,omitempty"`
	VideoPath       string     `json:"video_path,omitempty"`
	ThumbnailPath   string     `json:"thumbnail_path,omitempty"`
	DurationSeconds float64    `json:"duration_seconds,omitempty"`
	ErrorKind       string     `json:"error_kind,omitempty"`
	ErrorMessage    string     `json:"error_message,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	FinishedAt      *time.Time `json:"finished_at,omitempty"`
}

// Elapsed reports how long the job ran, or has been running, as of now.
func (j *Job) Elapsed(now time.Time) time.Duration {
	if j == nil || j.StartedAt == nil {
		return 0
	}
	end := now
	if j.FinishedAt != nil {
		end = *j.FinishedAt
	}
	if end.Before(*j.StartedAt) {
		return 0
	}
	return end.Sub(*j.StartedAt)
}

// HealthSummary aggregates job counts by lifecycle state.
type HealthSummary struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
}
