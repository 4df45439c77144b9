package api

import "reelforge/internal/queue"

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// RenderResponse is returned by a successful POST /api/videos.
type RenderResponse struct {
	RequestID       string  `json:"request_id"`
	Preset          string  `json:"preset"`
	VideoPath       string  `json:"video_path"`
	ThumbnailPath   string  `json:"thumbnail_path"`
	VideoURL        string  `json:"video_url,omitempty"`
	ThumbnailURL    string  `json:"thumbnail_url,omitempty"`
	DurationSeconds float64 `json:"duration_seconds"`
	Segments        int     `json:"segments"`
	Message         string  `json:"message"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Job describes a render job in a transport-friendly format.
type Job struct {
	ID              string      `json:"id"`
	Status          string      `json:"status"`
	Preset          string      `json:"preset,omitempty"`
	LanguageCode    string      `json:"language_code,omitempty"`
	ItemCount       int         `json:"item_count"`
	Progress        JobProgress `json:"progress"`
	VideoPath       string      `json:"video_path,omitempty"`
	ThumbnailPath   string      `json:"thumbnail_path,omitempty"`
	DurationSeconds float64     `json:"duration_seconds,omitempty"`
	ErrorKind       string      `json:"error_kind,omitempty"`
	ErrorMessage    string      `json:"error_message,omitempty"`
	CreatedAt       string      `json:"created_at,omitempty"`
	UpdatedAt       string      `json:"updated_at,omitempty"`
	StartedAt       string      `json:"started_at,omitempty"`
	FinishedAt      string      `json:"finished_at,omitempty"`
	ElapsedSeconds  float64     `json:"elapsed_seconds,omitempty"`
}

// JobProgress captures the latest stage report for a job.
type JobProgress struct {
	Stage   string `json:"stage,omitempty"`
	Item    int    `json:"item"`
	Message string `json:"message,omitempty"`
}

// JobListResponse wraps a collection of jobs.
type JobListResponse struct {
	Jobs []Job `json:"jobs"`
}

// JobResponse wraps a single job.
type JobResponse struct {
	Job Job `json:"job"`
}

// CheckResult mirrors a preflight result.
type CheckResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool                `json:"running"`
	PID          int                 `json:"pid"`
	Bind         string              `json:"bind"`
	QueueDBPath  string              `json:"queue_db_path"`
	LockFilePath string              `json:"lock_file_path"`
	ActiveJobs   int                 `json:"active_jobs"`
	MaxJobs      int                 `json:"max_jobs"`
	Jobs         queue.HealthSummary `json:"jobs"`
	Presets      []string            `json:"presets"`
	Checks       []CheckResult       `json:"checks"`
}

// Event is pushed to job event stream subscribers.
type Event struct {
	Type      string  `json:"type"`
	RequestID string  `json:"request_id"`
	Stage     string  `json:"stage,omitempty"`
	Item      int     `json:"item"`
	Items     int     `json:"items,omitempty"`
	Message   string  `json:"message,omitempty"`
	Status    string  `json:"status,omitempty"`
	ErrorKind string  `json:"error_kind,omitempty"`
	Duration  float64 `json:"duration_seconds,omitempty"`
	Timestamp string  `json:"timestamp"`
}

// Event types.
const (
	EventAccepted  = "accepted"
	EventProgress  = "progress"
	EventCompleted = "completed"
	EventFailed    = "failed"
)
