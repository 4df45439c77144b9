package api

import (
	"time"

	"reelforge/internal/pipeline"
	"reelforge/internal/preflight"
	"reelforge/internal/queue"
)

// FromJob converts a queue job into its transport form.
func FromJob(job *queue.Job, now time.Time) Job {
	if job == nil {
		return Job{}
	}
	dto := Job{
		ID:           job.ID,
		Status:       string(job.Status),
		Preset:       job.Preset,
		LanguageCode: job.LanguageCode,
		ItemCount:    job.ItemCount,
		Progress: JobProgress{
			Stage:   job.ProgressStage,
			Item:    job.ProgressItem,
			Message: job.ProgressMessage,
		},
		VideoPath:       job.VideoPath,
		ThumbnailPath:   job.ThumbnailPath,
		DurationSeconds: job.DurationSeconds,
		ErrorKind:       job.ErrorKind,
		ErrorMessage:    job.ErrorMessage,
		CreatedAt:       FormatTime(job.CreatedAt),
		UpdatedAt:       FormatTime(job.UpdatedAt),
		ElapsedSeconds:  job.Elapsed(now).Seconds(),
	}
	if job.StartedAt != nil {
		dto.StartedAt = FormatTime(*job.StartedAt)
	}
	if job.FinishedAt != nil {
		dto.FinishedAt = FormatTime(*job.FinishedAt)
	}
	return dto
}

// FromJobs converts a slice of jobs, preserving order.
func FromJobs(jobs []*queue.Job, now time.Time) []Job {
	out := make([]Job, 0, len(jobs))
	for _, job := range jobs {
		if job == nil {
			continue
		}
		out = append(out, FromJob(job, now))
	}
	return out
}

// FromResult converts a pipeline result into the render response body.
func FromResult(result pipeline.Result) RenderResponse {
	return RenderResponse{
		RequestID:       result.RequestID,
		Preset:          result.Preset,
		VideoPath:       result.VideoPath,
		ThumbnailPath:   result.ThumbnailPath,
		DurationSeconds: result.Duration,
		Segments:        result.Segments,
		Message:         "Video generated successfully",
	}
}

// FromProgress converts a pipeline progress report into a stream event.
func FromProgress(p pipeline.Progress, now time.Time) Event {
	return Event{
		Type:      EventProgress,
		RequestID: p.RequestID,
		Stage:     p.Stage,
		Item:      p.Item,
		Items:     p.Items,
		Message:   p.Message,
		Timestamp: FormatTime(now),
	}
}

// FromChecks converts preflight results.
func FromChecks(results []preflight.Result) []CheckResult {
	out := make([]CheckResult, len(results))
	for i, result := range results {
		out[i] = CheckResult{Name: result.Name, Passed: result.Passed, Detail: result.Detail}
	}
	return out
}

// FormatTime renders t in the API timestamp format; zero times are empty.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
