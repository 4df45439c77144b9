package queue

import (
	"database/sql"
	"errors"
	"time"
)

const jobColumns = "id, status, preset, language_code, item_count, progress_stage, progress_item, progress_message, video_path, thumbnail_path, duration_seconds, error_kind, error_message, created_at, updated_at, started_at, finished_at"

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		job             Job
		statusStr       string
		preset          sql.NullString
		languageCode    sql.NullString
		progressStage   sql.NullString
		progressMessage sql.NullString
		videoPath       sql.NullString
		thumbnailPath   sql.NullString
		errorKind       sql.NullString
		errorMessage    sql.NullString
		createdRaw      string
		updatedRaw      string
		startedRaw      sql.NullString
		finishedRaw     sql.NullString
	)
	if err := scanner.Scan(
		&job.ID,
		&statusStr,
		&preset,
		&languageCode,
		&job.ItemCount,
		&progressStage,
		&job.ProgressItem,
		&progressMessage,
		&videoPath,
		&thumbnailPath,
		&job.DurationSeconds,
		&errorKind,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
		&startedRaw,
		&finishedRaw,
	); err != nil {
		return nil, err
	}

	job.Status = Status(statusStr)
	job.Preset = preset.String
	job.LanguageCode = languageCode.String
	job.ProgressStage = progressStage.String
	job.ProgressMessage = progressMessage.String
	job.VideoPath = videoPath.String
	job.ThumbnailPath = thumbnailPath.String
	job.ErrorKind = errorKind.String
	job.ErrorMessage = errorMessage.String
	if created, err := parseTimeString(createdRaw); err == nil {
		job.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		job.UpdatedAt = updated
	}
	job.StartedAt = parseNullableTime(startedRaw)
	job.FinishedAt = parseNullableTime(finishedRaw)
	return &job, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseNullableTime(value sql.NullString) *time.Time {
	if !value.Valid {
		return nil
	}
	t, err := parseTimeString(value.String)
	if err != nil {
		return nil
	}
	return &t
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
