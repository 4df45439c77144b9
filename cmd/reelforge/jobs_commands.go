package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"reelforge/internal/api"
	"reelforge/internal/queue"
	"reelforge/internal/queueaccess"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	var statuses []string
	var limit int

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List recent render jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, raw := range statuses {
				if _, ok := queue.ParseStatus(raw); !ok {
					return fmt.Errorf("unknown status %q (want one of %s)", raw, statusNames())
				}
			}
			return ctx.withJobs(cmd.Context(), func(access queueaccess.Access) error {
				jobs, err := access.List(cmd.Context(), limit, statuses)
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					if jobs == nil {
						jobs = []api.Job{}
					}
					return writeJSON(cmd, api.JobListResponse{Jobs: jobs})
				}
				out := cmd.OutOrStdout()
				if len(jobs) == 0 {
					fmt.Fprintln(out, "No jobs recorded")
					return nil
				}
				fmt.Fprint(out, renderTable(
					[]column{textCol("ID"), textCol("Status"), textCol("Preset"), numCol("Items"), textCol("Stage"), textCol("Created"), numCol("Duration")},
					buildJobRows(jobs),
				))
				fmt.Fprintf(out, "\nSource: %s\n", access.Source())
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&statuses, "status", "s", nil, "Filter by job status (repeatable)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of jobs to show (0 for all)")
	return cmd
}

func newJobCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "job <request-id>",
		Short: "Show one render job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			return ctx.withJobs(cmd.Context(), func(access queueaccess.Access) error {
				job, err := access.Describe(cmd.Context(), id)
				if err != nil {
					return err
				}
				if job == nil {
					return fmt.Errorf("job %s not found", id)
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, api.JobResponse{Job: *job})
				}
				printJobDetail(cmd.OutOrStdout(), *job)
				return nil
			})
		},
	}
}

func buildJobRows(jobs []api.Job) [][]string {
	rows := make([][]string, 0, len(jobs))
	for _, job := range jobs {
		duration := ""
		if job.DurationSeconds > 0 {
			duration = fmt.Sprintf("%.1fs", job.DurationSeconds)
		}
		rows = append(rows, []string{
			shortID(job.ID),
			formatStatusLabel(job.Status),
			job.Preset,
			fmt.Sprintf("%d", job.ItemCount),
			job.Progress.Stage,
			job.CreatedAt,
			duration,
		})
	}
	return rows
}

func printJobDetail(out io.Writer, job api.Job) {
	field := func(label, value string) {
		if strings.TrimSpace(value) == "" {
			return
		}
		fmt.Fprintf(out, "%-12s %s\n", label+":", value)
	}
	field("ID", job.ID)
	field("Status", formatStatusLabel(job.Status))
	field("Preset", job.Preset)
	field("Language", job.LanguageCode)
	field("Items", fmt.Sprintf("%d", job.ItemCount))
	if job.Progress.Stage != "" {
		progress := job.Progress.Stage
		if job.Progress.Item >= 0 && job.ItemCount > 0 {
			progress = fmt.Sprintf("%s (item %d/%d)", progress, job.Progress.Item+1, job.ItemCount)
		}
		field("Stage", progress)
	}
	field("Message", job.Progress.Message)
	field("Video", job.VideoPath)
	field("Thumbnail", job.ThumbnailPath)
	if job.DurationSeconds > 0 {
		field("Duration", fmt.Sprintf("%.2fs", job.DurationSeconds))
	}
	if job.ErrorKind != "" {
		field("Error", fmt.Sprintf("[%s] %s", job.ErrorKind, job.ErrorMessage))
	}
	field("Created", job.CreatedAt)
	field("Started", job.StartedAt)
	field("Finished", job.FinishedAt)
	if job.ElapsedSeconds > 0 {
		field("Elapsed", fmt.Sprintf("%.1fs", job.ElapsedSeconds))
	}
}

func formatStatusLabel(status string) string {
	status = strings.TrimSpace(status)
	if status == "" {
		return "Unknown"
	}
	return strings.ToUpper(status[:1]) + status[1:]
}

func shortID(id string) string {
	if len(id) <= 12 {
		return id
	}
	return id[:12]
}

func statusNames() string {
	statuses := queue.AllStatuses()
	names := make([]string, 0, len(statuses))
	for _, status := range statuses {
		names = append(names, string(status))
	}
	return strings.Join(names, ", ")
}
