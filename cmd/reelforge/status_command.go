package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"reelforge/internal/api"
	"reelforge/internal/config"
	"reelforge/internal/preflight"
	"reelforge/internal/queue"
	"reelforge/internal/queueaccess"
)

type statusReport struct {
	Daemon *api.DaemonStatus   `json:"daemon,omitempty"`
	Checks []preflight.Result  `json:"checks"`
	Jobs   queue.HealthSummary `json:"jobs"`
	Source string              `json:"source"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var checkSpeech bool
	var language string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon, dependency, and job status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			report := statusReport{Checks: preflight.RunAll(cmd.Context(), cfg)}
			if checkSpeech {
				report.Checks = append(report.Checks, preflight.CheckSpeech(cmd.Context(), cfg, language))
			}

			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			if client != nil {
				if status, err := client.Status(cmd.Context()); err == nil {
					report.Daemon = &status
				}
			}
			err = ctx.withJobs(cmd.Context(), func(access queueaccess.Access) error {
				stats, err := access.Stats(cmd.Context())
				if err != nil {
					return err
				}
				report.Jobs = stats
				report.Source = access.Source()
				return nil
			})
			if err != nil {
				return err
			}

			if ctx.JSONMode() {
				return writeJSON(cmd, report)
			}
			printStatusReport(cmd.OutOrStdout(), cfg, report, shouldColorize(cmd.OutOrStdout()))
			return nil
		},
	}

	cmd.Flags().BoolVar(&checkSpeech, "check-speech", false, "Verify speech credentials with a live voice listing")
	cmd.Flags().StringVar(&language, "language", "en-US", "Language used for the speech check")
	return cmd
}

func printStatusReport(out io.Writer, cfg *config.Config, report statusReport, colorize bool) {
	w := &sectionWriter{out: out, colorize: colorize}
	w.section("Daemon", daemonLines(cfg, report.Daemon, colorize))
	w.section("System Checks", checkLines(report.Checks, colorize))

	rows := buildJobStatusRows(report.Jobs)
	if len(rows) == 0 {
		w.section("Jobs", []string{"No jobs recorded"})
		return
	}
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, renderStatusLine(formatStatusLabel(string(row.status)), jobStatusKind(row.status), strconv.Itoa(row.count), colorize))
	}
	w.section("Jobs", lines)
	fmt.Fprintf(out, "\nSource: %s\n", report.Source)
}

func daemonLines(cfg *config.Config, status *api.DaemonStatus, colorize bool) []string {
	if status == nil {
		return []string{
			renderStatusLine("reelforge", statusWarn, "Not running on "+cfg.Paths.APIBind, colorize),
		}
	}
	lines := []string{
		renderStatusLine("reelforge", statusOK, fmt.Sprintf("Running (pid %d) on %s", status.PID, status.Bind), colorize),
	}
	slots := "unlimited"
	if status.MaxJobs > 0 {
		slots = strconv.Itoa(status.MaxJobs)
	}
	lines = append(lines, renderStatusLine("Active renders", statusInfo, fmt.Sprintf("%d (limit %s)", status.ActiveJobs, slots), colorize))
	lines = append(lines, renderStatusLine("Auth", statusInfo, yesNo(cfg.Paths.APIToken != ""), colorize))
	return lines
}

func checkLines(results []preflight.Result, colorize bool) []string {
	lines := make([]string, 0, len(results)+1)
	failed := preflight.Failed(results)
	for _, result := range results {
		kind := statusOK
		if !result.Passed {
			kind = statusError
		}
		lines = append(lines, renderStatusLine(result.Name, kind, result.Detail, colorize))
	}
	if len(failed) > 0 {
		lines = append(lines, renderStatusLine("Summary", statusWarn, fmt.Sprintf("%d of %d checks failed", len(failed), len(results)), colorize))
	}
	return lines
}

type jobCount struct {
	status queue.Status
	count  int
}

func buildJobStatusRows(summary queue.HealthSummary) []jobCount {
	counts := []jobCount{
		{queue.StatusPending, summary.Pending},
		{queue.StatusProcessing, summary.Processing},
		{queue.StatusCompleted, summary.Completed},
		{queue.StatusFailed, summary.Failed},
	}
	rows := make([]jobCount, 0, len(counts))
	for _, entry := range counts {
		if entry.count > 0 {
			rows = append(rows, entry)
		}
	}
	return rows
}
