package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"reelforge/internal/logging"
	"reelforge/internal/queue"
	"reelforge/internal/queueaccess"
	"reelforge/internal/staging"
)

func newWorkdirsCommand(ctx *commandContext) *cobra.Command {
	var clean bool
	var maxAge time.Duration

	cmd := &cobra.Command{
		Use:   "workdirs",
		Short: "List or clean per-request work directories",
		Long: `List the scratch directories requests render in. With --clean, remove
directories older than --max-age (default: daemon.stale_workdir_minutes)
unless their job is still processing.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if clean {
				age := maxAge
				if age <= 0 {
					age = time.Duration(cfg.Daemon.StaleWorkDirMinutes) * time.Minute
				}
				active := map[string]struct{}{}
				err := ctx.withJobs(cmd.Context(), func(access queueaccess.Access) error {
					jobs, err := access.List(cmd.Context(), 0, []string{string(queue.StatusProcessing)})
					if err != nil {
						return err
					}
					for _, job := range jobs {
						active[job.ID] = struct{}{}
					}
					return nil
				})
				if err != nil {
					return err
				}
				result := staging.CleanStale(cmd.Context(), cfg.Paths.WorkDir, age, active, logging.NewNop())
				if ctx.JSONMode() {
					return writeCleanJSON(cmd, result)
				}
				return printCleanResult(cmd, result)
			}

			dirs, err := staging.ListDirectories(cfg.Paths.WorkDir)
			if err != nil {
				return fmt.Errorf("list work directories: %w", err)
			}
			var total int64
			for _, dir := range dirs {
				total += dir.Size
			}
			if ctx.JSONMode() {
				if dirs == nil {
					dirs = []staging.DirInfo{}
				}
				return writeJSON(cmd, map[string]any{
					"work_dir":         cfg.Paths.WorkDir,
					"directories":      dirs,
					"total_size_bytes": total,
				})
			}
			out := cmd.OutOrStdout()
			if len(dirs) == 0 {
				fmt.Fprintln(out, "No work directories found")
				return nil
			}
			fmt.Fprintf(out, "Work directory: %s\n\n", cfg.Paths.WorkDir)
			rows := make([][]string, 0, len(dirs))
			for _, dir := range dirs {
				rows = append(rows, []string{shortID(dir.Name), humanize.Time(dir.ModTime), humanize.Bytes(uint64(dir.Size))})
			}
			fmt.Fprint(out, renderTable(
				[]column{textCol("Request"), numCol("Modified"), numCol("Size")},
				rows,
			))
			fmt.Fprintf(out, "\nTotal: %d directories, %s\n", len(dirs), humanize.Bytes(uint64(total)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&clean, "clean", false, "Remove stale work directories")
	cmd.Flags().DurationVar(&maxAge, "max-age", 0, "Override the staleness threshold (e.g. 30m)")
	return cmd
}

func printCleanResult(cmd *cobra.Command, result staging.CleanStaleResult) error {
	out := cmd.OutOrStdout()
	if len(result.Removed) == 0 && len(result.Errors) == 0 {
		fmt.Fprintln(out, "No stale work directories to clean")
		return nil
	}
	fmt.Fprintf(out, "Removed %d work directories", len(result.Removed))
	if len(result.Errors) > 0 {
		fmt.Fprintf(out, ", %d errors\n", len(result.Errors))
		for _, e := range result.Errors {
			fmt.Fprintf(out, "  Error: %s: %v\n", e.Path, e.Error)
		}
		return nil
	}
	fmt.Fprintln(out)
	return nil
}

func writeCleanJSON(cmd *cobra.Command, result staging.CleanStaleResult) error {
	errs := make([]string, 0, len(result.Errors))
	for _, e := range result.Errors {
		errs = append(errs, fmt.Sprintf("%s: %v", e.Path, e.Error))
	}
	removed := result.Removed
	if removed == nil {
		removed = []string{}
	}
	return writeJSON(cmd, map[string]any{
		"removed": removed,
		"errors":  errs,
	})
}
