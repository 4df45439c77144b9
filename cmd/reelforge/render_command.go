package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"reelforge/internal/api"
	"reelforge/internal/config"
	"reelforge/internal/content"
	"reelforge/internal/logging"
	"reelforge/internal/pipeline"
	"reelforge/internal/services"
)

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var preset string
	var outputDir string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "render <request-file>",
		Short: "Render a request file in-process without the daemon",
		Long: `Render a YAML or JSON request document directly. Local file paths are
allowed for media, logo, and music sources; relative paths resolve against
the request file's directory.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			req, err := content.LoadFile(args[0])
			if err != nil {
				return err
			}
			if strings.TrimSpace(preset) != "" {
				req.Preset = preset
			}
			if err := applyOutputDir(cfg, outputDir); err != nil {
				return err
			}

			level := "warn"
			if verbose {
				level = "debug"
			}
			logger, err := logging.New(logging.Options{
				Level:       level,
				Format:      cfg.Logging.Format,
				OutputPaths: []string{"stderr"},
			})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			p, err := pipeline.NewFromConfig(cmd.Context(), cfg, logger, pipeline.WithLocalFiles(true))
			if err != nil {
				return err
			}

			var observer pipeline.Observer
			if !ctx.JSONMode() {
				observer = progressPrinter(cmd.ErrOrStderr())
			}
			result, err := p.Run(cmd.Context(), req, pipeline.WithObserver(observer))
			if err != nil {
				return fmt.Errorf("render failed (%s): %w", services.Kind(err), err)
			}

			if ctx.JSONMode() {
				return writeJSON(cmd, api.FromResult(result))
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Video:     %s\n", result.VideoPath)
			fmt.Fprintf(out, "Thumbnail: %s\n", result.ThumbnailPath)
			fmt.Fprintf(out, "Duration:  %.2fs (%d segments, preset %s)\n", result.Duration, result.Segments, result.Preset)
			return nil
		},
	}

	cmd.Flags().StringVarP(&preset, "preset", "p", "", "Preset to render with (overrides the request file)")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Write the video and thumbnail here instead of the configured directories")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log pipeline details to stderr")
	return cmd
}

func applyOutputDir(cfg *config.Config, dir string) error {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil
	}
	expanded, err := config.ExpandPath(dir)
	if err != nil {
		return fmt.Errorf("resolve output dir: %w", err)
	}
	if err := os.MkdirAll(expanded, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	cfg.Paths.OutputDir = expanded
	cfg.Paths.ThumbnailDir = expanded
	return nil
}

func progressPrinter(w io.Writer) pipeline.Observer {
	return func(p pipeline.Progress) {
		position := ""
		if p.Item >= 0 && p.Items > 0 {
			position = fmt.Sprintf(" [%d/%d]", p.Item+1, p.Items)
		}
		fmt.Fprintf(w, "%-9s%s %s\n", p.Stage, position, p.Message)
	}
}

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var preset string

	cmd := &cobra.Command{
		Use:   "submit <request-file>",
		Short: "Send a request file to the running daemon and wait for the video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := content.LoadFile(args[0])
			if err != nil {
				return err
			}
			if strings.TrimSpace(preset) != "" {
				req.Preset = preset
			}
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			if client == nil {
				return fmt.Errorf("paths.api_bind is empty; start the daemon with 'reelforge serve' or use 'reelforge render'")
			}
			resp, err := client.Render(cmd.Context(), req)
			if err != nil {
				if api.IsAPIUnavailable(err) {
					return fmt.Errorf("daemon not reachable: %w (start it with 'reelforge serve')", err)
				}
				return err
			}
			if ctx.JSONMode() {
				return writeJSON(cmd, resp)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Request:   %s\n", resp.RequestID)
			fmt.Fprintf(out, "Video:     %s\n", resp.VideoPath)
			fmt.Fprintf(out, "Thumbnail: %s\n", resp.ThumbnailPath)
			fmt.Fprintf(out, "Duration:  %.2fs\n", resp.DurationSeconds)
			if resp.VideoURL != "" {
				fmt.Fprintf(out, "URL:       %s\n", resp.VideoURL)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&preset, "preset", "p", "", "Preset to render with (overrides the request file)")
	return cmd
}
