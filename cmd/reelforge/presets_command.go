package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"reelforge/internal/config"
)

func newPresetsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List configured output presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			presets := make([]config.Preset, 0, len(cfg.Presets))
			for _, name := range cfg.PresetNames() {
				preset, err := cfg.Preset(name)
				if err != nil {
					return err
				}
				presets = append(presets, preset)
			}
			if ctx.JSONMode() {
				return writeJSON(cmd, map[string]any{
					"default": cfg.Pipeline.DefaultPreset,
					"presets": presets,
				})
			}
			fmt.Fprint(cmd.OutOrStdout(), renderTable(
				[]column{textCol("Name"), numCol("Frame"), textCol("Chunking"), textCol("Timing"), textCol("Panel"), textCol("Logo"), numCol("Rate")},
				buildPresetRows(presets, cfg.Pipeline.DefaultPreset),
			))
			return nil
		},
	}
}

func buildPresetRows(presets []config.Preset, defaultName string) [][]string {
	rows := make([][]string, 0, len(presets))
	for _, p := range presets {
		name := p.Name
		if name == defaultName {
			name += " (default)"
		}
		chunking := p.Chunking
		if p.Chunking == config.ChunkWords {
			chunking = fmt.Sprintf("%d words", p.WordsPerChunk)
		}
		rows = append(rows, []string{
			name,
			fmt.Sprintf("%dx%d@%d", p.Width, p.Height, p.FrameRate),
			chunking,
			p.Timing,
			p.Panel,
			p.LogoMode,
			fmt.Sprintf("%.2f", p.SpeakingRate),
		})
	}
	return rows
}
