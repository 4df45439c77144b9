package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"reelforge/internal/services/googletts"
)

func newVoicesCommand(ctx *commandContext) *cobra.Command {
	var language string

	cmd := &cobra.Command{
		Use:   "voices",
		Short: "List speech voices available for a language",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.RequireSpeechCredentials(); err != nil {
				return err
			}
			client, err := googletts.NewClient(cmd.Context(), googletts.Config{
				APIKey:          cfg.Speech.APIKey,
				CredentialsFile: cfg.Speech.CredentialsFile,
				BaseURL:         cfg.Speech.BaseURL,
				AudioEncoding:   cfg.Speech.AudioEncoding,
				TimeoutSeconds:  cfg.Speech.TimeoutSeconds,
				RetryAttempts:   cfg.Speech.RetryAttempts,
			})
			if err != nil {
				return fmt.Errorf("speech client: %w", err)
			}
			voices, err := client.ListVoices(cmd.Context(), strings.TrimSpace(language))
			if err != nil {
				return fmt.Errorf("list voices: %w", err)
			}
			sort.Slice(voices, func(i, j int) bool { return voices[i].Name < voices[j].Name })

			if ctx.JSONMode() {
				if voices == nil {
					voices = []googletts.Voice{}
				}
				return writeJSON(cmd, map[string]any{"voices": voices})
			}
			if len(voices) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No voices found for %q\n", language)
				return nil
			}
			rows := make([][]string, 0, len(voices))
			for _, voice := range voices {
				rows = append(rows, []string{
					voice.Name,
					strings.Join(voice.LanguageCodes, ", "),
					strings.ToLower(voice.SSMLGender),
					strconv.Itoa(voice.NaturalSampleRateHertz),
				})
			}
			fmt.Fprint(cmd.OutOrStdout(), renderTable(
				[]column{textCol("Voice"), wrapCol("Languages", 30), textCol("Gender"), numCol("Sample Rate")},
				rows,
			))
			return nil
		},
	}

	cmd.Flags().StringVarP(&language, "language", "l", "en-US", "BCP-47 language code to filter by (empty for all)")
	return cmd
}
