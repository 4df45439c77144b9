package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"reelforge/internal/api"
	"reelforge/internal/services"
)

func main() {
	cmd := newRootCommand()
	err := cmd.Execute()
	if err == nil {
		return
	}
	if errors.Is(err, context.Canceled) {
		os.Exit(130)
	}
	if jsonRequested(cmd) {
		_ = encodeJSON(os.Stderr, api.ErrorResponse{Error: err.Error(), Kind: services.Kind(err)})
	} else {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(exitCode(err))
}

// exitCode returns 2 for bad input or configuration and 1 for failed work.
func exitCode(err error) int {
	switch services.Kind(err) {
	case "validation", "configuration":
		return 2
	default:
		return 1
	}
}

func jsonRequested(cmd *cobra.Command) bool {
	enabled, err := cmd.PersistentFlags().GetBool("json")
	return err == nil && enabled
}
