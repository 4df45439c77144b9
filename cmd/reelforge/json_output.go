package main

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"
)

func writeJSON(cmd *cobra.Command, v any) error {
	return encodeJSON(cmd.OutOrStdout(), v)
}

// encodeJSON writes v indented with HTML escaping off, so media URLs keep
// their query strings readable.
func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
