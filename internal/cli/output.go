package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// printResult writes v as indented JSON, or the text line otherwise.
func printResult(cmd *cobra.Command, opts *RootOptions, v any, text string, args ...any) error {
	if opts.Format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	_, err := fmt.Fprintf(cmd.OutOrStdout(), text+"\n", args...)
	return err
}
