package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

// printJSON writes v to cmd's stdout as indented JSON, matching
// internal/cli/session.go's printJSON helper.
func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
