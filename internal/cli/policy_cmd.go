package cli

import (
	"fmt"

	"github.com/kenn-williamson/cherub/internal/policy"
	"github.com/spf13/cobra"
)

// newPolicyCmd groups policy-authoring commands. Grounded on
// internal/cli/policy_cmd.go, narrowed to parsing + compiling a candidate
// file: "validate" reports whether it would load, "show" also prints a
// short summary of it (§3 "Pattern... MUST compile... with bounded size
// and nesting limits" — a policy author wants to know this before
// deploying, not at the first agent proposal).
func newPolicyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Inspect and validate policy files",
	}

	var maxSize int64
	showCmd := &cobra.Command{
		Use:   "show PATH",
		Short: "Parse a policy file and print its path and tool count as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := policy.LoadFile(args[0], maxSize)
			if err != nil {
				return exitErrorf(1, "load policy: %v", err)
			}
			return printJSON(cmd, map[string]any{"path": args[0], "tool_count": p.ToolCount()})
		},
	}
	showCmd.Flags().Int64Var(&maxSize, "max-size-bytes", 1<<20, "Maximum policy file size in bytes")
	cmd.AddCommand(showCmd)

	var validateMaxSize int64
	validateCmd := &cobra.Command{
		Use:   "validate PATH",
		Short: "Validate a policy file (parse, compile patterns, bound size and nesting)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := policy.LoadFile(args[0], validateMaxSize); err != nil {
				return exitErrorf(1, "invalid policy: %v", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
	validateCmd.Flags().Int64Var(&validateMaxSize, "max-size-bytes", 1<<20, "Maximum policy file size in bytes")
	cmd.AddCommand(validateCmd)

	return cmd
}
