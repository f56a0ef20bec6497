package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newApproveCmd lists and resolves escalation gates pending in a running
// `cherub serve` process, over the local admin socket (adminsock.go).
// Grounded on internal/cli/approve.go's "list"/"resolve" shape,
// adapted from its HTTP client call to a Unix-socket call since Cherub has
// no RPC transport in scope (§1 Non-goals).
func newApproveCmd() *cobra.Command {
	var sockPath string
	cmd := &cobra.Command{
		Use:   "approve",
		Short: "List/resolve pending approval gates on a running cherub serve",
	}
	cmd.PersistentFlags().StringVar(&sockPath, "admin-sock", defaultAdminSocketPath(), "cherub serve admin socket path")

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List pending approval gates",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := adminCall(sockPath, adminRequest{Op: "list"})
			if err != nil {
				return exitErrorf(1, "%v", err)
			}
			return printJSON(cmd, resp.Pending)
		},
	})

	var allow, deny bool
	var reason string
	resolveCmd := &cobra.Command{
		Use:   "resolve APPROVAL_ID",
		Short: "Approve or deny a pending gate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if allow == deny {
				return exitErrorf(2, "choose exactly one of --allow or --deny")
			}
			if _, err := adminCall(sockPath, adminRequest{Op: "resolve", ID: args[0], Approved: allow, Reason: reason}); err != nil {
				return exitErrorf(1, "%v", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
	resolveCmd.Flags().BoolVar(&allow, "allow", false, "Approve the gate")
	resolveCmd.Flags().BoolVar(&deny, "deny", false, "Deny the gate")
	resolveCmd.Flags().StringVar(&reason, "reason", "", "Reason attached to the gate's resolution (not written to the decision log)")
	cmd.AddCommand(resolveCmd)

	return cmd
}
