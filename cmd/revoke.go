package cmd

import (
	"github.com/spf13/cobra"

	"github.com/identityops/idassign/executor"
)

var revokeFlags bulkFlags

var revokeCmd = &cobra.Command{
	Use:   "revoke",
	Short: "Revoke permission set assignments from an input file",
	Long: `Reads assignment requests from a CSV or JSON file, resolves names to
directory identifiers, and deletes the assignments in bulk. Assignments
that are already gone are skipped, so re-running a file is safe.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBulk(cmd, executor.OperationRevoke, revokeFlags)
	},
}

func init() {
	registerBulkFlags(revokeCmd, &revokeFlags)
	rootCmd.AddCommand(revokeCmd)
}
