package cmd

import (
	"github.com/spf13/cobra"

	"github.com/identityops/idassign/executor"
)

var grantFlags bulkFlags

var grantCmd = &cobra.Command{
	Use:   "grant",
	Short: "Grant permission set assignments from an input file",
	Long: `Reads assignment requests from a CSV or JSON file, resolves names to
directory identifiers, and creates the assignments in bulk. Assignments
that already exist are skipped, so re-running a file is safe.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBulk(cmd, executor.OperationGrant, grantFlags)
	},
}

func init() {
	registerBulkFlags(grantCmd, &grantFlags)
	rootCmd.AddCommand(grantCmd)
}
