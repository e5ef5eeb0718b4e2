package cmd

import (
	"context"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/identityops/idassign/config"
	"github.com/identityops/idassign/oplog"
)

var oplogCmd = &cobra.Command{
	Use:   "oplog <operation-id>",
	Short: "Show a logged operation group by id",
	Long: `Fetches one operation-log entry: the (principal, permission set) group a
successful run recorded, with every account it touched. These entries are
the input for rollback tooling.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		opLogger, err := oplog.NewRedisLogger(config.GetString("redis.addr"), config.GetString("redis.password"), config.GetInt("redis.db"), 0)
		if err != nil {
			return fmt.Errorf("operation log is unavailable: %w", err)
		}
		defer opLogger.Close()

		entry, err := opLogger.Get(ctx, args[0])
		if err != nil {
			return err
		}
		if entry == nil {
			return fmt.Errorf("no operation log entry for %s", args[0])
		}

		pterm.DefaultSection.Printf("Operation %s\n", args[0])
		pterm.Printf("Type:           %s\n", entry.OperationType)
		pterm.Printf("Principal:      %s (%s, %s)\n", entry.PrincipalName, entry.PrincipalType, entry.PrincipalID)
		pterm.Printf("Permission set: %s (%s)\n", entry.PermissionSetName, entry.PermissionSetARN)
		pterm.Printf("Logged at:      %s\n", entry.LoggedAt.Format("2006-01-02 15:04:05"))

		table := pterm.TableData{{"ACCOUNT", "ID", "OUTCOME", "DURATION"}}
		for _, r := range entry.AccountResults {
			outcome := "ok"
			if !r.Success {
				outcome = "failed"
			}
			table = append(table, []string{r.AccountName, r.AccountID, outcome, r.Duration.String()})
		}
		return pterm.DefaultTable.WithHasHeader().WithData(table).Render()
	},
}

func init() {
	rootCmd.AddCommand(oplogCmd)
}
