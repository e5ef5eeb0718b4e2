package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	historySince    time.Duration
	historyOperator string
	historyType     string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past bulk runs from the audit trail",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		auditService := buildAuditService()
		if auditService == nil {
			return fmt.Errorf("audit trail is unavailable")
		}

		to := time.Now()
		from := to.Add(-historySince)
		records, err := auditService.QueryOperations(ctx, from, to, historyOperator, historyType)
		if err != nil {
			return fmt.Errorf("failed to query audit trail: %w", err)
		}
		if len(records) == 0 {
			pterm.Info.Println("No audited runs in the selected window.")
			return nil
		}

		table := pterm.TableData{{"WHEN", "OPERATOR", "OPERATION", "TOTAL", "OK", "SKIP", "FAIL", "DRY RUN", "DURATION"}}
		for _, r := range records {
			table = append(table, []string{
				r.Timestamp.Format(time.RFC3339),
				r.Operator,
				r.OperationType,
				fmt.Sprintf("%d", r.TotalRequested),
				fmt.Sprintf("%d", r.SuccessCount),
				fmt.Sprintf("%d", r.SkipCount),
				fmt.Sprintf("%d", r.FailureCount),
				fmt.Sprintf("%t", r.DryRun),
				(time.Duration(r.DurationMillis) * time.Millisecond).String(),
			})
		}
		return pterm.DefaultTable.WithHasHeader().WithData(table).Render()
	},
}

func init() {
	historyCmd.Flags().DurationVar(&historySince, "since", 7*24*time.Hour, "How far back to search")
	historyCmd.Flags().StringVar(&historyOperator, "operator", "", "Filter by operator")
	historyCmd.Flags().StringVar(&historyType, "operation-type", "", "Filter by operation type (grant or revoke)")
	rootCmd.AddCommand(historyCmd)
}
