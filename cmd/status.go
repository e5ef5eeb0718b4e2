package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/identityops/idassign/config"
	iderrors "github.com/identityops/idassign/errors"
	"github.com/identityops/idassign/progress"
	"github.com/identityops/idassign/report"
)

var (
	statusWatch    bool
	statusInterval time.Duration
)

var statusCmd = &cobra.Command{
	Use:   "status [operation-id]",
	Short: "Show progress of in-flight or interrupted bulk operations",
	Long: `Reads the persisted progress snapshots under the per-user state directory.
Without arguments, lists every known operation; with an operation id, shows
that operation. --watch refreshes until the snapshot disappears (clean
completion removes it).`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := progress.NewFileStore(filepath.Join(config.StateDir(), "progress"))
		if err != nil {
			return err
		}

		if len(args) == 0 {
			snapshots, err := store.List()
			if err != nil {
				return err
			}
			if len(snapshots) == 0 {
				pterm.Info.Println("No operations in progress.")
				return nil
			}
			for _, snapshot := range snapshots {
				report.RenderSnapshot(snapshot)
			}
			return nil
		}

		operationID := args[0]
		for {
			snapshot, ok, err := store.Load(operationID)
			if err != nil {
				return err
			}
			if !ok {
				if statusWatch {
					pterm.Success.Printf("Operation %s finished (snapshot removed).\n", operationID)
					return nil
				}
				return fmt.Errorf("%w: %s", iderrors.ErrOperationNotFound, operationID)
			}
			report.RenderSnapshot(snapshot)

			if !statusWatch {
				return nil
			}
			time.Sleep(statusInterval)
		}
	},
}

func init() {
	statusCmd.Flags().BoolVarP(&statusWatch, "watch", "w", false, "Refresh until the operation completes")
	statusCmd.Flags().DurationVar(&statusInterval, "interval", 5*time.Second, "Refresh interval for --watch")
	rootCmd.AddCommand(statusCmd)
}
