package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/identityops/idassign/config"
	logger "github.com/identityops/idassign/logging"
)

var (
	apiURL   string
	apiToken string
)

var rootCmd = &cobra.Command{
	Use:   "idassign",
	Short: "Bulk permission set assignment for a cloud identity directory",
	Long: `idassign grants and revokes permission set assignments between principals
(users/groups) and target accounts in bulk, driven by CSV or JSON input
files. Long runs persist resumable progress snapshots under the per-user
state directory.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.InitConfig(); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}
		logger.InitLogger(filepath.Join(config.StateDir(), "logs"))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Directory admin API base URL")
	rootCmd.PersistentFlags().StringVar(&apiToken, "api-token", "", "Directory admin API bearer token (also via IDASSIGN_API_TOKEN)")
	_ = viper.BindPFlag("api.url", rootCmd.PersistentFlags().Lookup("api-url"))
	_ = viper.BindPFlag("api.token", rootCmd.PersistentFlags().Lookup("api-token"))
}
