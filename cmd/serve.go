package cmd

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/identityops/idassign/config"
	"github.com/identityops/idassign/controller"
	logger "github.com/identityops/idassign/logging"
	"github.com/identityops/idassign/middleware"
	"github.com/identityops/idassign/progress"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve progress snapshots over HTTP",
	Long: `Starts a read-only HTTP server exposing the persisted progress snapshots,
so dashboards and other processes can observe in-flight bulk operations.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := progress.NewFileStore(filepath.Join(config.StateDir(), "progress"))
		if err != nil {
			return err
		}

		gin.SetMode(gin.ReleaseMode)
		router := gin.New()
		router.Use(gin.Recovery())
		router.Use(middleware.Logger())

		progressController := controller.NewProgressController(store)
		api := router.Group("/")
		progressController.RegisterRoutes(api)

		port := servePort
		if port == "" {
			port = config.GetString("server.port")
		}

		logger.Info("Starting status server", zap.String("port", port))
		server := &http.Server{
			Addr:    fmt.Sprintf(":%s", port),
			Handler: router,
		}
		return server.ListenAndServe()
	},
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "Port to listen on (default from config)")
	rootCmd.AddCommand(serveCmd)
}
