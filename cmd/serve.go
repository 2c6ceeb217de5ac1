package cmd

import (
	"context"
	"mapshare/internal/db"
	"mapshare/internal/export"
	"mapshare/internal/logger"
	"mapshare/internal/repository"
	"mapshare/internal/server"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server for OAuth callbacks and exports",
	RunE: func(cmd *cobra.Command, args []string) error {
		defer logger.Sync()

		exports := repository.NewExportRepository(db.DB)

		srv := server.New(server.Options{
			Registry: registry,
			Manager:  manager,
			Exporter: export.New(manager, exports),
			Exports:  exports,
			AuthPath: cfg.AuthPath,
			Port:     cfg.Port,
		})
		srv.Start()

		logger.Log.Info("mapshare server ready",
			zap.Int("port", cfg.Port),
			zap.Strings("handlers", registry.Names()))

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-sigCh:
			logger.Log.Info("shutting down",
				zap.String("signal", sig.String()))
		case <-srv.StopCh():
			logger.Log.Info("stop requested via API")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Stop(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
