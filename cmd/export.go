package cmd

import (
	"context"
	"errors"
	"fmt"
	"mapshare/internal/auth"
	"mapshare/internal/db"
	"mapshare/internal/export"
	"mapshare/internal/logger"
	"mapshare/internal/repository"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	exportHandler string
	exportName    string
	exportWatch   bool
)

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Upload a map file, share it and print its public URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		defer logger.Sync()

		h, err := resolveHandler(exportHandler)
		if err != nil {
			return err
		}

		path := args[0]
		name := exportName
		if name == "" {
			name = filepath.Base(path)
		}

		exporter := export.New(manager, repository.NewExportRepository(db.DB))

		if !exportWatch {
			return exportFile(cmd.Context(), exporter, h, path, name, nil)
		}

		// Watch before the first export so saves made during it are queued.
		w, err := export.NewWatcher(path, cfg.WatchDebounce)
		if err != nil {
			return err
		}

		var gate export.ChecksumGate
		if err := exportFile(cmd.Context(), exporter, h, path, name, &gate); err != nil {
			_ = w.Close()
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return w.Run(ctx, func() {
			err := exportFile(ctx, exporter, h, path, name, &gate)
			if errors.Is(err, export.ErrUnchanged) {
				logger.Log.Debug("checksum unchanged, skipping",
					zap.String("path", path))
				return
			}

			if err != nil {
				logger.Log.Warn("re-export failed",
					zap.String("path", path),
					zap.Error(err))
			}
		})
	},
}

func exportFile(ctx context.Context, exporter *export.Exporter, h auth.Handler, path, name string, gate *export.ChecksumGate) error {
	res, err := exporter.ExportFile(ctx, h, path, name, gate)
	if err != nil {
		return err
	}

	fmt.Printf("exported %s to %s\n", path, res.Metadata.Path())
	fmt.Println(res.Metadata.URL)
	return nil
}

func init() {
	exportCmd.Flags().StringVar(&exportHandler, "handler", "", "cloud provider (default dropbox)")
	exportCmd.Flags().StringVar(&exportName, "name", "", "remote file name (default: local file name)")
	exportCmd.Flags().BoolVar(&exportWatch, "watch", false, "re-export whenever the file changes")
	rootCmd.AddCommand(exportCmd)
}
