package cmd

import (
	"errors"
	"fmt"
	"mapshare/internal/db"
	"mapshare/internal/model"
	"mapshare/internal/repository"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	historyN       int
	historyName    string
	historyHandler string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View export history",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo := repository.NewExportRepository(db.DB)

		if historyName != "" {
			return printLatest(repo, historyName)
		}

		exports, err := repo.GetRecent(historyN)
		if err != nil {
			return err
		}

		if len(exports) == 0 {
			fmt.Println("no exports yet")
			return nil
		}

		for _, e := range exports {
			printExport(e)
		}

		return nil
	},
}

func printLatest(repo *repository.ExportRepository, name string) error {
	h, err := resolveHandler(historyHandler)
	if err != nil {
		return err
	}

	e, err := repo.GetLatestSuccess(h.Name(), name)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("no successful %s export of %s", h.Name(), name)
	}

	if err != nil {
		return err
	}

	printExport(e)
	return nil
}

func printExport(e model.Export) {
	status := "✓"
	detail := e.URL
	if e.Status == model.ExportFailed {
		status = "✗"
		detail = e.ErrMsg
	}

	fmt.Printf("%s [%s] %-8s %s\n    %s\n",
		status,
		e.ExportedAt.Format("2006-01-02 15:04:05"),
		e.Handler,
		e.Name,
		detail,
	)
}

func init() {
	historyCmd.Flags().IntVar(&historyN, "n", 20, "number of history entries to show")
	historyCmd.Flags().StringVar(&historyName, "name", "", "show the last successful export of this file name")
	historyCmd.Flags().StringVar(&historyHandler, "handler", "", "cloud provider for --name (default dropbox)")
	rootCmd.AddCommand(historyCmd)
}
