package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"mapshare/internal/autostart"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "View server status",
	RunE: func(cmd *cobra.Command, args []string) error {
		var handlers struct {
			Handlers []string `json:"handlers"`
			Default  string   `json:"default"`
		}

		if err := getJSON(daemonURL("/handlers"), &handlers); err != nil {
			return err
		}

		fmt.Printf("server running on port %d\n", cfg.Port)
		if installed, err := autostart.New().IsInstalled(); err == nil {
			fmt.Printf("autostart: %t\n", installed)
		}
		fmt.Println()
		fmt.Printf("%-10s %-8s %s\n", "HANDLER", "DEFAULT", "AUTHENTICATED")

		for _, name := range handlers.Handlers {
			var st struct {
				Authenticated bool `json:"authenticated"`
			}

			if err := getJSON(daemonURL("/auth/status?handler="+url.QueryEscape(name)), &st); err != nil {
				return err
			}

			def := ""
			if name == handlers.Default {
				def = "*"
			}

			fmt.Printf("%-10s %-8s %t\n", name, def, st.Authenticated)
		}

		return nil
	},
}

func getJSON(u string, v any) error {
	resp, err := http.Get(u)
	if err != nil {
		return fmt.Errorf("server not running: %w", err)
	}

	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status from %s: %s", u, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
