package cmd

import (
	"errors"
	"fmt"
	"mapshare/internal/auth"

	"github.com/spf13/cobra"
)

var authHandler string

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage cloud provider authentication",
}

var authLinkCmd = &cobra.Command{
	Use:   "link [handler]",
	Short: "Print the provider consent URL",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := resolveHandler(handlerArg(args))
		if err != nil {
			return err
		}

		link, err := h.AuthLink(cfg.AuthPath)
		if err != nil {
			return err
		}

		fmt.Println("Visit the URL for the auth dialog:")
		fmt.Println()
		fmt.Println(link)
		fmt.Println()
		fmt.Println("Then run 'mapshare serve' to finish sign-in in the browser,")
		fmt.Println("or paste the full redirect URL into 'mapshare auth callback <url>'.")
		return nil
	},
}

var authCallbackCmd = &cobra.Command{
	Use:   "callback <url>",
	Short: "Store the access token from an OAuth redirect URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := auth.HandlerNameFromCallback(args[0])
		if name == "" {
			name = authHandler
		}

		h, err := resolveHandler(name)
		if err != nil {
			return err
		}

		if _, err := manager.ValidateAndStoreAuth(cmd.Context(), h, args[0]); err != nil {
			if errors.Is(err, auth.ErrNoToken) {
				return fmt.Errorf("no access_token in the URL fragment: %w", err)
			}
			return err
		}

		fmt.Printf("Authenticated with %s\n", h.Name())
		return nil
	},
}

var authStatusCmd = &cobra.Command{
	Use:   "status [handler]",
	Short: "Show which providers have a stored token",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		names := registry.Names()
		if len(args) == 1 {
			names = args
		}

		for _, name := range names {
			h, err := resolveHandler(name)
			if err != nil {
				return err
			}

			state := "authenticated"
			if _, err := manager.RetrieveAuthToken(cmd.Context(), h); err != nil {
				if !errors.Is(err, auth.ErrNoToken) {
					return err
				}
				state = "not authenticated"
			}

			fmt.Printf("%-10s %s\n", h.Name(), state)
		}

		return nil
	},
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout [handler]",
	Short: "Forget the stored token",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := resolveHandler(handlerArg(args))
		if err != nil {
			return err
		}

		if err := manager.DeleteAuthToken(cmd.Context(), h); err != nil {
			return err
		}

		fmt.Printf("Logged out of %s\n", h.Name())
		return nil
	},
}

func init() {
	authCallbackCmd.Flags().StringVar(&authHandler, "handler", "", "handler to use when the URL carries no state")
	authCmd.AddCommand(authLinkCmd, authCallbackCmd, authStatusCmd, authLogoutCmd)
	rootCmd.AddCommand(authCmd)
}
