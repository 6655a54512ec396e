package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/parleyhq/parley/backend"
)

func init() {
	rootCmd.AddCommand(loginCmd, logoutCmd, statusCmd)
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store a credential",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		authStore, err := newAuthStore()
		if err != nil {
			return err
		}
		res, err := authStore.Login(cmd.Context())
		if err != nil {
			return fmt.Errorf("login: %w", err)
		}
		fmt.Println(res.Message)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored credential",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		authStore, err := newAuthStore()
		if err != nil {
			return err
		}
		if err := authStore.Logout(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("Signed out.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show authentication and backend status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		authStore, err := newAuthStore()
		if err != nil {
			return err
		}
		st, err := authStore.Status(cmd.Context())
		if err != nil {
			return err
		}
		if !st.Authenticated {
			fmt.Println("Not signed in. Run: parley login")
			return nil
		}
		fmt.Printf("Signed in as %s\n", st.User)

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		client := backend.New(cfg.Backend.URL, authStore,
			backend.WithHandshakeTimeouts(cfg.Backend.HealthTimeout(), cfg.Backend.InitTimeout()))
		if err := client.Health(cmd.Context()); err != nil {
			fmt.Printf("Backend %s: unreachable (%v)\n", cfg.Backend.URL, err)
			return nil
		}
		fmt.Printf("Backend %s: healthy\n", cfg.Backend.URL)
		return nil
	},
}
