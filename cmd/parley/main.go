// Command parley is a terminal chat client for a local chat service.
//
// Running it with no arguments opens the chat TUI. Subcommands manage
// credentials and saved transcripts:
//
//	parley login        Sign in and store a credential
//	parley logout       Remove the stored credential
//	parley status       Show authentication and backend status
//	parley transcripts  List saved transcripts
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/parleyhq/parley/auth"
	"github.com/parleyhq/parley/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "parley",
	Short:         "Terminal chat client",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd.Context())
	},
}

func main() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default ~/.parley/config.toml)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "parley: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the configured or default config file.
func loadConfig() (config.Config, error) {
	if configPath != "" {
		return config.Load(configPath)
	}
	return config.LoadDefault()
}

// newAuthStore builds the credential store under the parley state dir.
func newAuthStore() (*auth.FileStore, error) {
	dir, err := config.Dir()
	if err != nil {
		return nil, err
	}
	return auth.NewFileStore(filepath.Join(dir, "credentials.json")), nil
}

// transcriptDir resolves where transcripts are saved.
func transcriptDir(cfg config.Config) (string, error) {
	if cfg.UI.TranscriptDir != "" {
		return cfg.UI.TranscriptDir, nil
	}
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "transcripts"), nil
}
