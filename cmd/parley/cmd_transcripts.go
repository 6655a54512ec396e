package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/parleyhq/parley"
	pjson "github.com/parleyhq/parley/json"
)

func init() {
	rootCmd.AddCommand(transcriptsCmd)
	transcriptsCmd.AddCommand(transcriptsListCmd, transcriptsShowCmd)
}

var transcriptsCmd = &cobra.Command{
	Use:   "transcripts",
	Short: "Manage saved transcripts",
}

var transcriptsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved transcripts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		dir, err := transcriptDir(cfg)
		if err != nil {
			return err
		}

		files, err := pjson.List(dir)
		if errors.Is(err, os.ErrNotExist) || len(files) == 0 {
			fmt.Println("No transcripts found.")
			return nil
		}
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "FILE\tMODE\tENTRIES\tSAVED")
		for _, f := range files {
			tr, err := pjson.Load(filepath.Join(dir, f))
			if err != nil {
				fmt.Fprintf(w, "%s\t-\t-\tunreadable: %v\n", f, err)
				continue
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", f, tr.Mode, len(tr.Entries), tr.SavedAt.Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

var transcriptsShowCmd = &cobra.Command{
	Use:   "show <file>",
	Short: "Print a saved transcript",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		dir, err := transcriptDir(cfg)
		if err != nil {
			return err
		}

		tr, err := pjson.Load(filepath.Join(dir, args[0]))
		if err != nil {
			return fmt.Errorf("load transcript: %w", err)
		}
		for _, e := range tr.Entries {
			fmt.Println(formatEntry(e))
		}
		return nil
	},
}

// formatEntry renders one transcript entry as plain text for stdout.
func formatEntry(e parley.TranscriptEntry) string {
	switch e := e.(type) {
	case parley.UserEntry:
		return "> " + e.Text
	case parley.SystemEntry:
		if e.IsError {
			return "[error] " + e.Text
		}
		return "[system] " + e.Text
	case parley.ActionEntry:
		return "[action] " + e.Text
	case parley.AuthEntry:
		return "[auth] " + e.Text
	case parley.StreamingEntry:
		if e.Note != "" {
			return fmt.Sprintf("%s (%s)", e.Content, e.Note)
		}
		return e.Content
	default:
		return ""
	}
}
