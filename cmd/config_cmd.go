package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/tally/internal/config"
	"github.com/theirongolddev/tally/internal/store"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		cfg := a.cfg
		out := cmd.OutOrStdout()

		fmt.Fprintf(out, "  Config file: %s\n", config.ConfigPath())
		if config.Exists() {
			fmt.Fprintln(out, "  Status: loaded")
		} else {
			fmt.Fprintln(out, "  Status: using defaults (no config file)")
		}
		fmt.Fprintln(out)

		fmt.Fprintln(out, "  [General]")
		if flagMemory {
			fmt.Fprintln(out, "    Database:         in-memory (--memory)")
		} else {
			fmt.Fprintf(out, "    Database:         %s\n", cfg.DBPath())
		}
		fmt.Fprintf(out, "    Currency:         %s\n", cfg.General.Currency)
		fmt.Fprintf(out, "    Default days:     %d\n", cfg.General.DefaultDays)
		fmt.Fprintf(out, "    Unique usernames: %v\n", cfg.General.UniqueUsernames)
		fmt.Fprintln(out)

		fmt.Fprintln(out, "  [Profile]")
		fmt.Fprintf(out, "    Default avatar: %s\n", cfg.Profile.DefaultAvatarURL)
		fmt.Fprintln(out)

		fmt.Fprintln(out, "  [Appearance]")
		fmt.Fprintf(out, "    Theme: %s\n", cfg.Appearance.Theme)
		fmt.Fprintln(out)

		fmt.Fprintln(out, "  [Log]")
		fmt.Fprintf(out, "    Level: %s\n", cfg.Log.Level)
		if cfg.Log.File != "" {
			fmt.Fprintf(out, "    File:  %s\n", cfg.Log.File)
		}
		fmt.Fprintln(out)

		if db, ok := a.kv.(*store.SQLite); ok {
			keys, err := db.Keys(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "  Stored keys: %v\n\n", keys)
		}

		fmt.Fprintln(out, "  Run `tally setup` to reconfigure.")
		return nil
	})
}
