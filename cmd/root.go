// Package cmd implements the tally CLI commands.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/tally/internal/cli"
	"github.com/theirongolddev/tally/internal/config"
	"github.com/theirongolddev/tally/internal/ledger"
	"github.com/theirongolddev/tally/internal/logging"
	"github.com/theirongolddev/tally/internal/store"
)

var (
	flagDBPath   string
	flagMemory   bool
	flagQuiet    bool
	flagLogLevel string
	flagDays     int
)

var rootCmd = &cobra.Command{
	Use:           "tally",
	Short:         "Personal budgets and expenses",
	Long:          "Track what you spend against per-category budgets, entirely on this machine.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runHome,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "  "+cli.Danger("error:")+" "+err.Error())
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Database path (default from config)")
	rootCmd.PersistentFlags().BoolVar(&flagMemory, "memory", false, "Use a throwaway in-memory store")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress informational output")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Diagnostic log level (debug, info, warning, error)")
	rootCmd.PersistentFlags().IntVarP(&flagDays, "days", "n", 0, "Time window in days (default from config, 0 = all)")
}

// sessionKey holds the id of the logged-in user between invocations.
const sessionKey = "session"

// app is the state shared by one command invocation.
type app struct {
	cfg      config.Config
	log      *logrus.Logger
	kv       store.KV
	users    *ledger.UserStore
	closeLog func() error
}

// openApp loads configuration, opens the store and restores the session.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	if flagDBPath != "" {
		cfg.General.DataPath = flagDBPath
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cli.SetTheme(cfg.Appearance.Theme)

	logger, closeLog, err := logging.New(logging.Options{
		Level: cfg.Log.Level,
		File:  cfg.Log.File,
	})
	if err != nil {
		return nil, err
	}

	var kv store.KV
	if flagMemory {
		kv = store.NewMemory()
	} else {
		db, err := store.Open(cfg.DBPath())
		if err != nil {
			_ = closeLog()
			return nil, fmt.Errorf("opening %s: %w", cfg.DBPath(), err)
		}
		kv = db
	}

	a := &app{
		cfg:      cfg,
		log:      logger,
		kv:       kv,
		closeLog: closeLog,
		users: ledger.New(kv,
			ledger.WithLogger(logging.Component(logger, "ledger")),
			ledger.WithDefaultAvatar(cfg.Profile.DefaultAvatarURL),
			ledger.WithUniqueUsernames(cfg.General.UniqueUsernames),
		),
	}

	if err := a.restoreSession(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) restoreSession(ctx context.Context) error {
	id, ok, err := a.kv.Get(ctx, sessionKey)
	if err != nil {
		return fmt.Errorf("reading session: %w", err)
	}
	if !ok || id == "" {
		return nil
	}
	if _, err := a.users.Resume(ctx, id); err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			a.log.WithField("user_id", id).Warn("session refers to a missing user, clearing it")
			return a.kv.Delete(ctx, sessionKey)
		}
		return err
	}
	return nil
}

func (a *app) saveSession(ctx context.Context, userID string) error {
	if err := a.kv.Set(ctx, sessionKey, userID); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

func (a *app) clearSession(ctx context.Context) error {
	a.users.Logout()
	if err := a.kv.Delete(ctx, sessionKey); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}

// days returns the report window, preferring --days over the config.
func (a *app) days() int {
	if flagDays > 0 {
		return flagDays
	}
	return a.cfg.General.DefaultDays
}

func (a *app) currency() string {
	return a.cfg.General.Currency
}

// Close releases the store and the log file.
func (a *app) Close() error {
	err := a.kv.Close()
	if cerr := a.closeLog(); err == nil {
		err = cerr
	}
	return err
}

// withApp opens the app for the duration of fn.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			a.log.WithError(err).Warn("closing store")
		}
	}()
	return fn(ctx, a)
}

func notLoggedIn() error {
	return fmt.Errorf("%w: run `tally login` or `tally signup` first", ledger.ErrNoCurrentUser)
}

// info prints progress chatter unless --quiet is set.
func info(cmd *cobra.Command, format string, args ...any) {
	if flagQuiet {
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "  "+format+"\n", args...)
}
