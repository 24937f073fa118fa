package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/tally/internal/cli"
	"github.com/theirongolddev/tally/internal/ledger"
	"github.com/theirongolddev/tally/internal/pipeline"
)

var (
	flagUsername string
	flagPassword string
)

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account and log in",
	Args:  cobra.NoArgs,
	RunE:  runSignup,
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to an existing account",
	Args:  cobra.NoArgs,
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in user",
	Args:  cobra.NoArgs,
	RunE:  runWhoami,
}

func init() {
	for _, c := range []*cobra.Command{signupCmd, loginCmd} {
		c.Flags().StringVarP(&flagUsername, "username", "u", "", "Username (prompted if empty)")
		c.Flags().StringVarP(&flagPassword, "password", "p", "", "Password (prompted if empty)")
	}
	rootCmd.AddCommand(signupCmd, loginCmd, logoutCmd, whoamiCmd)
}

func runSignup(cmd *cobra.Command, _ []string) error {
	username, password := flagUsername, flagPassword
	if err := promptCredentials("Create an account", &username, &password); err != nil {
		return err
	}

	return withApp(cmd, func(ctx context.Context, a *app) error {
		u, err := a.users.Register(ctx, username, password)
		if errors.Is(err, ledger.ErrConflict) {
			return fmt.Errorf("an account for %q already exists", username)
		}
		if err != nil {
			return err
		}
		if err := a.saveSession(ctx, u.ID); err != nil {
			return err
		}
		info(cmd, "%s Welcome, %s.", cli.Success("✓"), u.Username)
		info(cmd, "Set a budget with `tally budget set food 200`.")
		return nil
	})
}

func runLogin(cmd *cobra.Command, _ []string) error {
	username, password := flagUsername, flagPassword
	if err := promptCredentials("Log in", &username, &password); err != nil {
		return err
	}

	return withApp(cmd, func(ctx context.Context, a *app) error {
		u, err := a.users.Authenticate(ctx, username, password)
		if errors.Is(err, ledger.ErrNotFound) {
			return errors.New("invalid username or password")
		}
		if err != nil {
			return err
		}
		if err := a.saveSession(ctx, u.ID); err != nil {
			return err
		}
		info(cmd, "%s Logged in as %s.", cli.Success("✓"), u.Username)
		return nil
	})
}

func runLogout(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		if err := a.clearSession(ctx); err != nil {
			return err
		}
		info(cmd, "Logged out.")
		return nil
	})
}

func runWhoami(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(_ context.Context, a *app) error {
		u, ok := a.users.CurrentUser()
		if !ok {
			return notLoggedIn()
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "  %s %s\n", cli.Header("User:  "), u.Username)
		fmt.Fprintf(out, "  %s %s\n", cli.Header("ID:    "), u.ID)
		if u.AvatarURL != "" {
			fmt.Fprintf(out, "  %s %s\n", cli.Header("Avatar:"), u.AvatarURL)
		}
		fmt.Fprintf(out, "  %s %d logged, %s total\n", cli.Header("Spend: "),
			len(u.Expenditures), cli.FormatMoney(pipeline.TotalSpent(u.Expenditures), a.currency()))
		return nil
	})
}
