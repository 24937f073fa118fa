package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/tally/internal/cli"
)

var (
	flagNewUsername string
	flagNewPassword string
	flagAvatarURL   string
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Edit your username, password or avatar",
	Long: "Edit the logged-in user's profile. With no flags an interactive form\n" +
		"is shown, prefilled with the current values.",
	Args: cobra.NoArgs,
	RunE: runProfile,
}

func init() {
	profileCmd.Flags().StringVar(&flagNewUsername, "username", "", "New username")
	profileCmd.Flags().StringVar(&flagNewPassword, "password", "", "New password")
	profileCmd.Flags().StringVar(&flagAvatarURL, "avatar", "", "New avatar URL")
	rootCmd.AddCommand(profileCmd)
}

func runProfile(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		u, ok := a.users.CurrentUser()
		if !ok {
			return notLoggedIn()
		}

		flagsSet := cmd.Flags().Changed("username") || cmd.Flags().Changed("password") || cmd.Flags().Changed("avatar")
		switch {
		case flagsSet:
			if cmd.Flags().Changed("username") {
				u.Username = strings.TrimSpace(flagNewUsername)
			}
			if cmd.Flags().Changed("password") {
				u.Password = flagNewPassword
			}
			if cmd.Flags().Changed("avatar") {
				u.AvatarURL = strings.TrimSpace(flagAvatarURL)
			}
		case interactive():
			form := huh.NewForm(huh.NewGroup(
				huh.NewInput().Title("Username").Value(&u.Username).Validate(required("username")),
				huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&u.Password).Validate(required("password")),
				huh.NewInput().Title("Avatar URL").Value(&u.AvatarURL),
			).Title("Edit profile")).WithTheme(huh.ThemeCharm())
			if err := form.Run(); err != nil {
				if errors.Is(err, huh.ErrUserAborted) {
					return nil
				}
				return err
			}
		default:
			return fmt.Errorf("%w: pass --username, --password or --avatar", errNotInteractive)
		}

		if u.Username == "" || u.Password == "" {
			return errors.New("username and password cannot be empty")
		}
		if err := a.users.UpdateUserProfile(ctx, u); err != nil {
			return err
		}
		info(cmd, "%s Profile updated.", cli.Success("✓"))
		return nil
	})
}
