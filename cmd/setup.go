package cmd

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/tally/internal/cli"
	"github.com/theirongolddev/tally/internal/config"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	Args:  cobra.NoArgs,
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

var daysOptions = []struct {
	label string
	value int
}{
	{"7 days", 7},
	{"30 days", 30},
	{"90 days", 90},
	{"All time", 0},
}

func runSetup(cmd *cobra.Command, _ []string) error {
	if !interactive() {
		return fmt.Errorf("%w: edit %s directly instead", errNotInteractive, config.ConfigPath())
	}

	// Load existing config or defaults
	cfg, err := config.LoadFile()
	if err != nil {
		return err
	}

	days := strconv.Itoa(cfg.General.DefaultDays)
	dayOpts := make([]huh.Option[string], 0, len(daysOptions))
	for _, o := range daysOptions {
		dayOpts = append(dayOpts, huh.NewOption(o.label, strconv.Itoa(o.value)))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to tally!").
				Description("Let's set up a few things. Everything stays on this machine."),
			huh.NewInput().
				Title("Currency symbol").
				Description("Prefixed to every amount you log.").
				Value(&cfg.General.Currency).
				Validate(required("currency")),
			huh.NewSelect[string]().
				Title("Default report window").
				Options(dayOpts...).
				Value(&days),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Color theme").
				Options(huh.NewOptions(cli.ThemeNames()...)...).
				Value(&cfg.Appearance.Theme),
			huh.NewConfirm().
				Title("Require unique usernames?").
				Description("Otherwise only the same username and password together are rejected.").
				Value(&cfg.General.UniqueUsernames),
		),
	).WithTheme(huh.ThemeCharm())

	if err := form.Run(); err != nil {
		return err
	}

	cfg.General.DefaultDays, _ = strconv.Atoi(days)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  Saved to %s\n", config.ConfigPath())
	fmt.Fprintln(out, "  Run `tally setup` anytime to reconfigure.")
	fmt.Fprintln(out)
	return nil
}
