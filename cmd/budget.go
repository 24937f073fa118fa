package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/tally/internal/cli"
	"github.com/theirongolddev/tally/internal/model"
	"github.com/theirongolddev/tally/internal/money"
	"github.com/theirongolddev/tally/internal/pipeline"
)

var budgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "Show or set per-category budgets",
	Args:  cobra.NoArgs,
	RunE:  runBudgetShow,
}

var budgetSetCmd = &cobra.Command{
	Use:   "set <category> <amount>",
	Short: "Set the budget for a category (empty amount clears it)",
	Example: "  tally budget set food 200\n" +
		"  tally budget set transport \"\"",
	Args: cobra.ExactArgs(2),
	RunE: runBudgetSet,
}

var budgetShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show budgets and how much of each is used",
	Args:  cobra.NoArgs,
	RunE:  runBudgetShow,
}

func init() {
	budgetCmd.AddCommand(budgetSetCmd, budgetShowCmd)
	rootCmd.AddCommand(budgetCmd)
}

func runBudgetSet(cmd *cobra.Command, args []string) error {
	category, err := model.ParseCategory(args[0])
	if err != nil {
		return err
	}
	amount := strings.TrimSpace(args[1])
	if amount != "" {
		limit, ok := money.ParseLimit(amount)
		if !ok || limit.IsNegative() {
			return fmt.Errorf("invalid budget %q: want a non-negative number", args[1])
		}
		amount = limit.String()
	}

	return withApp(cmd, func(ctx context.Context, a *app) error {
		u, ok := a.users.CurrentUser()
		if !ok {
			return notLoggedIn()
		}
		if err := a.users.UpdateBudget(ctx, u.ID, category, amount); err != nil {
			return err
		}
		if amount == "" {
			info(cmd, "%s %s budget cleared.", cli.Success("✓"), category)
		} else {
			limit, _ := money.ParseLimit(amount)
			info(cmd, "%s %s budget set to %s.", cli.Success("✓"), category, cli.FormatMoney(limit, a.currency()))
		}
		return nil
	})
}

func runBudgetShow(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(_ context.Context, a *app) error {
		u, ok := a.users.CurrentUser()
		if !ok {
			return notLoggedIn()
		}

		var since time.Time
		label := "all time"
		if d := a.days(); d > 0 {
			since = time.Now().AddDate(0, 0, -d)
			label = fmt.Sprintf("last %dd", d)
		}
		summary := pipeline.Summarize(u, since, time.Time{})

		out := cmd.OutOrStdout()
		fmt.Fprintln(out)
		fmt.Fprintln(out, cli.RenderTitle(fmt.Sprintf("BUDGETS  %s  %s", u.Username, label)))
		fmt.Fprintln(out)
		renderBudgetTable(cmd, a, summary)
		return nil
	})
}

func renderBudgetTable(cmd *cobra.Command, a *app, summary pipeline.Summary) {
	out := cmd.OutOrStdout()
	cur := a.currency()

	rows := make([][]string, 0, len(summary.ByCategory)+2)
	for _, row := range summary.ByCategory {
		budget, left := "not set", ""
		if row.HasLimit {
			budget = cli.FormatMoney(row.Limit, cur)
			left = cli.FormatMoney(row.Limit.Sub(row.Spent), cur)
		}
		rows = append(rows, []string{
			string(row.Category),
			cli.FormatMoney(row.Spent, cur),
			budget,
			left,
		})
	}
	rows = append(rows, []string{"---"})
	rows = append(rows, []string{"Total", cli.FormatMoney(summary.Total, cur), "", ""})

	fmt.Fprint(out, cli.RenderTable(cli.Table{
		Headers: []string{"Category", "Spent", "Budget", "Left"},
		Rows:    rows,
	}))
	fmt.Fprintln(out)

	for _, row := range summary.ByCategory {
		if !row.HasLimit || !row.Limit.IsPositive() {
			continue
		}
		fmt.Fprintln(out, "  "+cli.BudgetBar(string(row.Category), row.UsedPct/100, 14, 30))
	}
	if summary.Unparsed > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "\n  %s\n", cli.Warn(fmt.Sprintf("%d expenditures have unreadable amounts", summary.Unparsed)))
	}
}
