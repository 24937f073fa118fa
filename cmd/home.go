package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/tally/internal/cli"
	"github.com/theirongolddev/tally/internal/config"
	"github.com/theirongolddev/tally/internal/pipeline"
)

// recentCount is how many of the latest expenditures the overview lists.
const recentCount = 5

func runHome(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(_ context.Context, a *app) error {
		out := cmd.OutOrStdout()
		u, ok := a.users.CurrentUser()
		if !ok {
			fmt.Fprintln(out)
			fmt.Fprintln(out, cli.RenderTitle("TALLY"))
			fmt.Fprintln(out)
			fmt.Fprintln(out, "  Not logged in.")
			fmt.Fprintln(out, cli.Muted("  Create an account with `tally signup` or log in with `tally login`."))
			if !config.Exists() {
				fmt.Fprintln(out, cli.Muted("  Run `tally setup` to pick a currency and theme."))
			}
			return nil
		}

		fmt.Fprintln(out)
		fmt.Fprintln(out, cli.RenderTitle("TALLY  "+u.Username))
		fmt.Fprintln(out)
		fmt.Fprintf(out, "  %s %s across %d entries\n\n", cli.Header("Total spent:"),
			cli.FormatMoney(pipeline.TotalSpent(u.Expenditures), a.currency()), len(u.Expenditures))

		if n := len(u.Expenditures); n > 0 {
			start := max(0, n-recentCount)
			rows := make([][]string, 0, n-start)
			for i := n - 1; i >= start; i-- {
				e := u.Expenditures[i]
				t, ok := e.Time()
				rows = append(rows, []string{string(e.Category), e.Amount, cli.FormatWhen(t, ok, e.DateTime)})
			}
			fmt.Fprint(out, cli.RenderTable(cli.Table{
				Title:   "Latest",
				Headers: []string{"Category", "Amount", "When"},
				Rows:    rows,
			}))
			fmt.Fprintln(out)
		}

		var since time.Time
		if d := a.days(); d > 0 {
			since = time.Now().AddDate(0, 0, -d)
		}
		renderBudgetTable(cmd, a, pipeline.Summarize(u, since, time.Time{}))
		return nil
	})
}
