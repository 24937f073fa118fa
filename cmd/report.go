package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/tally/internal/cli"
	"github.com/theirongolddev/tally/internal/pipeline"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Spending breakdown by category and day",
	Args:  cobra.NoArgs,
	RunE:  runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(_ context.Context, a *app) error {
		u, ok := a.users.CurrentUser()
		if !ok {
			return notLoggedIn()
		}

		days := a.days()
		if days <= 0 {
			days = 30
		}
		now := time.Now()
		until := now.AddDate(0, 0, 1)
		until = time.Date(until.Year(), until.Month(), until.Day(), 0, 0, 0, 0, time.Local)
		since := until.AddDate(0, 0, -days)

		summary := pipeline.Summarize(u, since, until)
		out := cmd.OutOrStdout()

		fmt.Fprintln(out)
		fmt.Fprintln(out, cli.RenderTitle(fmt.Sprintf("SPENDING  %s  Last %dd", u.Username, days)))
		fmt.Fprintln(out)

		if summary.Count == 0 {
			fmt.Fprintln(out, "  No expenditures in the selected time range.")
			return nil
		}

		cur := a.currency()
		rows := make([][]string, 0, len(summary.ByCategory)+2)
		for _, row := range summary.ByCategory {
			share := ""
			if summary.Total.IsPositive() {
				share = cli.FormatPercent(row.Spent.Div(summary.Total).InexactFloat64())
			}
			rows = append(rows, []string{
				string(row.Category),
				cli.FormatNumber(int64(row.Count)),
				cli.FormatMoney(row.Spent, cur),
				share,
			})
		}
		rows = append(rows, []string{"---"})
		rows = append(rows, []string{"Total", cli.FormatNumber(int64(summary.Count)), cli.FormatMoney(summary.Total, cur), ""})

		fmt.Fprint(out, cli.RenderTable(cli.Table{
			Title:   "By category",
			Headers: []string{"Category", "Entries", "Spent", "Share"},
			Rows:    rows,
		}))
		fmt.Fprintln(out)

		daily := pipeline.AggregateDays(u.Expenditures, since, until)
		// AggregateDays is newest first; the sparkline reads left to right.
		values := make([]float64, len(daily))
		for i, d := range daily {
			values[len(daily)-1-i] = d.Spent.InexactFloat64()
		}
		perDay := summary.Total.Div(decimal.NewFromInt(int64(days)))
		fmt.Fprintf(out, "  %s %s  %s/day\n\n", cli.Header("Daily"), cli.RenderSparkline(values), cli.FormatMoney(perDay, cur))

		limit := len(daily)
		if limit > 7 {
			limit = 7
		}
		dayRows := make([][]string, 0, limit)
		for _, d := range daily[:limit] {
			dayRows = append(dayRows, []string{
				d.Date.Format("Jan 02") + " " + cli.FormatDayOfWeek(int(d.Date.Weekday())),
				cli.FormatNumber(int64(d.Count)),
				cli.FormatMoney(d.Spent, cur),
			})
		}
		fmt.Fprint(out, cli.RenderTable(cli.Table{
			Title:   "Recent days",
			Headers: []string{"Day", "Entries", "Spent"},
			Rows:    dayRows,
		}))

		if summary.Unparsed > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "\n  %s\n", cli.Warn(fmt.Sprintf("%d expenditures have unreadable amounts", summary.Unparsed)))
		}
		return nil
	})
}
