package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/tally/internal/cli"
	"github.com/theirongolddev/tally/internal/ledger"
	"github.com/theirongolddev/tally/internal/model"
	"github.com/theirongolddev/tally/internal/money"
	"github.com/theirongolddev/tally/internal/pipeline"
)

var (
	flagYes        bool
	flagRmYes      bool
	flagAt         string
	flagEditAmount string
	flagEditCat    string
	flagSearch     string
	flagSearchDate string
	flagListCat    string
)

var spendCmd = &cobra.Command{
	Use:     "spend",
	Aliases: []string{"exp"},
	Short:   "Log, edit and list expenditures",
	Args:    cobra.NoArgs,
	RunE:    runSpendList,
}

var spendAddCmd = &cobra.Command{
	Use:   "add <amount> <category>",
	Short: "Log an expenditure",
	Long: "Log an expenditure for the logged-in user. If it would take the\n" +
		"category over its budget you are asked to confirm first.",
	Example: "  tally spend add 12.50 food\n" +
		"  tally spend add 40 transport --at 2024-03-01 --yes",
	Args: cobra.ExactArgs(2),
	RunE: runSpendAdd,
}

var spendEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change the amount or category of an expenditure",
	Args:  cobra.ExactArgs(1),
	RunE:  runSpendEdit,
}

var spendRmCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"delete"},
	Short:   "Delete an expenditure",
	Long:    "Delete an expenditure. You are asked to confirm unless --yes is given.",
	Args:    cobra.ExactArgs(1),
	RunE:    runSpendRm,
}

var spendLsCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list", "search"},
	Short:   "List expenditures, optionally filtered",
	Args:    cobra.NoArgs,
	RunE:    runSpendList,
}

func init() {
	spendAddCmd.Flags().BoolVarP(&flagYes, "yes", "y", false, "Don't ask before going over budget")
	spendAddCmd.Flags().StringVar(&flagAt, "at", "", "When it happened (YYYY-MM-DD or YYYY-MM-DD HH:MM, default now)")

	spendRmCmd.Flags().BoolVarP(&flagRmYes, "yes", "y", false, "Don't ask before deleting")

	spendEditCmd.Flags().StringVar(&flagEditAmount, "amount", "", "New amount")
	spendEditCmd.Flags().StringVar(&flagEditCat, "category", "", "New category")

	for _, c := range []*cobra.Command{spendCmd, spendLsCmd} {
		c.Flags().StringVarP(&flagSearch, "search", "s", "", "Match category or amount")
		c.Flags().StringVar(&flagSearchDate, "date", "", "Match date (YYYY-MM-DD or a prefix like YYYY-MM)")
		c.Flags().StringVarP(&flagListCat, "category", "c", "", "Only this category")
	}

	spendCmd.AddCommand(spendAddCmd, spendEditCmd, spendRmCmd, spendLsCmd)
	rootCmd.AddCommand(spendCmd)
}

// parseAmount validates user input and renders it the way amounts are
// stored: currency symbol plus two decimals.
func parseAmount(s, currency string) (string, decimal.Decimal, error) {
	d, err := money.Parse(s)
	if err != nil {
		return "", decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}
	if !d.IsPositive() {
		return "", decimal.Zero, fmt.Errorf("invalid amount %q: must be greater than zero", s)
	}
	return money.Format(d, currency), d, nil
}

func parseAt(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{"2006-01-02 15:04", "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid --at %q: want YYYY-MM-DD or YYYY-MM-DD HH:MM", s)
}

func runSpendAdd(cmd *cobra.Command, args []string) error {
	category, err := model.ParseCategory(args[1])
	if err != nil {
		return err
	}
	at, err := parseAt(flagAt)
	if err != nil {
		return err
	}

	return withApp(cmd, func(ctx context.Context, a *app) error {
		u, ok := a.users.CurrentUser()
		if !ok {
			return notLoggedIn()
		}
		amount, value, err := parseAmount(args[0], a.currency())
		if err != nil {
			return err
		}

		check := pipeline.CheckBudget(u, category, value)
		if check.Over {
			desc := fmt.Sprintf("%s spent so far, %s budget. This brings it to %s.",
				cli.FormatMoney(check.Spent, a.currency()),
				cli.FormatMoney(check.Limit, a.currency()),
				cli.FormatMoney(check.Projected, a.currency()))
			ok, err := confirm(fmt.Sprintf("This goes over your %s budget", category), desc, "Add anyway", flagYes)
			if err != nil {
				return err
			}
			if !ok {
				if !interactive() {
					return fmt.Errorf("over the %s budget (%s); re-run with --yes to add it anyway", category, desc)
				}
				info(cmd, "Cancelled.")
				return nil
			}
		}

		e := model.Expenditure{Amount: amount, Category: category}
		if !at.IsZero() {
			e.DateTime = model.FormatDateTime(at)
		}
		added, err := a.users.AddExpenditure(ctx, e)
		if err != nil {
			return err
		}
		info(cmd, "%s Logged %s on %s (%s).", cli.Success("✓"), added.Amount, added.Category, cli.ShortID(added.ID))
		if check.Over {
			info(cmd, "%s", cli.Warn(fmt.Sprintf("%s is now over budget.", category)))
		}
		return nil
	})
}

// resolveExpenditure finds an expenditure by full id or unique id suffix,
// as printed by `spend ls`.
func resolveExpenditure(u model.User, ref string) (model.Expenditure, error) {
	ref = strings.TrimSpace(ref)
	if i := u.ExpenditureIndex(ref); i >= 0 {
		return u.Expenditures[i], nil
	}
	var matches []model.Expenditure
	for _, e := range u.Expenditures {
		if strings.HasSuffix(e.ID, ref) {
			matches = append(matches, e)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return model.Expenditure{}, fmt.Errorf("expenditure %s: %w", ref, ledger.ErrNotFound)
	default:
		return model.Expenditure{}, fmt.Errorf("expenditure id %q is ambiguous (%d matches)", ref, len(matches))
	}
}

func runSpendEdit(cmd *cobra.Command, args []string) error {
	if flagEditAmount == "" && flagEditCat == "" {
		return errors.New("nothing to change: pass --amount and/or --category")
	}

	return withApp(cmd, func(ctx context.Context, a *app) error {
		u, ok := a.users.CurrentUser()
		if !ok {
			return notLoggedIn()
		}
		e, err := resolveExpenditure(u, args[0])
		if err != nil {
			return err
		}
		if flagEditAmount != "" {
			amount, _, err := parseAmount(flagEditAmount, a.currency())
			if err != nil {
				return err
			}
			e.Amount = amount
		}
		if flagEditCat != "" {
			c, err := model.ParseCategory(flagEditCat)
			if err != nil {
				return err
			}
			e.Category = c
		}
		if err := a.users.UpdateExpenditure(ctx, u.ID, e); err != nil {
			return err
		}
		info(cmd, "%s Updated %s: %s on %s.", cli.Success("✓"), cli.ShortID(e.ID), e.Amount, e.Category)
		return nil
	})
}

func runSpendRm(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		u, ok := a.users.CurrentUser()
		if !ok {
			return notLoggedIn()
		}
		e, err := resolveExpenditure(u, args[0])
		if err != nil {
			return err
		}

		what := fmt.Sprintf("%s on %s", e.Amount, e.Category)
		ok, err = confirm("Are you sure you want to delete this expenditure?", what, "Delete", flagRmYes)
		if err != nil {
			return err
		}
		if !ok {
			if !interactive() {
				return fmt.Errorf("not deleting %s (%s); re-run with --yes to delete it", cli.ShortID(e.ID), what)
			}
			info(cmd, "Cancelled.")
			return nil
		}

		if err := a.users.DeleteExpenditure(ctx, e.ID); err != nil {
			return err
		}
		info(cmd, "%s Deleted %s (%s on %s).", cli.Success("✓"), cli.ShortID(e.ID), e.Amount, e.Category)
		return nil
	})
}

func runSpendList(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(_ context.Context, a *app) error {
		u, ok := a.users.CurrentUser()
		if !ok {
			return notLoggedIn()
		}

		exps := u.Expenditures
		if flagDays > 0 {
			exps = pipeline.FilterByTime(exps, time.Now().AddDate(0, 0, -flagDays), time.Time{})
		}
		if flagListCat != "" {
			c, err := model.ParseCategory(flagListCat)
			if err != nil {
				return err
			}
			exps = pipeline.FilterByCategory(exps, c)
		}
		exps = pipeline.Search(exps, pipeline.Query{Text: flagSearch, Date: flagSearchDate})

		out := cmd.OutOrStdout()
		if len(exps) == 0 {
			fmt.Fprintln(out, "\n  No expenditures found.")
			return nil
		}

		rows := make([][]string, 0, len(exps)+2)
		for _, e := range exps {
			t, ok := e.Time()
			rows = append(rows, []string{
				cli.ShortID(e.ID),
				cli.FormatWhen(t, ok, e.DateTime),
				string(e.Category),
				e.Amount,
			})
		}
		rows = append(rows, []string{"---"})
		rows = append(rows, []string{"Total", fmt.Sprintf("%d entries", len(exps)), "",
			cli.FormatMoney(pipeline.TotalSpent(exps), a.currency())})

		fmt.Fprintln(out)
		fmt.Fprint(out, cli.RenderTable(cli.Table{
			Headers: []string{"ID", "When", "Category", "Amount"},
			Rows:    rows,
		}))
		return nil
	})
}
