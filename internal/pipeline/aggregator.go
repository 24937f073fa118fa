// Package pipeline derives budget checks, summaries and search results from a
// user's spending log.
package pipeline

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/tally/internal/model"
	"github.com/theirongolddev/tally/internal/money"
)

// BudgetCheck is the outcome of testing a prospective expenditure against
// its category's limit.
type BudgetCheck struct {
	Category  model.Category
	Spent     decimal.Decimal // already logged in the category
	Amount    decimal.Decimal // the prospective expenditure
	Projected decimal.Decimal // Spent + Amount
	Limit     decimal.Decimal
	HasLimit  bool
	Over      bool
}

// CheckBudget reports whether adding amount to category would exceed u's
// limit for it. An empty limit counts as zero, so any positive spend is over.
// A limit that can't be parsed imposes no limit. The result is advisory;
// nothing is blocked.
func CheckBudget(u model.User, category model.Category, amount decimal.Decimal) BudgetCheck {
	spent, _ := categorySpent(u.Expenditures, category)
	bc := BudgetCheck{
		Category:  category,
		Spent:     spent,
		Amount:    amount,
		Projected: spent.Add(amount),
	}

	raw := u.Budgets.Get(category)
	if limit, ok := money.ParseLimit(raw); ok {
		bc.Limit, bc.HasLimit = limit, true
	} else if isBlank(raw) {
		bc.Limit, bc.HasLimit = decimal.Zero, true
	}
	bc.Over = bc.HasLimit && bc.Projected.GreaterThan(bc.Limit)
	return bc
}

// CategorySpend is one category's row in a Summary.
type CategorySpend struct {
	Category model.Category
	Spent    decimal.Decimal
	Count    int
	Limit    decimal.Decimal
	HasLimit bool    // false when the budget is unset or unparseable
	UsedPct  float64 // Spent as a percentage of Limit; 0 without a positive limit
}

// Summary aggregates a window of expenditures.
type Summary struct {
	Total      decimal.Decimal
	Count      int
	Unparsed   int // entries whose amount couldn't be read
	ByCategory []CategorySpend
}

// Summarize totals u's expenditures within [since, until), broken down per
// category in display order. Expenditures with a category outside the fixed
// set count towards Total but have no row.
func Summarize(u model.User, since, until time.Time) Summary {
	filtered := FilterByTime(u.Expenditures, since, until)

	rows := make(map[model.Category]*CategorySpend, len(model.AllCategories))
	for _, c := range model.AllCategories {
		rows[c] = &CategorySpend{Category: c, Spent: decimal.Zero}
	}

	s := Summary{Total: decimal.Zero}
	for _, e := range filtered {
		d, err := money.Parse(e.Amount)
		if err != nil {
			s.Unparsed++
			continue
		}
		s.Count++
		s.Total = s.Total.Add(d)
		if row, ok := rows[e.Category]; ok {
			row.Count++
			row.Spent = row.Spent.Add(d)
		}
	}

	s.ByCategory = make([]CategorySpend, 0, len(model.AllCategories))
	for _, c := range model.AllCategories {
		row := rows[c]
		if limit, ok := money.ParseLimit(u.Budgets.Get(c)); ok {
			row.Limit, row.HasLimit = limit, true
			if limit.IsPositive() {
				row.UsedPct = row.Spent.Div(limit).Mul(decimal.NewFromInt(100)).InexactFloat64()
			}
		}
		s.ByCategory = append(s.ByCategory, *row)
	}
	return s
}

// TotalSpent sums every parseable amount in exps.
func TotalSpent(exps []model.Expenditure) decimal.Decimal {
	amounts := make([]string, len(exps))
	for i, e := range exps {
		amounts[i] = e.Amount
	}
	total, _ := money.Sum(amounts)
	return total
}

// DaySpend is the spending of one local calendar day.
type DaySpend struct {
	Date  time.Time
	Spent decimal.Decimal
	Count int
}

// AggregateDays computes per-day totals within [since, until), most recent
// first. Days without spending are included as zeros.
func AggregateDays(exps []model.Expenditure, since, until time.Time) []DaySpend {
	dayMap := make(map[string]*DaySpend)

	for _, e := range FilterByTime(exps, since, until) {
		t, ok := e.Time()
		if !ok {
			continue
		}
		d, err := money.Parse(e.Amount)
		if err != nil {
			continue
		}
		dayKey := t.Local().Format("2006-01-02")
		ds, ok := dayMap[dayKey]
		if !ok {
			day, _ := time.ParseInLocation("2006-01-02", dayKey, time.Local)
			ds = &DaySpend{Date: day, Spent: decimal.Zero}
			dayMap[dayKey] = ds
		}
		ds.Count++
		ds.Spent = ds.Spent.Add(d)
	}

	if !since.IsZero() && !until.IsZero() {
		day := startOfDay(since.Local())
		for day.Before(until) {
			dayKey := day.Format("2006-01-02")
			if _, ok := dayMap[dayKey]; !ok {
				dayMap[dayKey] = &DaySpend{Date: day, Spent: decimal.Zero}
			}
			day = day.AddDate(0, 0, 1)
		}
	}

	days := make([]DaySpend, 0, len(dayMap))
	for _, ds := range dayMap {
		days = append(days, *ds)
	}
	sort.Slice(days, func(i, j int) bool {
		return days[i].Date.After(days[j].Date)
	})
	return days
}

// FilterByTime returns expenditures whose timestamp falls within
// [since, until). A zero bound is open. With any bound set, entries whose
// timestamp can't be parsed are dropped.
func FilterByTime(exps []model.Expenditure, since, until time.Time) []model.Expenditure {
	if since.IsZero() && until.IsZero() {
		return exps
	}

	var result []model.Expenditure
	for _, e := range exps {
		t, ok := e.Time()
		if !ok {
			continue
		}
		if !since.IsZero() && t.Before(since) {
			continue
		}
		if !until.IsZero() && !t.Before(until) {
			continue
		}
		result = append(result, e)
	}
	return result
}

func categorySpent(exps []model.Expenditure, c model.Category) (decimal.Decimal, int) {
	var amounts []string
	for _, e := range exps {
		if e.Category == c {
			amounts = append(amounts, e.Amount)
		}
	}
	return money.Sum(amounts)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
