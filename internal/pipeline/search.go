package pipeline

import (
	"strings"
	"time"

	"github.com/theirongolddev/tally/internal/model"
)

// Query filters a spending log.
type Query struct {
	// Text matches the category case-insensitively or the amount string
	// as typed. Empty matches everything.
	Text string
	// Date is matched as a substring of each expenditure's local
	// "YYYY-MM-DD" date, so "2024-03" selects a month. Empty matches everything.
	Date string
	// Loc is the zone dates are read in. Nil means time.Local.
	Loc *time.Location
}

// Search returns the expenditures matching q, in log order.
func Search(exps []model.Expenditure, q Query) []model.Expenditure {
	loc := q.Loc
	if loc == nil {
		loc = time.Local
	}
	text := strings.TrimSpace(q.Text)
	date := strings.TrimSpace(q.Date)

	var result []model.Expenditure
	for _, e := range exps {
		if text != "" && !containsIgnoreCase(string(e.Category), text) && !strings.Contains(e.Amount, text) {
			continue
		}
		if date != "" {
			t, ok := e.Time()
			if !ok || !strings.Contains(t.In(loc).Format("2006-01-02"), date) {
				continue
			}
		}
		result = append(result, e)
	}
	return result
}

// FilterByCategory returns the expenditures in category c.
func FilterByCategory(exps []model.Expenditure, c model.Category) []model.Expenditure {
	var result []model.Expenditure
	for _, e := range exps {
		if e.Category == c {
			result = append(result, e)
		}
	}
	return result
}

func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
