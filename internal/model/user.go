// Package model defines the domain types for tally users and their spending.
package model

import "time"

// DateTimeLayout is the ISO-8601 form used for Expenditure.DateTime.
const DateTimeLayout = "2006-01-02T15:04:05.000Z07:00"

// User is one account together with its budgets and spending log.
type User struct {
	ID           string        `json:"id"`
	Username     string        `json:"username"`
	Password     string        `json:"password"`
	Budgets      Budgets       `json:"budgets"`
	Expenditures []Expenditure `json:"expenditures"`
	AvatarURL    string        `json:"avatarUrl,omitempty"`
}

// Expenditure is a single logged spending event.
type Expenditure struct {
	ID       string   `json:"id"`
	Amount   string   `json:"amount"` // currency-prefixed, e.g. "£12.50"
	Category Category `json:"category"`
	DateTime string   `json:"dateTime"`
}

// Time parses DateTime. Entries with a malformed timestamp return ok=false.
func (e Expenditure) Time() (time.Time, bool) {
	t, err := time.Parse(time.RFC3339Nano, e.DateTime)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// FormatDateTime renders t the way Expenditure.DateTime stores it.
func FormatDateTime(t time.Time) string {
	return t.UTC().Format(DateTimeLayout)
}

// Clone returns a deep copy so callers can't alias the store's slices.
func (u User) Clone() User {
	c := u
	if u.Expenditures != nil {
		c.Expenditures = make([]Expenditure, len(u.Expenditures))
		copy(c.Expenditures, u.Expenditures)
	}
	return c
}

// ExpenditureIndex returns the position of the expenditure with id, or -1.
func (u User) ExpenditureIndex(id string) int {
	for i, e := range u.Expenditures {
		if e.ID == id {
			return i
		}
	}
	return -1
}
