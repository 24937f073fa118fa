package model

import (
	"fmt"
	"strings"
)

// Category classifies both budgets and expenditures.
type Category string

// The fixed category set. Order here is the display order everywhere.
const (
	Food          Category = "Food"
	Transport     Category = "Transport"
	Utilities     Category = "Utilities"
	Entertainment Category = "Entertainment"
	Other         Category = "Other"
)

// AllCategories lists every category in display order.
var AllCategories = []Category{Food, Transport, Utilities, Entertainment, Other}

// Valid reports whether c is one of the fixed categories.
func (c Category) Valid() bool {
	switch c {
	case Food, Transport, Utilities, Entertainment, Other:
		return true
	}
	return false
}

func (c Category) String() string {
	return string(c)
}

// ParseCategory resolves a category name case-insensitively.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, c := range AllCategories {
		if strings.EqualFold(s, string(c)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q (want one of %s)", s, categoryNames())
}

func categoryNames() string {
	names := make([]string, len(AllCategories))
	for i, c := range AllCategories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}
