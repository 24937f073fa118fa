package model

// Budgets holds one spending limit per category. Limits are kept as the
// numeric strings the user typed; "" means no limit has been set yet.
//
// A struct (rather than a map) keeps exactly one entry per category, both in
// memory and in the serialized document.
type Budgets struct {
	Food          string `json:"Food"`
	Transport     string `json:"Transport"`
	Utilities     string `json:"Utilities"`
	Entertainment string `json:"Entertainment"`
	Other         string `json:"Other"`
}

// Get returns the limit for c, or "" for an unknown category.
func (b Budgets) Get(c Category) string {
	switch c {
	case Food:
		return b.Food
	case Transport:
		return b.Transport
	case Utilities:
		return b.Utilities
	case Entertainment:
		return b.Entertainment
	case Other:
		return b.Other
	}
	return ""
}

// Set overwrites the limit for c. It reports false for an unknown category.
func (b *Budgets) Set(c Category, amount string) bool {
	switch c {
	case Food:
		b.Food = amount
	case Transport:
		b.Transport = amount
	case Utilities:
		b.Utilities = amount
	case Entertainment:
		b.Entertainment = amount
	case Other:
		b.Other = amount
	default:
		return false
	}
	return true
}
