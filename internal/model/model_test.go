package model

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestParseCategory(t *testing.T) {
	for _, in := range []string{"food", "FOOD", " Food "} {
		c, err := ParseCategory(in)
		if err != nil || c != Food {
			t.Errorf("ParseCategory(%q) = %q, %v; want Food", in, c, err)
		}
	}
	if _, err := ParseCategory("Rent"); err == nil {
		t.Error("ParseCategory(Rent) succeeded, want error")
	}
}

func TestBudgets_GetSet(t *testing.T) {
	var b Budgets
	for i, c := range AllCategories {
		if !b.Set(c, strings.Repeat("1", i+1)) {
			t.Fatalf("Set(%s) reported unknown category", c)
		}
	}
	for i, c := range AllCategories {
		if got, want := b.Get(c), strings.Repeat("1", i+1); got != want {
			t.Errorf("Get(%s) = %q, want %q", c, got, want)
		}
	}
	if b.Set("Rent", "5") {
		t.Error("Set(Rent) reported success")
	}
	if b.Get("Rent") != "" {
		t.Error("Get(Rent) should be empty")
	}
}

func TestUserJSONFieldNames(t *testing.T) {
	u := User{
		ID:       "1",
		Username: "rohan",
		Password: "pw",
		Expenditures: []Expenditure{
			{ID: "e1", Amount: "£1.00", Category: Food, DateTime: "2024-03-14T09:26:53.000Z"},
		},
		AvatarURL: "https://example.com/a.png",
	}
	data, err := json.Marshal(u)
	if err != nil {
		t.Fatal(err)
	}
	for _, field := range []string{`"budgets":{"Food":""`, `"dateTime":"2024-03-14T09:26:53.000Z"`, `"avatarUrl"`, `"expenditures":[`} {
		if !strings.Contains(string(data), field) {
			t.Errorf("encoded user missing %s: %s", field, data)
		}
	}
}

func TestClone_DoesNotAlias(t *testing.T) {
	u := User{Expenditures: []Expenditure{{ID: "a"}}}
	c := u.Clone()
	c.Expenditures[0].ID = "b"
	if u.Expenditures[0].ID != "a" {
		t.Error("Clone shares the expenditure slice")
	}
}

func TestExpenditureTime(t *testing.T) {
	at := time.Date(2024, 3, 14, 9, 26, 53, 0, time.UTC)
	e := Expenditure{DateTime: FormatDateTime(at)}
	if e.DateTime != "2024-03-14T09:26:53.000Z" {
		t.Errorf("FormatDateTime = %q", e.DateTime)
	}
	got, ok := e.Time()
	if !ok || !got.Equal(at) {
		t.Errorf("Time() = %v, %v; want %v", got, ok, at)
	}
	if _, ok := (Expenditure{DateTime: "14/03/2024"}).Time(); ok {
		t.Error("malformed timestamp parsed")
	}
	if i := (User{Expenditures: []Expenditure{{ID: "x"}, {ID: "y"}}}).ExpenditureIndex("y"); i != 1 {
		t.Errorf("ExpenditureIndex(y) = %d, want 1", i)
	}
}
