package core

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2024-03-01", "2024-03-01", true},
		{" 2024-03-01 ", "2024-03-01", true},
		{"2024-03-01T10:30:00Z", "2024-03-01", true}, // ISO timestamp tolerated
		{"03/01/2024", "", false},
		{"", "", false},
	}
	for i, tc := range cases {
		d, err := ParseDate(tc.in)
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
		if tc.ok && d.Key() != tc.want {
			t.Fatalf("case %d key = %q, want %q", i, d.Key(), tc.want)
		}
	}
}

func TestExpenseValidate(t *testing.T) {
	good := Expense{
		Date:        NewDate(2025, 1, 1),
		Description: "ok",
		Amount:      Money{Cents: 100},
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Expense{
		{Date: Date{}, Description: "a", Amount: Money{Cents: 1}},
		{Date: NewDate(2025, 1, 1), Description: "", Amount: Money{Cents: 1}},
		{Date: NewDate(2025, 1, 1), Description: "  ", Amount: Money{Cents: 1}},
		{Date: NewDate(2025, 1, 1), Description: "a", Amount: Money{Cents: 0}},
	}
	for i, e := range bads {
		if err := e.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestCategoryValidate(t *testing.T) {
	budget := Money{Cents: 5000}
	if err := (Category{Name: "Food", Budget: &budget}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Category{Name: ""}).Validate(); err == nil {
		t.Fatal("expected error for empty name")
	}
	zero := Money{}
	if err := (Category{Name: "Food", Budget: &zero}).Validate(); err == nil {
		t.Fatal("expected error for zero budget")
	}
}

func TestCategoryNameFallback(t *testing.T) {
	e := Expense{Description: "x", Amount: Money{Cents: 1}}
	if got := e.CategoryName(); got != UncategorizedLabel {
		t.Fatalf("CategoryName = %q, want %q", got, UncategorizedLabel)
	}
	e.Category = &Category{Name: "Food"}
	if got := e.CategoryName(); got != "Food" {
		t.Fatalf("CategoryName = %q, want Food", got)
	}
}

func TestExpenseJSONRoundTrip(t *testing.T) {
	e := Expense{
		ID:          7,
		Date:        NewDate(2024, 3, 1),
		Description: "Coffee",
		Amount:      Money{Cents: 550},
		Category:    &Category{ID: 2, Name: "Food", Icon: "🍔", Color: "#FF6B6B"},
	}
	raw, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Expense
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Date.Key() != "2024-03-01" {
		t.Fatalf("date round-trip = %q", back.Date.Key())
	}
	if back.Amount.Cents != 550 {
		t.Fatalf("amount round-trip = %d cents", back.Amount.Cents)
	}
}
