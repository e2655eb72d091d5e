package core

import (
	"math"
	"testing"
)

var (
	catFood      = &Category{ID: 1, Name: "Food", Icon: "🍔", Color: "#FF6B6B"}
	catTransport = &Category{ID: 2, Name: "Transport", Icon: "🚗", Color: "#45B7D1"}
	catHousing   = &Category{ID: 3, Name: "Housing", Icon: "🏠", Color: "#4ECDC4"}
)

func exp(date Date, desc string, cents int64, cat *Category) Expense {
	return Expense{Date: date, Description: desc, Amount: Money{Cents: cents}, Category: cat}
}

func sampleExpenses() []Expense {
	return []Expense{
		exp(NewDate(2024, 3, 1), "Coffee", 500, catFood),
		exp(NewDate(2024, 3, 1), "Bus", 200, catTransport),
		exp(NewDate(2024, 2, 28), "Rent", 50000, catHousing),
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	if s.Total.Cents != 0 || s.Count != 0 {
		t.Fatalf("empty summary = total %d count %d, want zeros", s.Total.Cents, s.Count)
	}
	if len(s.ByCategory) != 0 {
		t.Fatalf("empty summary has %d category buckets", len(s.ByCategory))
	}
}

func TestSummarizeTotals(t *testing.T) {
	s := Summarize(sampleExpenses())
	if s.Total.Cents != 50700 {
		t.Fatalf("total = %d, want 50700", s.Total.Cents)
	}
	if s.Count != 3 {
		t.Fatalf("count = %d, want 3", s.Count)
	}
	// Every amount attributed to exactly one bucket
	var sum int64
	for _, v := range s.ByCategory {
		sum += v.Cents
	}
	if sum != s.Total.Cents {
		t.Fatalf("byCategory sum = %d, total = %d", sum, s.Total.Cents)
	}
}

func TestSummarizeUncategorized(t *testing.T) {
	expenses := []Expense{
		exp(NewDate(2024, 3, 1), "Mystery", 300, nil),
		exp(NewDate(2024, 3, 1), "Coffee", 500, catFood),
	}
	s := Summarize(expenses)
	if got := s.ByCategory[UncategorizedLabel].Cents; got != 300 {
		t.Fatalf("uncategorized bucket = %d, want 300", got)
	}
}

func TestDailySeriesZeroFill(t *testing.T) {
	expenses := []Expense{
		exp(NewDate(2024, 3, 1), "a", 100, nil),
		exp(NewDate(2024, 3, 3), "b", 300, nil),
	}
	series := DailySeries(expenses, NewDate(2024, 3, 1), NewDate(2024, 3, 3))
	if len(series) != 3 {
		t.Fatalf("series length = %d, want 3", len(series))
	}
	wantCents := []int64{100, 0, 300}
	for i, p := range series {
		if p.Amount.Cents != wantCents[i] {
			t.Fatalf("day %d amount = %d, want %d", i, p.Amount.Cents, wantCents[i])
		}
	}
	if series[0].Label != "Mar 01" {
		t.Fatalf("label = %q, want Mar 01", series[0].Label)
	}
	if series[1].Date.Key() != "2024-03-02" {
		t.Fatalf("middle day = %q, want 2024-03-02", series[1].Date.Key())
	}
}

func TestDailySeriesDegenerate(t *testing.T) {
	if got := DailySeries(nil, NewDate(2024, 3, 3), NewDate(2024, 3, 1)); got != nil {
		t.Fatalf("inverted window should yield empty series, got %d points", len(got))
	}
	series := DailySeries(nil, NewDate(2024, 3, 1), NewDate(2024, 3, 1))
	if len(series) != 1 || series[0].Amount.Cents != 0 {
		t.Fatalf("single empty day should yield one zero point, got %+v", series)
	}
}

func TestBreakdownOrderAndPercentages(t *testing.T) {
	entries := Breakdown(sampleExpenses())
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	if entries[0].Name != "Housing" || entries[1].Name != "Food" || entries[2].Name != "Transport" {
		t.Fatalf("unexpected order: %s, %s, %s", entries[0].Name, entries[1].Name, entries[2].Name)
	}
	var pctSum float64
	for _, e := range entries {
		pctSum += e.Percentage
	}
	if math.Abs(pctSum-100) > 0.5 {
		t.Fatalf("percentages sum to %.1f, want ~100", pctSum)
	}
	// Category colors kept when present
	if entries[0].Color != catHousing.Color {
		t.Fatalf("color = %q, want %q", entries[0].Color, catHousing.Color)
	}
}

func TestBreakdownFallbackColorByRank(t *testing.T) {
	expenses := []Expense{
		exp(NewDate(2024, 3, 1), "a", 300, nil),
		exp(NewDate(2024, 3, 1), "b", 200, &Category{ID: 9, Name: "Plain"}),
	}
	first := Breakdown(expenses)
	second := Breakdown(expenses)
	if first[0].Color != FallbackColors[0] || first[1].Color != FallbackColors[1] {
		t.Fatalf("fallback colors = %q, %q", first[0].Color, first[1].Color)
	}
	for i := range first {
		if first[i].Color != second[i].Color {
			t.Fatalf("color assignment not reproducible at rank %d", i)
		}
	}
}

func TestBreakdownZeroTotal(t *testing.T) {
	expenses := []Expense{exp(NewDate(2024, 3, 1), "free", 0, catFood)}
	entries := Breakdown(expenses)
	if len(entries) != 1 || entries[0].Percentage != 0 {
		t.Fatalf("zero total should yield zero percentages, got %+v", entries)
	}
}

func TestCompareMonths(t *testing.T) {
	cases := []struct {
		this, prior int64
		dir         ChangeDirection
		percent     int
		hasPrior    bool
	}{
		{0, 0, Unchanged, 0, false},
		{15000, 0, Unchanged, 0, false},
		{15000, 10000, Increased, 50, true},
		{5000, 10000, Decreased, 50, true},
		{10000, 10000, Unchanged, 0, true},
		{10000, 30000, Decreased, 67, true},
	}
	for i, tc := range cases {
		got := CompareMonths(Money{Cents: tc.this}, Money{Cents: tc.prior})
		if got.Direction != tc.dir || got.Percent != tc.percent || got.HasPrior != tc.hasPrior {
			t.Fatalf("case %d: got %+v, want dir=%s percent=%d hasPrior=%v",
				i, got, tc.dir, tc.percent, tc.hasPrior)
		}
	}
}
