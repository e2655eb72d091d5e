package core

import (
	"math"
	"sort"
)

// FallbackColors is the fixed palette used for breakdown entries whose
// category carries no color. Assignment is by rank index so repeated runs
// over the same input produce the same colors.
var FallbackColors = []string{
	"#9333ea", "#3b82f6", "#22c55e", "#f59e0b",
	"#ef4444", "#ec4899", "#06b6d4", "#8b5cf6",
}

type (
	// Summary is the basic aggregate over an expense collection. It is
	// derived data, always computed fresh and never persisted.
	Summary struct {
		Total      Money            `json:"total"`
		Count      int              `json:"count"`
		ByCategory map[string]Money `json:"byCategory"`
	}

	// DailyPoint is one calendar day of a zero-filled spending series.
	DailyPoint struct {
		Date   Date   `json:"date"`
		Label  string `json:"label"`
		Amount Money  `json:"amount"`
	}

	// BreakdownEntry is one slice of the category spend distribution.
	BreakdownEntry struct {
		Name       string  `json:"name"`
		Icon       string  `json:"icon"`
		Color      string  `json:"color"`
		Amount     Money   `json:"amount"`
		Percentage float64 `json:"percentage"`
	}

	ChangeDirection string

	// MonthComparison reports the spend change between two periods.
	// HasPrior is false when the prior period had no spending, in which
	// case no percentage is meaningful.
	MonthComparison struct {
		This      Money           `json:"thisMonth"`
		Prior     Money           `json:"priorMonth"`
		Direction ChangeDirection `json:"direction"`
		Percent   int             `json:"percent"`
		HasPrior  bool            `json:"hasPrior"`
	}
)

const (
	Increased ChangeDirection = "increased"
	Decreased ChangeDirection = "decreased"
	Unchanged ChangeDirection = "unchanged"
)

// Summarize computes total, count and per-category sums for the given
// expenses. Every amount is attributed to exactly one bucket; expenses
// without a resolvable category land in UncategorizedLabel. An empty
// input yields a zero summary, never an error.
func Summarize(expenses []Expense) Summary {
	s := Summary{ByCategory: make(map[string]Money)}
	for _, e := range expenses {
		s.Total.Cents += e.Amount.Cents
		s.Count++
		name := e.CategoryName()
		bucket := s.ByCategory[name]
		bucket.Cents += e.Amount.Cents
		s.ByCategory[name] = bucket
	}
	return s
}

// DailySeries buckets expenses into one point per calendar day over the
// inclusive [start, end] window. Days without expenses appear with a zero
// amount; there are never gaps. An inverted window yields an empty series.
func DailySeries(expenses []Expense, start, end Date) []DailyPoint {
	if start.IsZero() || end.IsZero() || start.After(end.Time) {
		return nil
	}

	perDay := make(map[string]int64, len(expenses))
	for _, e := range expenses {
		perDay[e.Date.Key()] += e.Amount.Cents
	}

	var series []DailyPoint
	for d := start; !d.After(end.Time); d = d.NextDay() {
		series = append(series, DailyPoint{
			Date:   d,
			Label:  d.Format("Jan 02"),
			Amount: Money{Cents: perDay[d.Key()]},
		})
	}
	return series
}

// Breakdown computes the category spend distribution, sorted descending by
// amount. Percentages are of the grand total, rounded to one decimal place
// (all zero when the total is zero). Entries keep their category color when
// set; otherwise a palette color is assigned by rank index.
func Breakdown(expenses []Expense) []BreakdownEntry {
	index := make(map[string]int, 8)
	var entries []BreakdownEntry
	for _, e := range expenses {
		name := e.CategoryName()
		i, seen := index[name]
		if !seen {
			entry := BreakdownEntry{Name: name, Icon: DefaultIcon}
			if e.Category != nil {
				if e.Category.Icon != "" {
					entry.Icon = e.Category.Icon
				}
				entry.Color = e.Category.Color
			}
			index[name] = len(entries)
			entries = append(entries, entry)
			i = index[name]
		}
		entries[i].Amount.Cents += e.Amount.Cents
	}

	// Stable keeps first-appearance order for equal amounts, which keeps
	// the rank-indexed palette assignment reproducible.
	sort.SliceStable(entries, func(a, b int) bool {
		return entries[a].Amount.Cents > entries[b].Amount.Cents
	})

	var total int64
	for _, e := range entries {
		total += e.Amount.Cents
	}
	for i := range entries {
		if total > 0 {
			pct := float64(entries[i].Amount.Cents) / float64(total) * 100
			entries[i].Percentage = math.Round(pct*10) / 10
		}
		if entries[i].Color == "" {
			entries[i].Color = FallbackColors[i%len(FallbackColors)]
		}
	}
	return entries
}

// CompareMonths classifies the change between a period total and the prior
// period's total. A zero prior total yields a neutral no-data result
// instead of a division by zero. Percent is the absolute change rounded to
// an integer.
func CompareMonths(this, prior Money) MonthComparison {
	cmp := MonthComparison{This: this, Prior: prior, Direction: Unchanged}
	if prior.Cents == 0 {
		return cmp
	}
	cmp.HasPrior = true
	change := float64(this.Cents-prior.Cents) / float64(prior.Cents) * 100
	cmp.Percent = int(math.Round(math.Abs(change)))
	switch {
	case this.Cents > prior.Cents:
		cmp.Direction = Increased
	case this.Cents < prior.Cents:
		cmp.Direction = Decreased
	}
	return cmp
}
