package core

import (
	"sort"
	"strings"
)

type (
	// Filter narrows an expense collection before grouping. CategoryID and
	// the date range are exact pre-filters; Search is a case-insensitive
	// substring match over description, category name and notes. A zero
	// value matches everything.
	Filter struct {
		Search     string
		CategoryID int64
		From       Date
		To         Date
	}

	// DayGroup is the set of expenses sharing one calendar day, for list
	// presentation. Expenses keep the relative order they arrived in.
	DayGroup struct {
		Key      string    `json:"key"`
		Label    string    `json:"label"`
		Subtotal Money     `json:"subtotal"`
		Expenses []Expense `json:"expenses"`
	}
)

// Matches reports whether an expense passes the filter.
func (f Filter) Matches(e Expense) bool {
	if f.CategoryID != 0 {
		if e.Category == nil || e.Category.ID != f.CategoryID {
			return false
		}
	}
	if !f.From.IsZero() && e.Date.Before(f.From.Time) {
		return false
	}
	if !f.To.IsZero() && e.Date.After(f.To.Time) {
		return false
	}
	term := strings.TrimSpace(f.Search)
	if term == "" {
		return true
	}
	term = strings.ToLower(term)
	return strings.Contains(strings.ToLower(e.Description), term) ||
		strings.Contains(strings.ToLower(e.CategoryName()), term) ||
		strings.Contains(strings.ToLower(e.Notes), term)
}

// GroupByDay filters the collection, buckets the survivors by calendar day
// and returns the day-groups in descending chronological order. Each group
// carries a per-day subtotal and a display label relative to today. Empty
// or fully filtered-out input yields an empty sequence.
func GroupByDay(expenses []Expense, f Filter, today Date) []DayGroup {
	byKey := make(map[string]*DayGroup)
	var order []string
	for _, e := range expenses {
		if !f.Matches(e) {
			continue
		}
		key := e.Date.Key()
		g, ok := byKey[key]
		if !ok {
			g = &DayGroup{Key: key, Label: dayLabel(e.Date, today)}
			byKey[key] = g
			order = append(order, key)
		}
		g.Subtotal.Cents += e.Amount.Cents
		g.Expenses = append(g.Expenses, e)
	}

	// yyyy-MM-dd keys sort lexicographically in date order.
	sort.Sort(sort.Reverse(sort.StringSlice(order)))

	groups := make([]DayGroup, 0, len(order))
	for _, key := range order {
		groups = append(groups, *byKey[key])
	}
	return groups
}

func dayLabel(d, today Date) string {
	switch {
	case d.Key() == today.Key():
		return "Today"
	case d.NextDay().Key() == today.Key():
		return "Yesterday"
	default:
		return d.Format("January 2, 2006")
	}
}
