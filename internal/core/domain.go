package core

import (
	"errors"
	"strings"
	"time"
)

const (
	// UncategorizedLabel is the bucket every expense without a resolvable
	// category falls into. Aggregation must never drop such expenses.
	UncategorizedLabel = "Uncategorized"

	// Display fallbacks for expenses whose category reference is absent.
	DefaultIcon  = "💰"
	DefaultColor = "#71717a"

	maxDescriptionLen = 200
)

type (
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Category struct {
		ID           int64  `json:"id"`
		Name         string `json:"name"`
		Icon         string `json:"icon"`
		Color        string `json:"color"`
		Budget       *Money `json:"budgetAmount"`
		MonthlySpent Money  `json:"monthlySpent"`
		IsDefault    bool   `json:"isDefault"`
	}

	Expense struct {
		ID          int64     `json:"id"`
		Date        Date      `json:"date"`
		Description string    `json:"description"`
		Amount      Money     `json:"amount"`
		Notes       string    `json:"notes,omitempty"`
		Category    *Category `json:"category"`
	}
)

var (
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrEmptyDescription   = errors.New("empty description")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
	ErrEmptyName          = errors.New("empty category name")
	ErrInvalidBudget      = errors.New("invalid budget amount")
)

// NewDate creates a date-only value in UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in UTC.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// Today returns the current calendar day.
func Today() Date {
	return DateOf(time.Now().UTC())
}

// ParseDate parses a yyyy-MM-dd string. A date-time suffix is tolerated
// since some clients send full ISO timestamps for date fields.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if len(s) > 10 {
		s = s[:10]
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// Key returns the canonical day-bucket key, yyyy-MM-dd.
func (d Date) Key() string {
	return d.Format("2006-01-02")
}

// NextDay returns the following calendar day.
func (d Date) NextDay() Date {
	return Date{Time: d.AddDate(0, 0, 1)}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Key() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Validate checks an expense mutation payload. The category reference is
// checked separately because an expense may legitimately become
// uncategorized when its category is deleted.
func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(e.Description) > maxDescriptionLen {
		return ErrDescriptionTooLong
	}
	return e.Amount.Validate()
}

// CategoryName resolves the display name, falling back to Uncategorized.
func (e Expense) CategoryName() string {
	if e.Category == nil || strings.TrimSpace(e.Category.Name) == "" {
		return UncategorizedLabel
	}
	return e.Category.Name
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if c.Budget != nil && c.Budget.Cents <= 0 {
		return ErrInvalidBudget
	}
	return nil
}
