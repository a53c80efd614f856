package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Expense Kind = "expense"
	Income  Kind = "income"
)

// DateLayout is the calendar-day wire format used by stores and the API.
const DateLayout = "2006-01-02"

// MaxLabelLength bounds the free-text label of a transaction.
const MaxLabelLength = 200

type (
	Kind string

	// Date is a calendar day. The time part is always midnight UTC.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Transaction struct {
		ID       string
		OwnerID  string
		Date     Date
		Kind     Kind
		Category string
		Label    string // free text
		Amount   Money
	}

	// BudgetConfig is the fixed monthly budget of one owner.
	BudgetConfig struct {
		OwnerID        string
		MonthlyIncome  Money
		HousingBudget  Money
		MarketBudget   Money // groceries
		TransportDaily Money
	}

	User struct {
		Username     string
		PasswordHash string
		CreatedAt    time.Time
	}
)

// Categories is the fixed category set offered when recording a transaction.
var Categories = []string{
	"Vivienda",
	"Comida",
	"Transporte",
	"Servicios",
	"Ocio",
	"Salud",
	"Deudas",
	"Otros",
}

var (
	ErrInvalidDay      = errors.New("invalid day")
	ErrInvalidMonth    = errors.New("invalid month")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidKind     = errors.New("invalid transaction kind")
	ErrEmptyCategory   = errors.New("empty category")
	ErrEmptyOwner      = errors.New("empty owner")
	ErrLabelTooLong    = errors.New("label too long (max 200 characters)")
	ErrNegativeBudget  = errors.New("budget amounts cannot be negative")
	ErrInvalidUsername = errors.New("invalid username")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// AddDays returns the date n calendar days later (earlier for negative n).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// SameMonth reports whether both dates fall in the same year and month.
func (d Date) SameMonth(o Date) bool {
	return d.Year() == o.Year() && d.Month() == o.Month()
}

// DaysInMonth returns the number of days of d's month.
func (d Date) DaysInMonth() int {
	return time.Date(d.Year(), time.Month(d.Month())+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Before and After compare calendar days.
func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }
func (d Date) After(o Date) bool  { return d.Time.After(o.Time) }
func (d Date) Equal(o Date) bool  { return d.Time.Equal(o.Time) }

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(DateLayout)
}

// MarshalJSON encodes the date as "YYYY-MM-DD" instead of a full timestamp.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
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

func (k Kind) Valid() bool {
	return k == Expense || k == Income
}

// ParseKind accepts the canonical names plus the labels used by the old data files.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "expense", "gasto":
		return Expense, nil
	case "income", "ingreso":
		return Income, nil
	}
	return "", ErrInvalidKind
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.OwnerID) == "" {
		return ErrEmptyOwner
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if !t.Kind.Valid() {
		return ErrInvalidKind
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if len(t.Label) > MaxLabelLength {
		return ErrLabelTooLong
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	return nil
}

// IsExpense reports whether the transaction is an expense.
func (t Transaction) IsExpense() bool {
	return t.Kind == Expense
}

// Validate rejects negative amounts. Zero is a valid "not configured" value.
func (c BudgetConfig) Validate() error {
	if strings.TrimSpace(c.OwnerID) == "" {
		return ErrEmptyOwner
	}
	for _, m := range []Money{c.MonthlyIncome, c.HousingBudget, c.MarketBudget, c.TransportDaily} {
		if m.Cents < 0 {
			return ErrNegativeBudget
		}
	}
	return nil
}

// Normalize clamps malformed (negative) fields to zero.
func (c BudgetConfig) Normalize() BudgetConfig {
	clamp := func(m Money) Money {
		if m.Cents < 0 {
			return Money{}
		}
		return m
	}
	c.MonthlyIncome = clamp(c.MonthlyIncome)
	c.HousingBudget = clamp(c.HousingBudget)
	c.MarketBudget = clamp(c.MarketBudget)
	c.TransportDaily = clamp(c.TransportDaily)
	return c
}

// ValidateUsername checks the account name used as owner id.
func ValidateUsername(name string) error {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 64 {
		return ErrInvalidUsername
	}
	for _, r := range name {
		if r <= ' ' || r == '/' {
			return ErrInvalidUsername
		}
	}
	return nil
}
