package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	PaymentCash  PaymentMethod = "CASH"
	PaymentCard  PaymentMethod = "CARD"
	PaymentUPI   PaymentMethod = "UPI"
	PaymentOther PaymentMethod = "OTHER"
)

type (
	PaymentMethod string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Category is a spending category. A nil MonthlyLimit means the category
	// is unbudgeted and never takes part in budget monitoring.
	Category struct {
		ID           int64
		Name         string
		MonthlyLimit *Money
		CreatedAt    time.Time
	}

	Expense struct {
		ID            int64
		CategoryID    int64
		Date          Date
		Amount        Money
		PaymentMethod PaymentMethod
		Description   string
		CreatedAt     time.Time
		UpdatedAt     time.Time
	}
)

var (
	ErrInvalidDay       = errors.New("invalid day")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidLimit     = errors.New("monthly limit must be positive")
	ErrEmptyName        = errors.New("empty category name")
	ErrMissingCategory  = errors.New("missing category")
	ErrFutureDate       = errors.New("expense date cannot be in the future")
	ErrDescriptionLong  = errors.New("description too long (max 255 characters)")
	ErrInvalidPayment   = errors.New("invalid payment method")
	ErrNotFound         = errors.New("not found")
	ErrDuplicateName    = errors.New("category name already exists")
	ErrCategoryInUse    = errors.New("category has expenses")
	ErrDataAccess       = errors.New("data access failure")
	ErrInvalidThreshold = errors.New("invalid threshold")
)

const maxDescriptionLen = 255

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

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(DateLayout)
}

// DateLayout is the storage and wire format for dates.
const DateLayout = "2006-01-02"

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's location and returns it as a UTC Date.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// ParsePaymentMethod normalizes s; an empty string maps to PaymentOther.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return PaymentOther, nil
	}
	switch pm := PaymentMethod(s); pm {
	case PaymentCash, PaymentCard, PaymentUPI, PaymentOther:
		return pm, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidPayment, s)
	}
}

// Budgeted reports whether the category has a positive monthly limit.
func (c Category) Budgeted() bool {
	return c.MonthlyLimit != nil && c.MonthlyLimit.Cents > 0
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if c.MonthlyLimit != nil && c.MonthlyLimit.Cents <= 0 {
		return ErrInvalidLimit
	}
	return nil
}

// Validate checks the expense against now for the future-date rule.
func (e Expense) Validate(now time.Time) error {
	if e.CategoryID <= 0 {
		return ErrMissingCategory
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if e.Date.After(DateOf(now).Time) {
		return ErrFutureDate
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if utf8.RuneCountInString(e.Description) > maxDescriptionLen {
		return ErrDescriptionLong
	}
	if _, err := ParsePaymentMethod(string(e.PaymentMethod)); err != nil {
		return err
	}
	return nil
}
