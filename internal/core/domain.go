package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Win  Outcome = "Win"
	Lose Outcome = "Lose"
)

// SportUnspecified is the default sport label for records created before
// the sport column existed (or imported without one).
const SportUnspecified = "unspecified"

type (
	// Outcome is the result of a bet slip.
	Outcome string

	// Date is a calendar date with no time-of-day component.
	Date struct {
		time.Time
	}

	// Money is an exact amount in integer cents.
	Money struct {
		Cents int64
	}

	// BetRecord is one logged wager. Records are append/delete only:
	// once stored they are never mutated, and Profit is derived exactly
	// once at creation as Paid - Invested.
	BetRecord struct {
		ID       string
		Owner    string
		Date     Date
		Sport    string
		Invested Money
		NumPicks int
		Outcome  Outcome
		Paid     Money
		Profit   Money
	}
)

var (
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidPicks       = errors.New("number of picks must be positive")
	ErrInvalidOutcome     = errors.New("invalid outcome")
	ErrProfitMismatch     = errors.New("stored profit does not equal paid minus invested")
	ErrInvalidGranularity = errors.New("invalid granularity")
	ErrNotFound           = errors.New("record not found")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmptyUsername      = errors.New("empty username")
	ErrEmptyPassword      = errors.New("empty password")
)

// NewDate creates a Date from year, month, day at UTC midnight.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Truncate drops any time-of-day component, keeping the calendar date.
func (d Date) Truncate() Date {
	y, m, day := d.Date()
	return NewDate(y, int(m), day)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Day returns the day of the month.
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month as 1-12.
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year.
func (d Date) Year() int {
	return d.Time.Year()
}

// Add returns the sum of two amounts.
func (m Money) Add(other Money) Money {
	return Money{Cents: m.Cents + other.Cents}
}

// Sub returns the difference of two amounts.
func (m Money) Sub(other Money) Money {
	return Money{Cents: m.Cents - other.Cents}
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (o Outcome) Validate() error {
	switch o {
	case Win, Lose:
		return nil
	default:
		return ErrInvalidOutcome
	}
}

// NewBetRecord builds a record from its input attributes and derives the
// stored profit. ID and Owner are left for the store and caller to set.
func NewBetRecord(date Date, sport string, invested Money, numPicks int, outcome Outcome, paid Money) (BetRecord, error) {
	if strings.TrimSpace(sport) == "" {
		sport = SportUnspecified
	}
	rec := BetRecord{
		Date:     date.Truncate(),
		Sport:    sport,
		Invested: invested,
		NumPicks: numPicks,
		Outcome:  outcome,
		Paid:     paid,
		Profit:   paid.Sub(invested),
	}
	if err := rec.Validate(); err != nil {
		return BetRecord{}, err
	}
	return rec, nil
}

func (b BetRecord) Validate() error {
	if err := b.Date.Validate(); err != nil {
		return err
	}
	if err := b.Invested.Validate(); err != nil {
		return err
	}
	if b.NumPicks < 1 {
		return ErrInvalidPicks
	}
	if err := b.Outcome.Validate(); err != nil {
		return err
	}
	if err := b.Paid.Validate(); err != nil {
		return err
	}
	if b.Profit != b.Paid.Sub(b.Invested) {
		return ErrProfitMismatch
	}
	return nil
}
