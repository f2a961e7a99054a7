package expiry

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the single supported input convention for expiry dates.
const DateLayout = "2006-01-02"

// Date is a calendar date with day granularity.
// The zero value is not a valid date.
type Date struct {
	year  int
	month time.Month
	day   int
}

// NewDate builds a Date, rejecting components that would normalize
// (e.g. February 30).
func NewDate(year int, month time.Month, day int) (Date, error) {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return Date{}, &InvalidDateError{Input: fmt.Sprintf("%04d-%02d-%02d", year, int(month), day)}
	}
	return Date{year: year, month: month, day: day}, nil
}

// MustDate is NewDate for literals in tests and fixtures.
func MustDate(year int, month time.Month, day int) Date {
	d, err := NewDate(year, month, day)
	if err != nil {
		panic(err)
	}
	return d
}

// ParseDate parses s in DateLayout. Surrounding whitespace is ignored.
func ParseDate(s string) (Date, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return Date{}, &InvalidDateError{Input: s, Err: errEmptyDate}
	}
	t, err := time.Parse(DateLayout, trimmed)
	if err != nil {
		return Date{}, &InvalidDateError{Input: s, Err: err}
	}
	return Date{year: t.Year(), month: t.Month(), day: t.Day()}, nil
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{year: y, month: m, day: d}
}

// IsZero reports whether d is the zero (invalid) date.
func (d Date) IsZero() bool {
	return d.year == 0 && d.month == 0 && d.day == 0
}

func (d Date) Year() int { return d.year }

func (d Date) Month() time.Month { return d.month }

func (d Date) Day() int { return d.day }

// midnight anchors d at 00:00 UTC so differences are whole days.
func (d Date) midnight() time.Time {
	return time.Date(d.year, d.month, d.day, 0, 0, 0, 0, time.UTC)
}

// AddDays returns d shifted by n calendar days.
func (d Date) AddDays(n int) Date {
	return DateOf(d.midnight().AddDate(0, 0, n))
}

// Compare returns -1, 0 or +1.
func (d Date) Compare(other Date) int {
	switch {
	case d.year != other.year:
		return cmpInt(d.year, other.year)
	case d.month != other.month:
		return cmpInt(int(d.month), int(other.month))
	default:
		return cmpInt(d.day, other.day)
	}
}

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool {
	return d.Compare(other) < 0
}

// secondsPerDay is exact for midnight UTC anchors.
const secondsPerDay = 24 * 60 * 60

// DaysUntil returns the signed number of calendar days from d to other.
// It works on Unix seconds because time.Duration overflows past ~292 years.
func (d Date) DaysUntil(other Date) int {
	return int((other.midnight().Unix() - d.midnight().Unix()) / secondsPerDay)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.year, int(d.month), d.day)
}

// MarshalText encodes d in DateLayout.
func (d Date) MarshalText() ([]byte, error) {
	if d.IsZero() {
		return nil, &InvalidDateError{Input: "", Err: errEmptyDate}
	}
	return []byte(d.String()), nil
}

// UnmarshalText decodes DateLayout text.
func (d *Date) UnmarshalText(text []byte) error {
	parsed, err := ParseDate(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
