package expiry

import (
	"fmt"
	"time"
)

// Bucket is an expiry-urgency class.
type Bucket int

const (
	// Urgent7 holds items expiring within a week, and items already expired.
	Urgent7 Bucket = iota + 1
	// Warning30 holds items expiring in 8 to 30 days.
	Warning30
	// PreExpired90 holds items expiring in 31 to 90 days.
	PreExpired90
	// Ok holds everything further out.
	Ok
)

// Bucket upper bounds, inclusive.
const (
	UrgentDays     = 7
	WarningDays    = 30
	PreExpiredDays = 90
)

// Buckets lists every bucket in urgency order.
var Buckets = []Bucket{Urgent7, Warning30, PreExpired90, Ok}

func (b Bucket) String() string {
	switch b {
	case Urgent7:
		return "urgent7"
	case Warning30:
		return "warning30"
	case PreExpired90:
		return "preexpired90"
	case Ok:
		return "ok"
	default:
		return fmt.Sprintf("bucket(%d)", int(b))
	}
}

// MarshalText encodes the bucket name.
func (b Bucket) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// BucketFor maps a signed day count to its bucket.
func BucketFor(daysRemaining int) Bucket {
	switch {
	case daysRemaining <= UrgentDays:
		return Urgent7
	case daysRemaining <= WarningDays:
		return Warning30
	case daysRemaining <= PreExpiredDays:
		return PreExpired90
	default:
		return Ok
	}
}

// Classification is the result of classifying one expiry date.
type Classification struct {
	DaysRemaining int    `json:"days_remaining"`
	Bucket        Bucket `json:"bucket"`
}

// Expired reports whether the date is already past.
func (c Classification) Expired() bool {
	return c.DaysRemaining < 0
}

// Classify computes days remaining from the calendar day of ref to expiry
// and the matching bucket.
//
// Returns InvalidDateError if expiry is the zero Date.
func Classify(ref time.Time, expiry Date) (Classification, error) {
	if expiry.IsZero() {
		return Classification{}, &InvalidDateError{Input: "", Err: errEmptyDate}
	}
	days := DateOf(ref).DaysUntil(expiry)
	return Classification{DaysRemaining: days, Bucket: BucketFor(days)}, nil
}

// ClassifyString parses expiry in DateLayout and classifies it.
func ClassifyString(ref time.Time, expiry string) (Classification, error) {
	d, err := ParseDate(expiry)
	if err != nil {
		return Classification{}, err
	}
	return Classify(ref, d)
}
