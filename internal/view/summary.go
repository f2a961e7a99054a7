package view

import (
	"fmt"
	"time"

	"github.com/roach88/shelflife/internal/expiry"
	"github.com/roach88/shelflife/internal/inventory"
)

// Summary tallies every record by bucket, ignoring the view's filters.
//
// Expired counts records already past their date. They are also counted in
// Urgent7, so Expired is a subset and not a fifth bucket.
type Summary struct {
	Urgent7      int `json:"urgent7"`
	Warning30    int `json:"warning30"`
	PreExpired90 int `json:"preexpired90"`
	Ok           int `json:"ok"`
	Expired      int `json:"expired"`
}

// Total returns the number of records counted.
func (s Summary) Total() int {
	return s.Urgent7 + s.Warning30 + s.PreExpired90 + s.Ok
}

// Count returns the tally for one bucket.
func (s Summary) Count(b expiry.Bucket) int {
	switch b {
	case expiry.Urgent7:
		return s.Urgent7
	case expiry.Warning30:
		return s.Warning30
	case expiry.PreExpired90:
		return s.PreExpired90
	case expiry.Ok:
		return s.Ok
	default:
		return 0
	}
}

// Summarize classifies every record at ref and counts buckets.
func Summarize(records []inventory.Record, ref time.Time) (Summary, error) {
	var s Summary
	for _, rec := range records {
		c, err := expiry.Classify(ref, rec.Expiry)
		if err != nil {
			return Summary{}, fmt.Errorf("classify record %q: %w", rec.ID, err)
		}
		switch c.Bucket {
		case expiry.Urgent7:
			s.Urgent7++
		case expiry.Warning30:
			s.Warning30++
		case expiry.PreExpired90:
			s.PreExpired90++
		case expiry.Ok:
			s.Ok++
		}
		if c.Expired() {
			s.Expired++
		}
	}
	return s, nil
}
