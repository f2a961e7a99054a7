package view

import (
	"fmt"
	"sort"
	"time"

	"github.com/roach88/shelflife/internal/expiry"
	"github.com/roach88/shelflife/internal/inventory"
)

// Row is one record of the projected view with its classification.
type Row struct {
	Record        inventory.Record `json:"record"`
	DaysRemaining int              `json:"days_remaining"`
	Bucket        expiry.Bucket    `json:"bucket"`
}

// Project returns the active view of records at ref.
//
// Expired records (daysRemaining < 0) are left out. The bucket and location
// filters apply conjunctively. Rows are sorted by expiry, soonest first;
// records with the same expiry keep their input order.
//
// records is not modified. The first record that cannot be classified
// aborts the projection with its error.
func Project(records []inventory.Record, ref time.Time, bf BucketFilter, lf LocationFilter) ([]Row, error) {
	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		c, err := expiry.Classify(ref, rec.Expiry)
		if err != nil {
			return nil, fmt.Errorf("classify record %q: %w", rec.ID, err)
		}
		if c.Expired() {
			continue
		}
		if !bf.keeps(c.Bucket) || !lf.keeps(rec.Location) {
			continue
		}
		rows = append(rows, Row{Record: rec, DaysRemaining: c.DaysRemaining, Bucket: c.Bucket})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Record.Expiry.Before(rows[j].Record.Expiry)
	})

	return rows, nil
}

// ProjectFilter is Project with a Filter value.
func ProjectFilter(records []inventory.Record, ref time.Time, f Filter) ([]Row, error) {
	return Project(records, ref, f.Bucket, f.Location)
}
