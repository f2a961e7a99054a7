package view

import (
	"fmt"
	"strings"

	"github.com/roach88/shelflife/internal/expiry"
	"github.com/roach88/shelflife/internal/inventory"
)

// BucketFilter selects a day range of the active view.
type BucketFilter int

const (
	// BucketAll keeps every non-expired record.
	BucketAll BucketFilter = iota
	// BucketWithin7 keeps 0 to 7 days.
	BucketWithin7
	// Bucket8To30 keeps 8 to 30 days.
	Bucket8To30
	// Bucket31To90 keeps 31 to 90 days.
	Bucket31To90
)

// ParseBucketFilter accepts "all", "7", "30" or "90".
func ParseBucketFilter(s string) (BucketFilter, error) {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "", "all":
		return BucketAll, nil
	case "7":
		return BucketWithin7, nil
	case "30":
		return Bucket8To30, nil
	case "90":
		return Bucket31To90, nil
	default:
		return BucketAll, fmt.Errorf("invalid bucket filter %q: must be one of all, 7, 30, 90", s)
	}
}

func (f BucketFilter) String() string {
	switch f {
	case BucketWithin7:
		return "7"
	case Bucket8To30:
		return "30"
	case Bucket31To90:
		return "90"
	default:
		return "all"
	}
}

// MarshalText encodes the filter as accepted by ParseBucketFilter.
func (f BucketFilter) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText decodes the ParseBucketFilter form.
func (f *BucketFilter) UnmarshalText(text []byte) error {
	parsed, err := ParseBucketFilter(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// keeps reports whether a bucket passes the filter.
func (f BucketFilter) keeps(b expiry.Bucket) bool {
	switch f {
	case BucketWithin7:
		return b == expiry.Urgent7
	case Bucket8To30:
		return b == expiry.Warning30
	case Bucket31To90:
		return b == expiry.PreExpired90
	default:
		return true
	}
}

// LocationFilter selects one location, or all of them.
// The zero value matches every location.
type LocationFilter struct {
	location inventory.Location
	only     bool
}

// AllLocations matches every record, including those with no location.
var AllLocations = LocationFilter{}

// OnlyLocation matches records at exactly loc. OnlyLocation(LocationUnset)
// matches records with no location.
func OnlyLocation(loc inventory.Location) LocationFilter {
	return LocationFilter{location: loc, only: true}
}

// unsetFilterName selects records with no location.
const unsetFilterName = "unset"

// ParseLocationFilter accepts "all" (or empty), "unset" (or "-") or a
// location name.
func ParseLocationFilter(s string) (LocationFilter, error) {
	name := strings.TrimSpace(strings.ToLower(s))
	switch name {
	case "", "all":
		return AllLocations, nil
	case unsetFilterName, inventory.LocationUnset.String():
		return OnlyLocation(inventory.LocationUnset), nil
	}
	loc, err := inventory.ParseLocation(name)
	if err != nil {
		return AllLocations, err
	}
	return OnlyLocation(loc), nil
}

// Location returns the selected location and whether one is selected.
func (f LocationFilter) Location() (inventory.Location, bool) {
	return f.location, f.only
}

func (f LocationFilter) String() string {
	if !f.only {
		return "all"
	}
	if f.location == inventory.LocationUnset {
		return unsetFilterName
	}
	return f.location.String()
}

// MarshalText encodes the filter as accepted by ParseLocationFilter.
func (f LocationFilter) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText decodes the ParseLocationFilter form.
func (f *LocationFilter) UnmarshalText(text []byte) error {
	parsed, err := ParseLocationFilter(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

func (f LocationFilter) keeps(loc inventory.Location) bool {
	return !f.only || f.location == loc
}

// Filter pairs the two operator-selected predicates.
type Filter struct {
	Bucket   BucketFilter   `json:"bucket"`
	Location LocationFilter `json:"location"`
}
