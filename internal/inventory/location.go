package inventory

import (
	"fmt"
	"strings"
)

// Location is where an item is kept. The zero value means unset.
type Location string

const (
	LocationUnset        Location = ""
	LocationCounter      Location = "counter"
	LocationStockroom    Location = "stockroom"
	LocationRefrigerator Location = "refrigerator"
)

// Locations lists the assignable locations in display order.
var Locations = []Location{LocationCounter, LocationStockroom, LocationRefrigerator}

// ParseLocation accepts a location name (case-insensitive) or empty for unset.
func ParseLocation(s string) (Location, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return LocationUnset, nil
	}
	for _, l := range Locations {
		if string(l) == name {
			return l, nil
		}
	}
	return LocationUnset, fmt.Errorf("unknown location %q: must be one of %v", s, Locations)
}

// Valid reports whether l is unset or one of Locations.
func (l Location) Valid() bool {
	if l == LocationUnset {
		return true
	}
	for _, known := range Locations {
		if l == known {
			return true
		}
	}
	return false
}

func (l Location) String() string {
	if l == LocationUnset {
		return "-"
	}
	return string(l)
}
