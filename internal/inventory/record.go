package inventory

import "github.com/roach88/shelflife/internal/expiry"

// Record is a committed inventory item.
//
// INVARIANTS:
//   - ID is assigned once at commit and never changes
//   - Name is non-empty (NFC-normalized, trimmed)
//   - Expiry is a valid calendar date
type Record struct {
	ID       string      `json:"id"`
	Code     string      `json:"code"`
	Name     string      `json:"name"`
	Expiry   expiry.Date `json:"expiry"`
	Location Location    `json:"location,omitempty"`
}
