package records

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/roach88/shelflife/internal/expiry"
	"github.com/roach88/shelflife/internal/inventory"
)

// wireRecord is the persisted shape of a record. Expiry is kept as text so
// one bad entry does not fail the whole decode.
type wireRecord struct {
	ID       string `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	Expiry   string `json:"expiry"`
	Location string `json:"location,omitempty"`
}

// encode serializes records in store order.
func encode(recs []inventory.Record) ([]byte, error) {
	wire := make([]wireRecord, len(recs))
	for i, r := range recs {
		wire[i] = wireRecord{
			ID:       r.ID,
			Code:     r.Code,
			Name:     r.Name,
			Expiry:   r.Expiry.String(),
			Location: string(r.Location),
		}
	}
	data, err := json.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("encode records: %w", err)
	}
	return data, nil
}

// decode parses a persisted blob.
//
// A blob that is not a JSON array of objects returns an error. Individual
// entries with a missing id or name, an invalid date, an unknown location or a
// duplicate id are dropped and logged.
func decode(data []byte, logger *slog.Logger) ([]inventory.Record, error) {
	var wire []wireRecord
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	if wire == nil {
		return nil, fmt.Errorf("decode records: not an array")
	}

	recs := make([]inventory.Record, 0, len(wire))
	seen := make(map[string]bool, len(wire))
	for i, w := range wire {
		rec, err := fromWire(w)
		if err != nil {
			logger.Warn("dropping stored record", "index", i, "id", w.ID, "error", err)
			continue
		}
		if seen[rec.ID] {
			logger.Warn("dropping stored record", "index", i, "id", w.ID, "error", "duplicate id")
			continue
		}
		seen[rec.ID] = true
		recs = append(recs, rec)
	}
	return recs, nil
}

func fromWire(w wireRecord) (inventory.Record, error) {
	if w.ID == "" {
		return inventory.Record{}, fmt.Errorf("missing id")
	}
	if w.Name == "" {
		return inventory.Record{}, fmt.Errorf("missing name")
	}
	exp, err := expiry.ParseDate(w.Expiry)
	if err != nil {
		return inventory.Record{}, err
	}
	loc, err := inventory.ParseLocation(w.Location)
	if err != nil {
		return inventory.Record{}, err
	}
	return inventory.Record{
		ID:       w.ID,
		Code:     w.Code,
		Name:     w.Name,
		Expiry:   exp,
		Location: loc,
	}, nil
}
