package inventory

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/shelflife/internal/expiry"
)

// Draft is uncommitted operator input for a new record.
// Fields hold raw text exactly as entered; Validate turns them into typed values.
type Draft struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Expiry   string `json:"expiry"`
	Location string `json:"location"`
}

// Validated holds the typed values of a draft that passed validation.
type Validated struct {
	Code     string
	Name     string
	Expiry   expiry.Date
	Location Location
}

// Validate checks the draft and normalizes its text fields.
//
// Name and code are trimmed and NFC-normalized so the same label typed on
// different devices compares equal. Returns a ValidationError naming the
// first failing field.
func (d Draft) Validate() (Validated, error) {
	name := normalizeText(d.Name)
	if name == "" {
		return Validated{}, &ValidationError{Field: FieldName, Message: "must not be empty"}
	}

	exp, err := expiry.ParseDate(d.Expiry)
	if err != nil {
		return Validated{}, &ValidationError{Field: FieldExpiry, Message: "expected " + expiry.DateLayout, Err: err}
	}

	loc, err := ParseLocation(d.Location)
	if err != nil {
		return Validated{}, &ValidationError{Field: FieldLocation, Message: "not a known location", Err: err}
	}

	return Validated{
		Code:     normalizeText(d.Code),
		Name:     name,
		Expiry:   exp,
		Location: loc,
	}, nil
}

// Record builds the committed record for id.
func (v Validated) Record(id string) Record {
	return Record{
		ID:       id,
		Code:     v.Code,
		Name:     v.Name,
		Expiry:   v.Expiry,
		Location: v.Location,
	}
}

func normalizeText(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}
