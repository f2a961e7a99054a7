package app

import "github.com/roach88/shelflife/internal/scan"

// ScanStatus is the presentation view of a scan session.
type ScanStatus struct {
	SessionID string         `json:"session_id"`
	State     scan.State     `json:"state"`
	Backend   string         `json:"backend,omitempty"`
	Code      string         `json:"code,omitempty"`
	Symbology scan.Symbology `json:"symbology,omitempty"`
	Reason    scan.Reason    `json:"reason,omitempty"`
	Error     string         `json:"error,omitempty"`
	TimedOut  bool           `json:"timed_out,omitempty"`
}

func statusOf(s *scan.Session) ScanStatus {
	st := ScanStatus{
		SessionID: s.ID(),
		State:     s.State(),
		Backend:   s.Backend(),
	}
	o, done := s.Outcome()
	if !done {
		return st
	}
	st.State = o.State
	switch o.State {
	case scan.StateSucceeded:
		st.Code = o.Barcode.Value
		st.Symbology = o.Barcode.Symbology
	case scan.StateFailed:
		st.Reason = o.Err.Reason
		st.Error = o.Err.Error()
	case scan.StateClosed:
		st.TimedOut = o.TimedOut
	}
	return st
}
