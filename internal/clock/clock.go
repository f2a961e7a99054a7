// Package clock supplies the reference instant used to classify records.
//
// Every view is computed against one captured instant so that records near a
// bucket boundary cannot flap mid-render. Callers capture Now once per pass.
package clock

import "time"

// Clock reports the current instant.
type Clock interface {
	Now() time.Time
}

// System reads the wall clock.
type System struct{}

// Now returns time.Now().
func (System) Now() time.Time {
	return time.Now()
}

// Func adapts a function to Clock.
type Func func() time.Time

// Now calls f.
func (f Func) Now() time.Time {
	return f()
}
