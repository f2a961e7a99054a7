// Package inventory defines inventory records, the draft value object they
// are built from, and record identifiers.
//
// A Record only exists once a Draft has passed Validate; there is no update
// path. Identifiers come from an IDGenerator and are unique for the lifetime
// of the process.
package inventory
