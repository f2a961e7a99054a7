// Package records is the in-memory record store.
//
// The store keeps committed inventory records newest first and mirrors the
// whole collection into one persistence slot after every mutation. A
// mutation only counts as committed once that save returns; if it fails
// the in-memory change is rolled back and the error is returned.
//
// Loading never fails on bad data: an absent or malformed slot starts the
// store empty. Corrupt data is not worth blocking startup.
package records
