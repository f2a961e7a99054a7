// Package view derives the filtered, sorted list the operator looks at and
// the bucket counts shown alongside it.
//
// Both are pure functions of (records, reference instant, filters) and are
// recomputed whenever any input changes; nothing is cached. Callers capture
// the reference instant once per render and pass it to both.
package view
