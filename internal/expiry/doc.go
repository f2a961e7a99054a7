// Package expiry classifies calendar expiry dates into urgency buckets.
//
// Classification is a pure function of a reference instant and an expiry
// date. Only the calendar day of the reference instant matters; callers
// rendering a list must capture one reference instant and classify every
// record against it so that a day boundary cannot pass mid-render.
//
// Buckets partition the integers with no gaps:
//
//	Urgent7       daysRemaining <= 7   (already expired included)
//	Warning30     7  < daysRemaining <= 30
//	PreExpired90  30 < daysRemaining <= 90
//	Ok            daysRemaining > 90
package expiry
