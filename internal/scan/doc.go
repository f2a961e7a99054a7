// Package scan runs camera scan sessions.
//
// A Scanner owns the exclusive camera device. Scanner.Open starts a Session
// that acquires a device (preferring a rear-facing one), attaches a detection
// backend chosen by capability probing, and samples frames until the first
// barcode is decoded. Exactly one outcome is reported per session:
//
//	Idle -> Acquiring -> Streaming -> Detecting -> Succeeded(code)
//	                \           \            \-> Closed (cancelled or idle timeout)
//	                 \           \-> Failed(DETECTION_UNSUPPORTED)
//	                  \-> Failed(PERMISSION_DENIED | CAMERA_UNAVAILABLE)
//
// The stream is stopped on every exit path before the outcome is published.
// Per-frame decode errors are absorbed; everything else is terminal and is
// never retried. A fresh Open restarts from Idle.
package scan
