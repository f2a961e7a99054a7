package scan

import (
	"errors"
	"fmt"
)

// Reason categorizes terminal session failures.
type Reason string

const (
	// ReasonCameraUnavailable: the device could not be opened or the stream
	// ended on its own.
	ReasonCameraUnavailable Reason = "CAMERA_UNAVAILABLE"

	// ReasonDetectionUnsupported: no detection backend accepts the stream.
	ReasonDetectionUnsupported Reason = "DETECTION_UNSUPPORTED"

	// ReasonPermissionDenied: access was refused or no device exists.
	ReasonPermissionDenied Reason = "PERMISSION_DENIED"
)

// Error is the failure reported by a session that ends in StateFailed.
type Error struct {
	Reason    Reason
	Message   string
	SessionID string
	Err       error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Reason, e.Message)
	if e.SessionID != "" {
		msg += fmt.Sprintf(" (session=%s)", e.SessionID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying camera error, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// AlreadyOpenError is returned by Scanner.Open while another session is
// still running.
type AlreadyOpenError struct {
	SessionID string
	State     State
}

// Error implements the error interface.
func (e *AlreadyOpenError) Error() string {
	return fmt.Sprintf("scan session %s already open (state=%s)", e.SessionID, e.State)
}

// IsPermissionDenied returns true if err is a PERMISSION_DENIED failure.
func IsPermissionDenied(err error) bool {
	return hasReason(err, ReasonPermissionDenied)
}

// IsDetectionUnsupported returns true if err is a DETECTION_UNSUPPORTED failure.
func IsDetectionUnsupported(err error) bool {
	return hasReason(err, ReasonDetectionUnsupported)
}

// IsCameraUnavailable returns true if err is a CAMERA_UNAVAILABLE failure.
func IsCameraUnavailable(err error) bool {
	return hasReason(err, ReasonCameraUnavailable)
}

// IsAlreadyOpen returns true if err is an AlreadyOpenError.
// Uses errors.As to handle wrapped errors.
func IsAlreadyOpen(err error) bool {
	var ae *AlreadyOpenError
	return errors.As(err, &ae)
}

func hasReason(err error, r Reason) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Reason == r
	}
	return false
}

// classifyOpenError maps a camera acquisition error onto a failure reason.
func classifyOpenError(err error) Reason {
	if errors.Is(err, ErrPermissionDenied) || errors.Is(err, ErrNoDevice) {
		return ReasonPermissionDenied
	}
	return ReasonCameraUnavailable
}
