package scan

import (
	"context"
	"errors"
)

// Facing is the preferred physical camera direction.
type Facing string

const (
	FacingAny   Facing = ""
	FacingBack  Facing = "back"
	FacingFront Facing = "front"
)

// Device is one enumerated capture device.
type Device struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// AccessRequest asks the camera for a stream. DeviceID wins over Facing when
// both are set.
type AccessRequest struct {
	DeviceID string
	Facing   Facing
}

// Camera is the capture collaborator.
type Camera interface {
	// Devices enumerates capture devices. Platforms without enumeration
	// return ErrEnumerationUnsupported.
	Devices(ctx context.Context) ([]Device, error)

	// Open acquires a device exclusively and starts streaming.
	Open(ctx context.Context, req AccessRequest) (Stream, error)
}

// Stream is a live feed from an acquired device.
//
// Frames is closed by the stream when it stops, whether through Stop or on
// its own. Stop releases the device and must be idempotent.
type Stream interface {
	Frames() <-chan Frame
	Format() PixelFormat
	Stop() error
}

// NativeDecoder is implemented by streams that decode barcodes themselves
// and only need to be polled for the latest result.
type NativeDecoder interface {
	DecodeLatest(ctx context.Context) ([]Barcode, error)
}

var (
	// ErrEnumerationUnsupported is returned by Camera.Devices when the
	// platform cannot list devices.
	ErrEnumerationUnsupported = errors.New("device enumeration unsupported")

	// ErrPermissionDenied is returned by Camera.Open when access is refused.
	ErrPermissionDenied = errors.New("camera permission denied")

	// ErrNoDevice is returned when no capture device exists.
	ErrNoDevice = errors.New("no camera device")

	// ErrBusy is returned by Camera.Open while another stream holds the device.
	ErrBusy = errors.New("camera device busy")
)
