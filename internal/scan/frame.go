package scan

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg" // register JPEG for Frame.Image
	_ "image/png"  // register PNG for Frame.Image
	"time"
)

// PixelFormat describes how Frame.Data is laid out.
type PixelFormat string

const (
	// FormatGray8 is one byte per pixel, row-major.
	FormatGray8 PixelFormat = "gray8"
	// FormatRGB24 is three bytes per pixel, row-major.
	FormatRGB24 PixelFormat = "rgb24"
	// FormatJPEG is a JPEG-encoded frame.
	FormatJPEG PixelFormat = "jpeg"
	// FormatPNG is a PNG-encoded frame.
	FormatPNG PixelFormat = "png"
	// FormatOpaque frames carry no pixel data the process can read.
	// Only a stream-native decoder can use them.
	FormatOpaque PixelFormat = "opaque"
)

// Decodable reports whether Frame.Image supports the format.
func (f PixelFormat) Decodable() bool {
	switch f {
	case FormatGray8, FormatRGB24, FormatJPEG, FormatPNG:
		return true
	default:
		return false
	}
}

// Frame is one captured video frame.
type Frame struct {
	Seq       uint64
	Timestamp time.Time
	Width     int
	Height    int
	Format    PixelFormat
	Data      []byte
}

// Image decodes the frame.
func (f Frame) Image() (image.Image, error) {
	switch f.Format {
	case FormatJPEG, FormatPNG:
		img, _, err := image.Decode(bytes.NewReader(f.Data))
		if err != nil {
			return nil, fmt.Errorf("decode %s frame %d: %w", f.Format, f.Seq, err)
		}
		return img, nil

	case FormatGray8:
		if err := f.checkSize(1); err != nil {
			return nil, err
		}
		return &image.Gray{
			Pix:    f.Data,
			Stride: f.Width,
			Rect:   image.Rect(0, 0, f.Width, f.Height),
		}, nil

	case FormatRGB24:
		if err := f.checkSize(3); err != nil {
			return nil, err
		}
		img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
		for i, p := 0, 0; i+2 < len(f.Data); i, p = i+3, p+4 {
			img.Pix[p] = f.Data[i]
			img.Pix[p+1] = f.Data[i+1]
			img.Pix[p+2] = f.Data[i+2]
			img.Pix[p+3] = uint8(color.Opaque.A >> 8)
		}
		return img, nil

	default:
		return nil, fmt.Errorf("frame %d: pixel format %q cannot be decoded", f.Seq, f.Format)
	}
}

func (f Frame) checkSize(bytesPerPixel int) error {
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("frame %d: invalid size %dx%d", f.Seq, f.Width, f.Height)
	}
	if want := f.Width * f.Height * bytesPerPixel; len(f.Data) != want {
		return fmt.Errorf("frame %d: %s data is %d bytes, want %d", f.Seq, f.Format, len(f.Data), want)
	}
	return nil
}
