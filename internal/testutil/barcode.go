package testutil

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"testing"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/stretchr/testify/require"
)

// Well-formed codes with valid check digits.
const (
	EAN13Code = "4006381333931"
	EAN8Code  = "96385074"
)

// BarcodeImage renders code as a 1-D barcode. Supported formats are EAN-13,
// EAN-8 and Code-128.
func BarcodeImage(t testing.TB, format gozxing.BarcodeFormat, code string) image.Image {
	t.Helper()

	var w gozxing.Writer
	switch format {
	case gozxing.BarcodeFormat_EAN_13:
		w = oned.NewEAN13Writer()
	case gozxing.BarcodeFormat_EAN_8:
		w = oned.NewEAN8Writer()
	case gozxing.BarcodeFormat_CODE_128:
		w = oned.NewCode128Writer()
	default:
		t.Fatalf("unsupported barcode format %v", format)
	}

	matrix, err := w.Encode(code, format, 400, 120, nil)
	require.NoError(t, err, "encode %s", code)
	return matrix
}

// BarcodePNG renders code as PNG bytes.
func BarcodePNG(t testing.TB, format gozxing.BarcodeFormat, code string) []byte {
	t.Helper()
	return encodePNG(t, BarcodeImage(t, format, code))
}

// BlankPNG renders a white image with no barcode.
func BlankPNG(t testing.TB, width, height int) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	return encodePNG(t, img)
}

// Gray8 converts img to tightly packed 8-bit grayscale pixels.
func Gray8(img image.Image) (pix []byte, width, height int) {
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	return gray.Pix, b.Dx(), b.Dy()
}

func encodePNG(t testing.TB, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
