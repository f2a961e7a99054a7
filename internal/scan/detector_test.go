package scan

import (
	"context"
	"testing"

	"github.com/makiuchi-d/gozxing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/shelflife/internal/testutil"
)

func TestImageDetector_DecodesEAN13(t *testing.T) {
	frame := Frame{
		Seq:    1,
		Format: FormatPNG,
		Data:   testutil.BarcodePNG(t, gozxing.BarcodeFormat_EAN_13, testutil.EAN13Code),
	}

	codes, err := NewImageDetector().Detect(context.Background(), frame)
	require.NoError(t, err)
	require.Len(t, codes, 1)
	assert.Equal(t, Barcode{Value: testutil.EAN13Code, Symbology: EAN13}, codes[0])
}

func TestImageDetector_DecodesEAN8FromGrayFrame(t *testing.T) {
	pix, w, h := testutil.Gray8(testutil.BarcodeImage(t, gozxing.BarcodeFormat_EAN_8, testutil.EAN8Code))
	frame := Frame{Seq: 2, Format: FormatGray8, Width: w, Height: h, Data: pix}

	codes, err := NewImageDetector().Detect(context.Background(), frame)
	require.NoError(t, err)
	require.Len(t, codes, 1)
	assert.Equal(t, Barcode{Value: testutil.EAN8Code, Symbology: EAN8}, codes[0])
}

func TestImageDetector_DecodesCode128(t *testing.T) {
	frame := Frame{
		Seq:    3,
		Format: FormatPNG,
		Data:   testutil.BarcodePNG(t, gozxing.BarcodeFormat_CODE_128, "LOT-2291"),
	}

	codes, err := NewImageDetector().Detect(context.Background(), frame)
	require.NoError(t, err)
	require.Len(t, codes, 1)
	assert.Equal(t, Barcode{Value: "LOT-2291", Symbology: Code128}, codes[0])
}

func TestImageDetector_RestrictedSymbologies(t *testing.T) {
	frame := Frame{
		Format: FormatPNG,
		Data:   testutil.BarcodePNG(t, gozxing.BarcodeFormat_CODE_128, "LOT-2291"),
	}

	codes, err := NewImageDetector(EAN13, EAN8).Detect(context.Background(), frame)
	require.NoError(t, err)
	assert.Empty(t, codes)
}

func TestImageDetector_BlankFrame(t *testing.T) {
	frame := Frame{Format: FormatPNG, Data: testutil.BlankPNG(t, 320, 120)}

	codes, err := NewImageDetector().Detect(context.Background(), frame)
	require.NoError(t, err)
	assert.Empty(t, codes)
}

func TestImageDetector_CorruptFrame(t *testing.T) {
	frame := Frame{Seq: 9, Format: FormatJPEG, Data: []byte("not a jpeg")}

	_, err := NewImageDetector().Detect(context.Background(), frame)
	assert.Error(t, err)
}

func TestFrame_Image(t *testing.T) {
	t.Run("gray8 size mismatch", func(t *testing.T) {
		_, err := Frame{Format: FormatGray8, Width: 4, Height: 4, Data: make([]byte, 15)}.Image()
		assert.Error(t, err)
	})

	t.Run("rgb24", func(t *testing.T) {
		data := []byte{255, 0, 0, 0, 255, 0}
		img, err := Frame{Format: FormatRGB24, Width: 2, Height: 1, Data: data}.Image()
		require.NoError(t, err)
		r, g, _, a := img.At(0, 0).RGBA()
		assert.Equal(t, uint32(0xffff), r)
		assert.Equal(t, uint32(0), g)
		assert.Equal(t, uint32(0xffff), a)
		_, g, _, _ = img.At(1, 0).RGBA()
		assert.Equal(t, uint32(0xffff), g)
	})

	t.Run("opaque", func(t *testing.T) {
		_, err := Frame{Format: FormatOpaque}.Image()
		assert.Error(t, err)
	})
}

func TestImageProbe(t *testing.T) {
	probe := ImageProbe()

	b, ok := probe(newFakeStream(FormatJPEG))
	assert.True(t, ok)
	assert.Equal(t, "zxing", b.Name)
	assert.Zero(t, b.Interval, "one attempt per frame")

	_, ok = probe(newFakeStream(FormatOpaque))
	assert.False(t, ok)
}

func TestNativeProbe(t *testing.T) {
	probe := NativeProbe(0)

	_, ok := probe(newFakeStream(FormatGray8))
	assert.False(t, ok)

	b, ok := probe(&nativeStream{fakeStream: newFakeStream(FormatOpaque)})
	assert.True(t, ok)
	assert.Equal(t, DefaultPollInterval, b.Interval)
}

func TestParseSymbology(t *testing.T) {
	sym, err := ParseSymbology("UPC-E")
	require.NoError(t, err)
	assert.Equal(t, UPCE, sym)

	_, err = ParseSymbology("QR")
	assert.Error(t, err)
}

func TestScanner_DecodesRealFrames(t *testing.T) {
	stream := newFakeStream(FormatPNG)
	cam := &fakeCamera{devices: []Device{{ID: "cam0", Label: "Rear"}}, stream: stream}
	sc := NewScanner(cam)

	s, err := sc.Open(context.Background())
	require.NoError(t, err)

	blank := testutil.BlankPNG(t, 320, 120)
	code := testutil.BarcodePNG(t, gozxing.BarcodeFormat_EAN_13, testutil.EAN13Code)
	waitState(t, s, StateDetecting)
	require.True(t, stream.push(blank))
	require.True(t, stream.push(code))

	o := waitOutcome(t, s)
	assert.Equal(t, StateSucceeded, o.State)
	assert.Equal(t, testutil.EAN13Code, o.Barcode.Value)
	assert.Equal(t, "zxing", s.Backend())
}
