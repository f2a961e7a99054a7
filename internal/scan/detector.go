package scan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
)

// Symbology is a barcode encoding standard.
type Symbology string

const (
	EAN13   Symbology = "EAN-13"
	EAN8    Symbology = "EAN-8"
	UPCA    Symbology = "UPC-A"
	UPCE    Symbology = "UPC-E"
	Code128 Symbology = "Code-128"
)

// Symbologies is the fixed set of 1-D formats a session looks for.
var Symbologies = []Symbology{EAN13, EAN8, UPCA, UPCE, Code128}

// ParseSymbology matches a symbology by name.
func ParseSymbology(s string) (Symbology, error) {
	for _, sym := range Symbologies {
		if string(sym) == s {
			return sym, nil
		}
	}
	return "", fmt.Errorf("unknown symbology %q: must be one of %v", s, Symbologies)
}

// Barcode is one decoded barcode.
type Barcode struct {
	Value     string    `json:"value"`
	Symbology Symbology `json:"symbology"`
}

// Detector decodes barcodes from a frame. An error means the attempt failed
// for this frame only; zero barcodes with a nil error means none was found.
type Detector interface {
	Detect(ctx context.Context, frame Frame) ([]Barcode, error)
}

// Backend is a detector plus its scheduling cadence.
//
// Interval zero means one attempt per delivered frame. A positive interval
// polls the detector on a fixed delay and ignores frame delivery.
type Backend struct {
	Name     string
	Detector Detector
	Interval time.Duration
}

// Probe inspects an acquired stream and returns a backend that can serve it.
type Probe func(Stream) (Backend, bool)

// DefaultPollInterval is the cadence for stream-native decoders.
const DefaultPollInterval = 100 * time.Millisecond

// DefaultProbes prefers a stream-native decoder and falls back to decoding
// frames in-process.
func DefaultProbes() []Probe {
	return []Probe{NativeProbe(DefaultPollInterval), ImageProbe(Symbologies...)}
}

// NativeProbe accepts streams implementing NativeDecoder and polls them
// every interval.
func NativeProbe(interval time.Duration) Probe {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return func(s Stream) (Backend, bool) {
		nd, ok := s.(NativeDecoder)
		if !ok {
			return Backend{}, false
		}
		return Backend{
			Name:     "native",
			Detector: &nativeDetector{decoder: nd, allowed: allowSet(Symbologies)},
			Interval: interval,
		}, true
	}
}

// ImageProbe accepts streams whose frames can be decoded in-process and
// scans them for the given symbologies (all of them when none are given).
//
// gozxing readers keep per-call buffers, so each accepted stream gets its
// own detector.
func ImageProbe(syms ...Symbology) Probe {
	return func(s Stream) (Backend, bool) {
		if !s.Format().Decodable() {
			return Backend{}, false
		}
		return Backend{Name: "zxing", Detector: NewImageDetector(syms...)}, true
	}
}

type nativeDetector struct {
	decoder NativeDecoder
	allowed map[Symbology]bool
}

func (d *nativeDetector) Detect(ctx context.Context, _ Frame) ([]Barcode, error) {
	codes, err := d.decoder.DecodeLatest(ctx)
	if err != nil {
		return nil, err
	}
	out := codes[:0:0]
	for _, c := range codes {
		if d.allowed[c.Symbology] {
			out = append(out, c)
		}
	}
	return out, nil
}

// zxingReader pairs a gozxing reader with the symbology it reports.
type zxingReader struct {
	symbology Symbology
	format    gozxing.BarcodeFormat
	reader    gozxing.Reader
}

// ImageDetector decodes 1-D barcodes from frame images using gozxing.
type ImageDetector struct {
	readers []zxingReader
	hints   map[gozxing.DecodeHintType]interface{}
}

// NewImageDetector builds a detector for syms (all Symbologies when empty).
func NewImageDetector(syms ...Symbology) *ImageDetector {
	if len(syms) == 0 {
		syms = Symbologies
	}
	allowed := allowSet(syms)

	// UPC-A is tried before EAN-13: the EAN-13 reader would report a UPC-A
	// code with a leading zero.
	all := []zxingReader{
		{UPCA, gozxing.BarcodeFormat_UPC_A, oned.NewUPCAReader()},
		{EAN13, gozxing.BarcodeFormat_EAN_13, oned.NewEAN13Reader()},
		{EAN8, gozxing.BarcodeFormat_EAN_8, oned.NewEAN8Reader()},
		{UPCE, gozxing.BarcodeFormat_UPC_E, oned.NewUPCEReader()},
		{Code128, gozxing.BarcodeFormat_CODE_128, oned.NewCode128Reader()},
	}
	d := &ImageDetector{
		hints: map[gozxing.DecodeHintType]interface{}{
			gozxing.DecodeHintType_TRY_HARDER: true,
		},
	}
	for _, r := range all {
		if allowed[r.symbology] {
			d.readers = append(d.readers, r)
		}
	}
	return d
}

// Detect returns the first barcode found in frame, or none.
func (d *ImageDetector) Detect(ctx context.Context, frame Frame) ([]Barcode, error) {
	img, err := frame.Image()
	if err != nil {
		return nil, err
	}
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return nil, fmt.Errorf("binarize frame %d: %w", frame.Seq, err)
	}

	var lastErr error
	for _, r := range d.readers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result, err := r.reader.Decode(bmp, d.hints)
		if err != nil {
			var nf gozxing.NotFoundException
			if !errors.As(err, &nf) {
				lastErr = err
			}
			continue
		}
		if result.GetBarcodeFormat() != r.format {
			continue
		}
		return []Barcode{{Value: result.GetText(), Symbology: r.symbology}}, nil
	}
	if lastErr != nil {
		return nil, fmt.Errorf("decode frame %d: %w", frame.Seq, lastErr)
	}
	return nil, nil
}

func allowSet(syms []Symbology) map[Symbology]bool {
	m := make(map[Symbology]bool, len(syms))
	for _, s := range syms {
		m[s] = true
	}
	return m
}
