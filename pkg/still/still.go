// Package still resizes single-frame images and encodes them as WebP.
package still

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/gifsmith/reframe/internal/logging"
	"github.com/gifsmith/reframe/pkg/io/video"

	// decoders for the formats accepted as input
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

var (
	// ErrEmptyPayload is returned when there are no bytes to decode.
	ErrEmptyPayload = errors.New("still: empty payload")
	errBadSize      = errors.New("still: target size must not be negative")
)

var logger = logging.NewLogger("reframe/still")

// Options controls the WebP output.
type Options struct {
	Quality  float32
	Lossless bool
}

func DefaultOptions() Options {
	return Options{Quality: 80}
}

// Result is a resized image and its WebP encoding.
type Result struct {
	Image  *image.NRGBA
	Source image.Point
	WebP   []byte
}

// Resize decodes data and resizes it to exactly size, ignoring the aspect
// ratio. A zero size halves both sides, rounding down.
func Resize(data []byte, size image.Point) (*image.NRGBA, image.Point, error) {
	if len(data) == 0 {
		return nil, image.Point{}, ErrEmptyPayload
	}
	if size.X < 0 || size.Y < 0 {
		return nil, image.Point{}, errBadSize
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, image.Point{}, fmt.Errorf("still: decoding: %w", err)
	}

	src := img.Bounds().Size()
	if size.X == 0 || size.Y == 0 {
		size = video.HalfSize(src)
	}

	logger.Debugf("resizing %dx%d to %dx%d", src.X, src.Y, size.X, size.Y)
	return imaging.Resize(img, size.X, size.Y, imaging.Lanczos), src, nil
}

// ResizeToWebP resizes data like Resize and encodes the result as WebP.
func ResizeToWebP(data []byte, size image.Point, opts Options) (*Result, error) {
	img, src, err := Resize(data, size)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := EncodeWebP(&buf, img, opts); err != nil {
		return nil, err
	}

	return &Result{Image: img, Source: src, WebP: buf.Bytes()}, nil
}

// EncodeWebP writes img to w as WebP.
func EncodeWebP(w io.Writer, img image.Image, opts Options) error {
	err := webp.Encode(w, img, &webp.Options{
		Lossless: opts.Lossless,
		Quality:  opts.Quality,
	})
	if err != nil {
		return fmt.Errorf("still: encoding webp: %w", err)
	}
	return nil
}
