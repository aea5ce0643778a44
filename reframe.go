// Package reframe fetches an image and writes a smaller copy of it. Animated
// GIFs stay animated GIFs; every other format becomes a WebP still.
package reframe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/gifsmith/reframe/internal/logging"
	"github.com/gifsmith/reframe/pkg/animation"
	"github.com/gifsmith/reframe/pkg/io/video"
	"github.com/gifsmith/reframe/pkg/still"
	"github.com/google/uuid"
)

var logger = logging.NewLogger("reframe")

// ErrEmptyPayload is returned when there is nothing to resize.
var ErrEmptyPayload = errors.New("reframe: empty payload")

// Kind is the output path an image takes.
type Kind int

const (
	KindStill Kind = iota
	KindGIF
)

func (k Kind) String() string {
	if k == KindGIF {
		return "gif"
	}
	return "still"
}

// Classification describes the payload before anything is resized.
type Classification struct {
	// Format is the name the image decoder registered, e.g. "gif" or "png".
	Format   string
	Kind     Kind
	Frames   int
	Animated bool
}

// Classify detects the image format of data. GIFs are walked once to count
// their frames. Only animated GIFs take the GIF path; a single-frame GIF is
// a still like any other format.
func Classify(data []byte) (Classification, error) {
	if len(data) == 0 {
		return Classification{}, ErrEmptyPayload
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Classification{}, fmt.Errorf("reframe: detecting format: %w", err)
	}

	c := Classification{Format: format, Kind: KindStill, Frames: 1}
	if format == "gif" {
		n, err := animation.CountFrames(data)
		if err != nil {
			return Classification{}, err
		}
		c.Frames = n
		c.Animated = n > 1
		if c.Animated {
			c.Kind = KindGIF
		}
	}
	return c, nil
}

// Options configures a Resizer. The zero value is not usable; start from
// DefaultOptions.
type Options struct {
	Dir            string
	BaseName       string
	GIFExtension   string
	StillExtension string

	Scaler video.Scaler
	GIF    animation.EncodeOptions
	WebP   still.Options
}

func DefaultOptions() Options {
	return Options{
		Dir:            ".",
		BaseName:       "1-out",
		GIFExtension:   ".gif",
		StillExtension: ".png",
		GIF:            animation.DefaultEncodeOptions(),
		WebP:           still.DefaultOptions(),
	}
}

// Fetcher retrieves the source bytes. *fetch.Fetcher implements it.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Result reports what was written.
type Result struct {
	Path           string
	Classification Classification
	// Frames is the number of frames written.
	Frames int
	Size   image.Point
}

type Resizer struct {
	opts Options
}

func NewResizer(opts Options) *Resizer {
	return &Resizer{opts: opts}
}

// ResizeURL fetches url with f and resizes the payload.
func (r *Resizer) ResizeURL(ctx context.Context, f Fetcher, url string, size image.Point) (*Result, error) {
	data, err := f.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	return r.Resize(data, size)
}

// Resize resizes data and writes it next to the configured base name. For
// animated GIFs size is a bounding box; for everything else it is the exact
// output size. A zero size halves the image.
func (r *Resizer) Resize(data []byte, size image.Point) (*Result, error) {
	c, err := Classify(data)
	if err != nil {
		return nil, err
	}
	logger.Infof("payload is %s with %d frame(s), animated=%v", c.Format, c.Frames, c.Animated)

	if c.Kind == KindGIF {
		return r.resizeGIF(data, size, c)
	}
	return r.resizeStill(data, size, c)
}

func (r *Resizer) resizeGIF(data []byte, size image.Point, c Classification) (*Result, error) {
	seq, err := animation.ResizeFrames(data, size, animation.Options{Scaler: r.opts.Scaler})
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := animation.EncodeGIF(&buf, seq, r.opts.GIF); err != nil {
		return nil, err
	}

	path, err := r.write(r.opts.GIFExtension, buf.Bytes())
	if err != nil {
		return nil, err
	}

	return &Result{
		Path:           path,
		Classification: c,
		Frames:         len(seq.Frames),
		Size:           seq.Frames[0].Bounds().Size(),
	}, nil
}

func (r *Resizer) resizeStill(data []byte, size image.Point, c Classification) (*Result, error) {
	res, err := still.ResizeToWebP(data, size, r.opts.WebP)
	if err != nil {
		return nil, err
	}

	path, err := r.write(r.opts.StillExtension, res.WebP)
	if err != nil {
		return nil, err
	}

	return &Result{
		Path:           path,
		Classification: c,
		Frames:         1,
		Size:           res.Image.Bounds().Size(),
	}, nil
}

// write stores data at Dir/BaseName+ext through a temporary file, so a
// failed run never leaves a truncated output behind.
func (r *Resizer) write(ext string, data []byte) (string, error) {
	path := filepath.Join(r.opts.Dir, r.opts.BaseName+ext)
	tmp := filepath.Join(r.opts.Dir, fmt.Sprintf(".%s.%s.tmp", r.opts.BaseName, uuid.NewString()))

	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return "", fmt.Errorf("reframe: writing output: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("reframe: writing output: %w", err)
	}

	logger.Infof("wrote %s (%d bytes)", path, len(data))
	return path, nil
}
