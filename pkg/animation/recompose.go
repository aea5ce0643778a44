package animation

import (
	"image"
	"image/color"
	"image/gif"

	"github.com/gifsmith/reframe/internal/logging"
	"github.com/gifsmith/reframe/pkg/io/video"
	"golang.org/x/image/draw"
)

var logger = logging.NewLogger("reframe/animation")

// Recomposer turns the frames of a FrameSource into complete RGBA images the
// size of the canvas. It implements video.Reader, so the output can be fed
// through video transforms.
//
// The canvas carried from one frame to the next is always the full
// resolution composite; resizing happens downstream and never feeds back.
// In ModePartial every frame is drawn over the canvas and the frame's
// disposal method is applied to the canvas afterwards. In ModeFull every
// frame is drawn on a blank image of its own.
type Recomposer struct {
	src      *FrameSource
	mode     Mode
	palette  color.Palette
	canvas   *image.RGBA
	previous *video.FrameBuffer
	delays   []int
	palettes []color.Palette
}

func Recompose(src *FrameSource, mode Mode) *Recomposer {
	return &Recomposer{
		src:      src,
		mode:     mode,
		palette:  src.GlobalPalette(),
		previous: video.NewFrameBuffer(0),
	}
}

// Read returns the next composited frame. It returns io.EOF after the last
// one.
func (r *Recomposer) Read() (image.Image, func(), error) {
	f, err := r.src.Next()
	if err != nil {
		return nil, func() {}, err
	}

	if len(f.Image.Palette) == 0 {
		if r.palette == nil {
			return nil, func() {}, errNoPalette
		}
		f.Image.Palette = r.palette
	}

	bounds := f.Image.Bounds()
	if r.canvas == nil {
		// Blank until the first frame is drawn on it below, so that disposing
		// the first frame to "previous" goes back to nothing.
		r.canvas = image.NewRGBA(image.Rectangle{Max: r.src.Size()})
	}

	var frame *image.RGBA
	if r.mode == ModePartial {
		frame = r.compositePartial(f)
	} else {
		frame = image.NewRGBA(r.canvas.Rect)
		draw.Draw(frame, bounds, f.Image, bounds.Min, draw.Over)
		r.canvas = frame
	}

	logger.Tracef("frame %d (%s) region %v disposal %d", f.Index, r.mode, bounds, f.Disposal)
	r.delays = append(r.delays, f.Delay)
	r.palettes = append(r.palettes, framePalette(f.Image.Palette, r.palette))
	return frame, func() {}, nil
}

func (r *Recomposer) compositePartial(f *SourceFrame) *image.RGBA {
	bounds := f.Image.Bounds()
	if f.Disposal == gif.DisposalPrevious {
		r.previous.StoreCopy(r.canvas)
	}

	draw.Draw(r.canvas, bounds, f.Image, bounds.Min, draw.Over)

	frame := image.NewRGBA(r.canvas.Rect)
	copy(frame.Pix, r.canvas.Pix)

	switch f.Disposal {
	case gif.DisposalBackground:
		draw.Draw(r.canvas, bounds, image.Transparent, image.Point{}, draw.Src)
	case gif.DisposalPrevious:
		r.previous.RestoreTo(r.canvas)
	}

	return frame
}

// Canvas returns the full resolution canvas as it stands after the frames
// read so far.
func (r *Recomposer) Canvas() *image.RGBA {
	return r.canvas
}

// Palettes returns, for every frame read so far, the opaque colors its
// source frame could use: the local color table first, then the global one.
func (r *Recomposer) Palettes() []color.Palette {
	return r.palettes
}

// framePalette merges the given palettes into at most maxColors distinct
// opaque colors, keeping their order.
func framePalette(palettes ...color.Palette) color.Palette {
	seen := make(map[color.RGBA]bool)
	var merged color.Palette
	for _, p := range palettes {
		for _, c := range p {
			rgba := color.RGBAModel.Convert(c).(color.RGBA)
			if rgba.A != 0xff || seen[rgba] {
				continue
			}
			if len(merged) == maxColors {
				return merged
			}
			seen[rgba] = true
			merged = append(merged, rgba)
		}
	}
	if len(merged) == 0 {
		merged = append(merged, color.RGBA{A: 0xff})
	}
	return merged
}

// Delays returns the delay of every frame read so far, in hundredths of a
// second.
func (r *Recomposer) Delays() []int {
	return r.delays
}
