package animation

import (
	"image"
	"image/color"

	"github.com/gifsmith/reframe/pkg/io/video"
	"golang.org/x/image/draw"
)

// Options controls ResizeFrames.
type Options struct {
	// Scaler used to shrink frames. nil selects video.ScalerCatmullRom.
	Scaler video.Scaler
}

// Sequence is the resized animation, ready to be encoded. Frames keep the
// order of the source.
type Sequence struct {
	Frames []*image.RGBA
	// Delays holds one entry per frame, in hundredths of a second.
	Delays []int
	// Palettes holds the opaque colors of each source frame. Frames are
	// quantized back onto them when encoding.
	Palettes []color.Palette
	// LoopCount from the source, -1 when it had none.
	LoopCount int
	Mode      Mode
	// SourceSize is the canvas size of the source animation.
	SourceSize image.Point
}

// ResizeFrames decodes the GIF in data and returns every frame composited
// and shrunk to fit in box. A zero box shrinks the animation to half its
// size.
func ResizeFrames(data []byte, box image.Point, opts Options) (*Sequence, error) {
	analysis, err := Analyze(data)
	if err != nil {
		return nil, err
	}
	logger.Infof("gif %dx%d uses %s frame updates", analysis.Size.X, analysis.Size.Y, analysis.Mode)

	if box.X <= 0 || box.Y <= 0 {
		box = video.HalfSize(analysis.Size)
	}

	src, err := OpenFrames(data)
	if err != nil {
		return nil, err
	}
	rec := Recompose(src, analysis.Mode)
	frames := video.Merge(video.Thumbnail(box, opts.Scaler))(rec)

	seq := &Sequence{
		Mode:       analysis.Mode,
		SourceSize: analysis.Size,
	}
	err = video.ForEach(frames, func(img image.Image) error {
		seq.Frames = append(seq.Frames, toRGBA(img))
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(seq.Frames) == 0 {
		return nil, errNoFrames
	}

	seq.Delays = rec.Delays()
	seq.Palettes = rec.Palettes()
	seq.LoopCount = src.LoopCount()
	logger.Debugf("resized %d frames to fit %dx%d", len(seq.Frames), box.X, box.Y)
	return seq, nil
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	rgba := image.NewRGBA(image.Rectangle{Max: img.Bounds().Size()})
	draw.Draw(rgba, rgba.Rect, img, img.Bounds().Min, draw.Src)
	return rgba
}
