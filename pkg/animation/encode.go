package animation

import (
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"io"

	gifx "github.com/NathanBaulch/gifx"
	"golang.org/x/image/draw"
)

// DefaultLoopCount is written to the NETSCAPE extension of animated output.
const DefaultLoopCount = 1000

// maxColors is the number of opaque colors a frame may use. The last of the
// 256 palette entries is reserved for transparency.
const maxColors = 255

// EncodeOptions controls EncodeGIF.
type EncodeOptions struct {
	LoopCount int
	// Optimize replaces pixels that did not change since the previous frame
	// with transparency so they compress to almost nothing.
	Optimize bool
	// Dither enables Floyd-Steinberg error diffusion when quantizing.
	Dither bool
}

func DefaultEncodeOptions() EncodeOptions {
	return EncodeOptions{
		LoopCount: DefaultLoopCount,
		Optimize:  true,
		Dither:    true,
	}
}

// fallbackPalette is used for frames that come without a source palette.
var fallbackPalette = func() color.Palette {
	p := make(color.Palette, 0, maxColors)
	p = append(p, palette.WebSafe...)
	for i := 1; i < 40; i++ {
		v := uint8(i * 0xff / 40)
		p = append(p, color.RGBA{R: v, G: v, B: v, A: 0xff})
	}
	return p
}()

// EncodeGIF writes seq to w. Every frame is quantized onto the colors of the
// source frame it came from and carries its own color table when that
// differs from the first frame's. More than one frame gives an animated GIF
// that loops opts.LoopCount times. A single frame is written as a still
// image with no animation extension.
func EncodeGIF(w io.Writer, seq *Sequence, opts EncodeOptions) error {
	if seq == nil || len(seq.Frames) == 0 {
		return errNoFrames
	}

	images := make([]*image.Paletted, len(seq.Frames))
	for i, f := range seq.Frames {
		pal := fallbackPalette
		if i < len(seq.Palettes) && len(seq.Palettes[i]) > 0 {
			pal = seq.Palettes[i]
		}
		images[i] = quantize(f, pal, opts.Dither)
	}

	if len(images) == 1 {
		logger.Warn("only 1 frame found, writing a still image")
		return gifx.Encode(w, images[0], nil)
	}

	delays := make([]int, len(images))
	copy(delays, seq.Delays)

	disposals := make([]byte, len(images))
	for i := range disposals {
		disposals[i] = gif.DisposalNone
	}

	if opts.Optimize {
		optimize(images, seq.Frames, disposals)
	}

	first := images[0].Bounds()
	return gifx.EncodeAll(w, &gifx.GIF{
		Image:     images,
		Delay:     delays,
		Disposal:  disposals,
		LoopCount: opts.LoopCount,
		Config: image.Config{
			ColorModel: images[0].Palette,
			Width:      first.Dx(),
			Height:     first.Dy(),
		},
	})
}

// quantize maps src onto pal, which holds opaque colors only, and appends a
// transparent entry. Pixels that are less than half opaque become
// transparent.
func quantize(src *image.RGBA, pal color.Palette, dither bool) *image.Paletted {
	if len(pal) > maxColors {
		pal = pal[:maxColors]
	}

	bounds := src.Bounds()
	dst := image.NewPaletted(bounds, pal)
	if dither {
		draw.FloydSteinberg.Draw(dst, bounds, src, bounds.Min)
	} else {
		draw.Draw(dst, bounds, src, bounds.Min, draw.Src)
	}

	dst.Palette = append(pal[:len(pal):len(pal)], color.RGBA{})
	transparent := transparentIndex(dst)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if src.RGBAAt(x, y).A < 0x80 {
				dst.SetColorIndex(x, y, transparent)
			}
		}
	}
	return dst
}

// transparentIndex is the last entry of a palette built by quantize.
func transparentIndex(p *image.Paletted) uint8 {
	return uint8(len(p.Palette) - 1)
}

// optimize turns every frame after the first into a delta against the frame
// before it: pixels whose color did not change become transparent. A frame
// that makes a previously opaque pixel transparent cannot be a delta; it is
// kept whole and the frame before it is disposed to the background instead.
func optimize(images []*image.Paletted, frames []*image.RGBA, disposals []byte) {
	for i := 1; i < len(images); i++ {
		prev, cur := frames[i-1], frames[i]
		if prev.Rect != cur.Rect || !canDelta(prev, cur) {
			disposals[i-1] = gif.DisposalBackground
			continue
		}

		img := images[i]
		transparent := transparentIndex(img)
		for j := 0; j+3 < len(cur.Pix); j += 4 {
			if cur.Pix[j] == prev.Pix[j] && cur.Pix[j+1] == prev.Pix[j+1] &&
				cur.Pix[j+2] == prev.Pix[j+2] && cur.Pix[j+3] == prev.Pix[j+3] {
				img.Pix[j/4] = transparent
			}
		}
	}
}

func canDelta(prev, cur *image.RGBA) bool {
	for j := 3; j < len(cur.Pix); j += 4 {
		if cur.Pix[j] < 0x80 && prev.Pix[j] >= 0x80 {
			return false
		}
	}
	return true
}
