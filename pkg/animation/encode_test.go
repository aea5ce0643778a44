package animation

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"testing"

	"github.com/gifsmith/reframe/pkg/io/video"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fourFramePartial is a 300x200 animation whose last three frames only
// update a part of the canvas.
func fourFramePartial(t *testing.T) []byte {
	canvas := image.Pt(300, 200)
	return buildGIF(t, canvas,
		testFrame{rect: image.Rectangle{Max: canvas}, fill: white, delay: 10},
		testFrame{rect: image.Rect(0, 0, 150, 100), fill: red, delay: 10},
		testFrame{rect: image.Rect(150, 100, 300, 200), fill: green, delay: 20},
		testFrame{rect: image.Rect(100, 50, 200, 150), fill: blue, delay: 30},
	)
}

func TestResizeFramesKeepsFrameCount(t *testing.T) {
	seq, err := ResizeFrames(fourFramePartial(t), image.Pt(100, 100), Options{})
	require.NoError(t, err)

	assert.Equal(t, ModePartial, seq.Mode)
	assert.Equal(t, image.Pt(300, 200), seq.SourceSize)
	require.Len(t, seq.Frames, 4)
	for _, f := range seq.Frames {
		assert.Equal(t, image.Rect(0, 0, 100, 67), f.Bounds())
	}
	assert.Equal(t, []int{10, 10, 20, 30}, seq.Delays)
	assert.Equal(t, 0, seq.LoopCount)
}

func TestResizeFramesDefaultsToHalfSize(t *testing.T) {
	seq, err := ResizeFrames(fourFramePartial(t), image.Point{}, Options{Scaler: video.ScalerNearestNeighbor})
	require.NoError(t, err)
	require.Len(t, seq.Frames, 4)
	assert.Equal(t, image.Rect(0, 0, 150, 100), seq.Frames[0].Bounds())

	// red and green quarters survive into the last frame
	last := seq.Frames[3]
	assert.Equal(t, red, rgbaAt(last, 10, 10))
	assert.Equal(t, green, rgbaAt(last, 140, 90))
	assert.Equal(t, blue, rgbaAt(last, 75, 50))
}

func TestResizeFramesMalformed(t *testing.T) {
	data := fourFramePartial(t)
	_, err := ResizeFrames(data[:len(data)-8], image.Pt(100, 100), Options{})
	assert.Error(t, err)

	_, err = ResizeFrames(nil, image.Pt(100, 100), Options{})
	assert.ErrorIs(t, err, ErrEmptyPayload)
}

func TestEncodeGIFRoundTrip(t *testing.T) {
	seq, err := ResizeFrames(fourFramePartial(t), image.Pt(100, 100), Options{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, EncodeGIF(&buf, seq, DefaultEncodeOptions()))

	decoded, err := gif.DecodeAll(&buf)
	require.NoError(t, err)
	assert.Len(t, decoded.Image, 4)
	assert.Equal(t, DefaultLoopCount, decoded.LoopCount)
	assert.Equal(t, []int{10, 10, 20, 30}, decoded.Delay)
	assert.LessOrEqual(t, decoded.Config.Width, 100)
	assert.LessOrEqual(t, decoded.Config.Height, 100)
	for _, f := range decoded.Image {
		assert.LessOrEqual(t, f.Bounds().Dx(), 100)
		assert.LessOrEqual(t, f.Bounds().Dy(), 100)
	}
}

func TestEncodeGIFSingleFrameIsStill(t *testing.T) {
	canvas := image.Pt(40, 40)
	seq, err := ResizeFrames(buildGIF(t, canvas, full(canvas, red)), image.Pt(20, 20), Options{})
	require.NoError(t, err)
	require.Len(t, seq.Frames, 1)

	var buf bytes.Buffer
	require.NoError(t, EncodeGIF(&buf, seq, DefaultEncodeOptions()))
	assert.False(t, bytes.Contains(buf.Bytes(), []byte("NETSCAPE2.0")), "a still image must not carry a loop extension")

	decoded, err := gif.DecodeAll(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Len(t, decoded.Image, 1)
	assert.Equal(t, image.Rect(0, 0, 20, 20), decoded.Image[0].Bounds())
}

func TestEncodeGIFNoFrames(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, EncodeGIF(&buf, &Sequence{}, DefaultEncodeOptions()))
	assert.Error(t, EncodeGIF(&buf, nil, DefaultEncodeOptions()))
}

func TestQuantizeTransparency(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.SetRGBA(0, 0, red)
	img.SetRGBA(1, 0, transparent)

	for _, dither := range []bool{true, false} {
		p := quantize(img, color.Palette{white, red}, dither)
		require.Len(t, p.Palette, 3)
		assert.Equal(t, uint8(2), transparentIndex(p))
		assert.Equal(t, transparentIndex(p), p.ColorIndexAt(1, 0))
		assert.Equal(t, red, rgbaAt(p, 0, 0))
	}
}

func TestQuantizeKeepsFlatColors(t *testing.T) {
	navy := color.RGBA{R: 0x12, G: 0x34, B: 0x56, A: 0xff}
	img := solidRGBA(8, 8, navy)

	p := quantize(img, color.Palette{navy, white}, true)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			assert.Equal(t, navy, rgbaAt(p, x, y))
		}
	}
}

func TestOptimizeIdenticalFrames(t *testing.T) {
	frames := []*image.RGBA{solidRGBA(4, 4, red), solidRGBA(4, 4, red)}
	a := quantize(frames[0], testPalette[:4], false)
	b := quantize(frames[1], testPalette[:4], false)
	disposals := []byte{gif.DisposalNone, gif.DisposalNone}

	optimize([]*image.Paletted{a, b}, frames, disposals)

	for _, idx := range b.Pix {
		assert.Equal(t, transparentIndex(b), idx)
	}
	assert.NotEqual(t, transparentIndex(a), a.Pix[0])
	assert.Equal(t, []byte{gif.DisposalNone, gif.DisposalNone}, disposals)
}

func TestOptimizeNewTransparencyDisposesPrevious(t *testing.T) {
	frames := []*image.RGBA{solidRGBA(4, 4, red), solidRGBA(4, 4, transparent)}
	a := quantize(frames[0], testPalette[:4], false)
	b := quantize(frames[1], testPalette[:4], false)
	want := append([]uint8(nil), b.Pix...)
	disposals := []byte{gif.DisposalNone, gif.DisposalNone}

	optimize([]*image.Paletted{a, b}, frames, disposals)

	assert.Equal(t, want, b.Pix)
	assert.Equal(t, byte(gif.DisposalBackground), disposals[0])
}

// twoColorGIF is a 40x40 animation drawn with a two entry palette: a navy
// background, then a white square in the middle.
func twoColorGIF(t *testing.T, navy color.RGBA) []byte {
	pal := color.Palette{navy, white}
	bg := image.NewPaletted(image.Rect(0, 0, 40, 40), pal)
	square := image.NewPaletted(image.Rect(10, 10, 30, 30), pal)
	for i := range square.Pix {
		square.Pix[i] = 1
	}

	var buf bytes.Buffer
	require.NoError(t, gif.EncodeAll(&buf, &gif.GIF{
		Image:    []*image.Paletted{bg, square},
		Delay:    []int{10, 10},
		Disposal: []byte{gif.DisposalNone, gif.DisposalNone},
		Config:   image.Config{ColorModel: pal, Width: 40, Height: 40},
	}))
	return buf.Bytes()
}

func TestEncodeGIFKeepsSourceColors(t *testing.T) {
	navy := color.RGBA{R: 0x12, G: 0x34, B: 0x56, A: 0xff}
	seq, err := ResizeFrames(twoColorGIF(t, navy), image.Pt(20, 20), Options{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, EncodeGIF(&buf, seq, DefaultEncodeOptions()))

	decoded, err := gif.DecodeAll(&buf)
	require.NoError(t, err)
	require.Len(t, decoded.Image, 2)

	rendered := map[color.RGBA]int{}
	for _, f := range decoded.Image {
		b := f.Bounds()
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				if c := rgbaAt(f, x, y); c.A != 0 {
					rendered[c]++
				}
			}
		}
	}
	for c := range rendered {
		assert.Contains(t, []color.RGBA{navy, white}, c, "unexpected color %v", c)
	}
	assert.Equal(t, navy, rgbaAt(decoded.Image[0], 2, 2))
	assert.Equal(t, navy, rgbaAt(decoded.Image[0], 17, 17))
}

func TestEncodeGIFOptimizedDecodesToSameFrames(t *testing.T) {
	seq := &Sequence{
		Frames: []*image.RGBA{solidRGBA(6, 6, red), solidRGBA(6, 6, red), solidRGBA(6, 6, blue)},
		Delays: []int{1, 1, 1},
	}
	seq.Frames[1].SetRGBA(2, 2, blue)

	var buf bytes.Buffer
	require.NoError(t, EncodeGIF(&buf, seq, EncodeOptions{LoopCount: 0, Optimize: true}))

	decoded, err := gif.DecodeAll(&buf)
	require.NoError(t, err)
	require.Len(t, decoded.Image, 3)

	// Paint the frames like a viewer would and compare with the input.
	screen := image.NewRGBA(image.Rect(0, 0, 6, 6))
	for i, f := range decoded.Image {
		for y := 0; y < 6; y++ {
			for x := 0; x < 6; x++ {
				if c := rgbaAt(f, x, y); c.A != 0 {
					screen.SetRGBA(x, y, c)
				}
			}
		}
		for y := 0; y < 6; y++ {
			for x := 0; x < 6; x++ {
				assert.Equal(t, seq.Frames[i].RGBAAt(x, y), screen.RGBAAt(x, y), "frame %d pixel %d,%d", i, x, y)
			}
		}
	}
}

func solidRGBA(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}
