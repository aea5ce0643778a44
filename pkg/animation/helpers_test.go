package animation

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	white       = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	red         = color.RGBA{R: 0xff, A: 0xff}
	green       = color.RGBA{G: 0xff, A: 0xff}
	blue        = color.RGBA{B: 0xff, A: 0xff}
	transparent = color.RGBA{}
)

var testPalette = color.Palette{white, red, green, blue, transparent}

// testFrame describes one frame of a synthetic GIF: rect is filled with fill
// and the frame is disposed with disposal.
type testFrame struct {
	rect     image.Rectangle
	fill     color.Color
	disposal byte
	delay    int
}

func buildGIF(t *testing.T, canvas image.Point, frames ...testFrame) []byte {
	t.Helper()

	g := &gif.GIF{
		Config: image.Config{
			ColorModel: testPalette,
			Width:      canvas.X,
			Height:     canvas.Y,
		},
		LoopCount: 0,
	}
	for _, f := range frames {
		img := image.NewPaletted(f.rect, testPalette)
		idx := uint8(testPalette.Index(f.fill))
		for i := range img.Pix {
			img.Pix[i] = idx
		}
		g.Image = append(g.Image, img)
		g.Delay = append(g.Delay, f.delay)
		g.Disposal = append(g.Disposal, f.disposal)
	}

	var buf bytes.Buffer
	require.NoError(t, gif.EncodeAll(&buf, g))
	return buf.Bytes()
}

func full(canvas image.Point, fill color.Color) testFrame {
	return testFrame{rect: image.Rectangle{Max: canvas}, fill: fill}
}

// partialFixture is a 20x20 animation: a white background, then a red
// top-left quarter, then a blue bottom-right quarter.
func partialFixture(t *testing.T) []byte {
	canvas := image.Pt(20, 20)
	return buildGIF(t, canvas,
		full(canvas, white),
		testFrame{rect: image.Rect(0, 0, 10, 10), fill: red, delay: 5},
		testFrame{rect: image.Rect(10, 10, 20, 20), fill: blue, delay: 7},
	)
}

func rgbaAt(img image.Image, x, y int) color.RGBA {
	return color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
}
