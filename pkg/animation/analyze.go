package animation

import (
	"image"
	"io"
)

// Mode tells how the frames of a GIF update the canvas.
type Mode int

const (
	// ModeFull means every frame covers the whole canvas.
	ModeFull Mode = iota
	// ModePartial means at least one frame only updates a sub-rectangle and
	// has to be drawn over what came before it.
	ModePartial
)

func (m Mode) String() string {
	switch m {
	case ModeFull:
		return "full"
	case ModePartial:
		return "partial"
	default:
		return "unknown"
	}
}

// Analysis is computed once per GIF, before any frame is recomposed.
type Analysis struct {
	Size image.Point
	Mode Mode
}

// Analyze walks the frames of data and reports ModePartial as soon as one
// frame's update region differs from the full canvas.
func Analyze(data []byte) (Analysis, error) {
	src, err := OpenFrames(data)
	if err != nil {
		return Analysis{}, err
	}

	result := Analysis{Size: src.Size(), Mode: ModeFull}
	canvas := image.Rectangle{Max: result.Size}
	for {
		f, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Analysis{}, err
		}

		if f.Image.Bounds() != canvas {
			logger.Debugf("frame %d updates %v of %v", f.Index, f.Image.Bounds(), canvas)
			result.Mode = ModePartial
			break
		}
	}

	return result, nil
}
