// Package animation resizes animated GIFs. Frames are decoded one at a time,
// composited against the accumulated canvas, shrunk to a bounding box and
// re-encoded.
package animation

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"time"

	gifx "github.com/NathanBaulch/gifx"
)

var (
	// ErrEmptyPayload is returned when there are no bytes to decode.
	ErrEmptyPayload = errors.New("animation: empty payload")
	errNoPalette    = errors.New("animation: frame has no palette and there is no global palette")
	errNoFrames     = errors.New("animation: no frames")
)

// SourceFrame is one frame as stored in the GIF. Its bounds are the frame's
// update region on the canvas, not necessarily the whole canvas.
type SourceFrame struct {
	Index    int
	Image    *image.Paletted
	Delay    int // hundredths of a second
	Disposal byte
}

// FrameSource walks the frames of a GIF in order. Next returns io.EOF after
// the last frame. A FrameSource cannot be rewound; open a new one to start
// over.
type FrameSource struct {
	dec       *gifx.Decoder
	header    *gifx.Header
	loopCount int
	next      int
	done      bool
}

// OpenFrames reads the GIF header from data. No frame is decoded until Next
// is called.
func OpenFrames(data []byte) (*FrameSource, error) {
	if len(data) == 0 {
		return nil, ErrEmptyPayload
	}

	dec := gifx.NewDecoder(bytes.NewReader(data))
	header, err := dec.ReadHeader()
	if err != nil {
		return nil, fmt.Errorf("animation: reading header: %w", err)
	}

	return &FrameSource{
		dec:       dec,
		header:    header,
		loopCount: -1,
	}, nil
}

// Size is the size of the logical screen every frame is drawn on.
func (s *FrameSource) Size() image.Point {
	return image.Pt(s.header.Config.Width, s.header.Config.Height)
}

// GlobalPalette returns the global color table, or nil when the GIF has none.
func (s *FrameSource) GlobalPalette() color.Palette {
	p, _ := s.header.Config.ColorModel.(color.Palette)
	if len(p) == 0 {
		return nil
	}
	return p
}

// LoopCount is the NETSCAPE loop count seen so far, -1 when absent. It is
// only reliable once the frames have been read.
func (s *FrameSource) LoopCount() int {
	return s.loopCount
}

// Next decodes the next frame. Blocks other than frames are consumed on the
// way. It returns io.EOF at the trailer; any other error means the stream is
// malformed and the source must not be used further.
func (s *FrameSource) Next() (*SourceFrame, error) {
	if s.done {
		return nil, io.EOF
	}

	for {
		block, err := s.dec.ReadBlock()
		if err == io.EOF {
			s.done = true
			return nil, io.EOF
		}
		if err != nil {
			s.done = true
			return nil, fmt.Errorf("animation: frame %d: %w", s.next, err)
		}

		switch b := block.(type) {
		case *gifx.ApplicationNetscape:
			s.loopCount = b.LoopCount
		case *gifx.Frame:
			f := &SourceFrame{
				Index:    s.next,
				Image:    b.Image,
				Delay:    int(b.DelayTime / (10 * time.Millisecond)),
				Disposal: b.DisposalMethod,
			}
			s.next++
			return f, nil
		}
	}
}

// CountFrames returns the number of frames in the GIF held by data.
func CountFrames(data []byte) (int, error) {
	src, err := OpenFrames(data)
	if err != nil {
		return 0, err
	}

	var n int
	for {
		_, err := src.Next()
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		n++
	}
}
