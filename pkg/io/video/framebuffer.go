package video

import (
	"image"

	"golang.org/x/image/draw"
)

// FrameBuffer keeps a private copy of one frame and reuses its memory across
// stores.
type FrameBuffer struct {
	buffer []uint8
	tmp    image.Image
}

// NewFrameBuffer creates a new FrameBuffer instance and initialize internal buffer
// with initialSize
func NewFrameBuffer(initialSize int) *FrameBuffer {
	return &FrameBuffer{
		buffer: make([]uint8, initialSize),
	}
}

func (buff *FrameBuffer) store(src []uint8) []uint8 {
	if len(buff.buffer) < len(src) {
		if cap(buff.buffer) >= len(src) {
			buff.buffer = buff.buffer[:len(src)]
		} else {
			buff.buffer = make([]uint8, len(src))
		}
	}

	copy(buff.buffer, src)
	return buff.buffer[:len(src):len(src)]
}

// Load loads the current owned image
func (buff *FrameBuffer) Load() image.Image {
	return buff.tmp
}

// StoreCopy makes a copy of src and store its copy. StoreCopy will reuse as much memory as it can
// from the previous copies. Images other than *image.RGBA and *image.NRGBA are
// converted to *image.RGBA first.
func (buff *FrameBuffer) StoreCopy(src image.Image) {
	switch src := src.(type) {
	case *image.RGBA:
		clone, ok := buff.tmp.(*image.RGBA)
		if ok {
			*clone = *src
		} else {
			copied := *src
			clone = &copied
		}

		clone.Pix = buff.store(src.Pix)
		buff.tmp = clone
	case *image.NRGBA:
		clone, ok := buff.tmp.(*image.NRGBA)
		if ok {
			*clone = *src
		} else {
			copied := *src
			clone = &copied
		}

		clone.Pix = buff.store(src.Pix)
		buff.tmp = clone
	default:
		converted := image.NewRGBA(src.Bounds())
		draw.Draw(converted, converted.Rect, src, src.Bounds().Min, draw.Src)
		buff.StoreCopy(converted)
	}
}

// RestoreTo copies the stored frame into dst. dst must have the same bounds
// as the stored frame.
func (buff *FrameBuffer) RestoreTo(dst *image.RGBA) {
	stored := buff.Load()
	if stored == nil {
		return
	}
	draw.Draw(dst, dst.Rect, stored, stored.Bounds().Min, draw.Src)
}
