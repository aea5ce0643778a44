// Package video chains per-frame image transforms over a lazy frame source.
//
// A Reader yields frames one at a time and reports io.EOF once the source is
// exhausted. Readers are not restartable.
package video

import (
	"image"
	"io"
)

type Reader interface {
	Read() (img image.Image, release func(), err error)
}

type ReaderFunc func() (img image.Image, release func(), err error)

func (rf ReaderFunc) Read() (img image.Image, release func(), err error) {
	img, release, err = rf()
	return
}

// TransformFunc produces a new Reader that will produces transformed frames
type TransformFunc func(r Reader) Reader

// Merge merges transforms and produces a new TransformFunc that will execute
// transforms in order
func Merge(transforms ...TransformFunc) TransformFunc {
	return func(r Reader) Reader {
		for _, transform := range transforms {
			if transform == nil {
				continue
			}

			r = transform(r)
		}

		return r
	}
}

// ForEach reads r until io.EOF and hands every frame to fn in order. The
// frame's release func is called after fn returns. Any error other than
// io.EOF, from r or from fn, stops the iteration and is returned.
func ForEach(r Reader, fn func(image.Image) error) error {
	for {
		img, release, err := r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		err = fn(img)
		if release != nil {
			release()
		}
		if err != nil {
			return err
		}
	}
}
