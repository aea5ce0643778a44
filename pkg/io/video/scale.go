package video

import (
	"fmt"
	"image"
	"math"
	"strings"

	"golang.org/x/image/draw"
)

// Scaler represents scaling algorithm
type Scaler draw.Scaler

// List of scaling algorithms
var (
	ScalerNearestNeighbor = Scaler(draw.NearestNeighbor)
	ScalerApproxBiLinear  = Scaler(draw.ApproxBiLinear)
	ScalerBiLinear        = Scaler(draw.BiLinear)
	ScalerCatmullRom      = Scaler(draw.CatmullRom)
)

var scalersByName = map[string]Scaler{
	"nearest":    ScalerNearestNeighbor,
	"approx":     ScalerApproxBiLinear,
	"bilinear":   ScalerBiLinear,
	"catmullrom": ScalerCatmullRom,
}

// ScalerByName looks up a scaler by its config name: nearest, approx,
// bilinear or catmullrom. An empty name selects catmullrom.
func ScalerByName(name string) (Scaler, error) {
	if name == "" {
		return ScalerCatmullRom, nil
	}
	s, ok := scalersByName[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("scaling: unknown scaler %q", name)
	}
	return s, nil
}

// HalfSize halves both sides of size, rounding down, but never below 1.
func HalfSize(size image.Point) image.Point {
	return image.Pt(max(size.X/2, 1), max(size.Y/2, 1))
}

// ThumbnailSize returns the size src shrinks to so that it fits in box while
// keeping its aspect ratio. src is returned unchanged when it already fits;
// the result is never larger than src and never smaller than 1x1.
func ThumbnailSize(src, box image.Point) image.Point {
	w, h := src.X, src.Y
	if w <= 0 || h <= 0 {
		return src
	}
	bw, bh := max(box.X, 1), max(box.Y, 1)
	if bw >= w && bh >= h {
		return src
	}

	aspect := float64(w) / float64(h)
	if float64(bw)/float64(bh) >= aspect {
		nw := roundAspect(float64(bh)*aspect, func(n float64) float64 {
			return math.Abs(aspect - n/float64(bh))
		})
		return image.Pt(nw, bh)
	}

	nh := roundAspect(float64(bw)/aspect, func(n float64) float64 {
		if n == 0 {
			return 0
		}
		return math.Abs(aspect - float64(bw)/n)
	})
	return image.Pt(bw, nh)
}

// roundAspect picks whichever of floor(v) and ceil(v) distorts the aspect
// ratio least, floor on ties.
func roundAspect(v float64, distortion func(float64) float64) int {
	lo, hi := math.Floor(v), math.Ceil(v)
	n := lo
	if distortion(hi) < distortion(lo) {
		n = hi
	}
	return max(int(n), 1)
}

// Thumbnail returns a transform that shrinks every frame to fit in box,
// keeping the aspect ratio. Frames that already fit are passed through as is.
// Setting scaler=nil to use default scaler. (ScalerCatmullRom)
func Thumbnail(box image.Point, scaler Scaler) TransformFunc {
	return func(r Reader) Reader {
		if scaler == nil {
			scaler = ScalerCatmullRom
		}

		return ReaderFunc(func() (image.Image, func(), error) {
			img, release, err := r.Read()
			if err != nil {
				return nil, func() {}, err
			}

			bounds := img.Bounds()
			size := ThumbnailSize(bounds.Size(), box)
			if size == bounds.Size() {
				return img, release, nil
			}

			dst := image.NewRGBA(image.Rectangle{Max: size})
			scaler.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)
			if release != nil {
				release()
			}
			return dst, func() {}, nil
		})
	}
}
