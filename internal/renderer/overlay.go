package renderer

import (
	"errors"
	"fmt"
	"image"
)

// ErrInvalidAlpha is returned for blend factors outside [0, 1].
var ErrInvalidAlpha = errors.New("overlay alpha must be within [0, 1]")

// Overlay scales base to the heatmap size and blends the heatmap over it
// with the given opacity.
func Overlay(base image.Image, heat *image.RGBA, alpha float64) (*image.RGBA, error) {
	if alpha < 0 || alpha > 1 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAlpha, alpha)
	}

	bounds := heat.Bounds()
	out := ScaleTo(base, bounds.Dx(), bounds.Dy())

	// Pre-computed per-byte contributions in 8.8 fixed point
	var heatTable, bgTable [256]uint16
	for v := 0; v < 256; v++ {
		heatTable[v] = uint16(float64(v)*alpha*256 + 0.5)
		bgTable[v] = uint16(float64(v)*(1-alpha)*256 + 0.5)
	}

	for y := 0; y < bounds.Dy(); y++ {
		src := heat.Pix[heat.PixOffset(bounds.Min.X, bounds.Min.Y+y):]
		dst := out.Pix[y*out.Stride:]
		for x := 0; x < bounds.Dx(); x++ {
			o := x * 4
			for ch := 0; ch < 3; ch++ {
				v := (uint32(heatTable[src[o+ch]]) + uint32(bgTable[dst[o+ch]])) >> 8
				if v > 255 {
					v = 255
				}
				dst[o+ch] = uint8(v)
			}
			dst[o+3] = 255
		}
	}

	return out, nil
}
