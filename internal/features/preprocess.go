package features

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"os"

	_ "golang.org/x/image/bmp"  // Register BMP decoder
	_ "golang.org/x/image/tiff" // Register TIFF decoder
	_ "golang.org/x/image/webp" // Register WebP decoder

	"golang.org/x/image/draw"
)

// LoadImage decodes an image file in any registered format.
func LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return img, nil
}

// Resize scales img to a size×size RGBA image with bilinear filtering.
func Resize(img image.Image, size int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// Preprocess resizes img to size×size and returns a normalised NCHW tensor
// (N=1): each channel value v in [0,1] becomes (v - mean[c]) / std[c].
func Preprocess(img image.Image, size int, mean, std [3]float32) ([]float32, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid input size: %d", size)
	}
	for c := 0; c < 3; c++ {
		if std[c] == 0 {
			return nil, fmt.Errorf("channel %d has zero std", c)
		}
	}

	rgba := Resize(img, size)
	plane := size * size
	out := make([]float32, 3*plane)

	// Pre-compute the normalised value for every 8-bit level per channel
	var lut [3][256]float32
	for c := 0; c < 3; c++ {
		for v := 0; v < 256; v++ {
			lut[c][v] = (float32(v)/255 - mean[c]) / std[c]
		}
	}

	for y := 0; y < size; y++ {
		row := rgba.Pix[y*rgba.Stride:]
		for x := 0; x < size; x++ {
			o := x * 4
			i := y*size + x
			out[i] = lut[0][row[o]]
			out[plane+i] = lut[1][row[o+1]]
			out[2*plane+i] = lut[2][row[o+2]]
		}
	}

	return out, nil
}
