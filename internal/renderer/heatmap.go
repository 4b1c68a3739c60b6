package renderer

import (
	"errors"
	"fmt"
	"image"
	"math"
	"path/filepath"
	"strings"

	"github.com/linuxmatters/patchmap/internal/config"
	"golang.org/x/image/draw"
)

var (
	// ErrInvalidShape is returned when the input is not a non-empty rank-2 grid.
	ErrInvalidShape = errors.New("invalid feature map shape")
	// ErrDegenerateInput is returned in strict mode when every value is equal.
	ErrDegenerateInput = errors.New("degenerate feature map: max equals min")
	// ErrNonFinite is returned when the map holds NaN or infinite values.
	ErrNonFinite = errors.New("feature map contains non-finite values")
)

// midpointLevel is the normalised value used for a constant field in permissive mode.
const midpointLevel = 0.5

// FeatureMap is an immutable H×W grid of projected patch values, row-major.
type FeatureMap struct {
	h, w int
	data []float64
}

// FromSlice builds a map from a flat row-major slice. The slice is copied.
func FromSlice(values []float64, h, w int) (FeatureMap, error) {
	if h <= 0 || w <= 0 {
		return FeatureMap{}, fmt.Errorf("%w: %dx%d", ErrInvalidShape, h, w)
	}
	if len(values) != h*w {
		return FeatureMap{}, fmt.Errorf("%w: %d values for a %dx%d grid", ErrInvalidShape, len(values), h, w)
	}
	data := make([]float64, len(values))
	copy(data, values)
	return FeatureMap{h: h, w: w, data: data}, nil
}

// FromShape builds a map from a flat slice and an explicit shape, rejecting
// any shape that is not rank 2.
func FromShape(shape []int, values []float64) (FeatureMap, error) {
	if len(shape) != 2 {
		return FeatureMap{}, fmt.Errorf("%w: rank %d, want 2", ErrInvalidShape, len(shape))
	}
	return FromSlice(values, shape[0], shape[1])
}

// FromRows builds a map from nested rows, which must all have the same length.
func FromRows(rows [][]float64) (FeatureMap, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return FeatureMap{}, fmt.Errorf("%w: empty", ErrInvalidShape)
	}
	w := len(rows[0])
	data := make([]float64, 0, len(rows)*w)
	for i, row := range rows {
		if len(row) != w {
			return FeatureMap{}, fmt.Errorf("%w: row %d has %d values, want %d", ErrInvalidShape, i, len(row), w)
		}
		data = append(data, row...)
	}
	return FeatureMap{h: len(rows), w: w, data: data}, nil
}

// Dims returns the grid height and width.
func (m FeatureMap) Dims() (h, w int) { return m.h, m.w }

// At returns the value at row r, column c.
func (m FeatureMap) At(r, c int) float64 { return m.data[r*m.w+c] }

// Range returns the minimum and maximum value.
func (m FeatureMap) Range() (lo, hi float64) {
	if len(m.data) == 0 {
		return 0, 0
	}
	lo, hi = m.data[0], m.data[0]
	for _, v := range m.data[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// Interp selects how cells are upscaled.
type Interp int

const (
	// InterpNearest replicates each cell as a uniform block.
	InterpNearest Interp = iota
	// InterpBilinear blends across cell boundaries.
	InterpBilinear
)

// ParseInterp maps a flag value to an Interp.
func ParseInterp(s string) (Interp, error) {
	switch strings.ToLower(s) {
	case "", "nearest", "block":
		return InterpNearest, nil
	case "bilinear", "linear":
		return InterpBilinear, nil
	default:
		return InterpNearest, fmt.Errorf("unknown interpolation: %s", s)
	}
}

func (i Interp) String() string {
	if i == InterpBilinear {
		return "bilinear"
	}
	return "nearest"
}

// Options controls rendering and output encoding.
type Options struct {
	Scale   int    // Upscale factor per cell
	Interp  Interp // Upscale method
	Strict  bool   // Fail on constant input instead of rendering the midpoint colour
	Format  string // "jpg" or "png", used by RenderToDir
	Quality int    // JPEG quality
}

// DefaultOptions returns the settings matching the ViT-S/14 patch grid.
func DefaultOptions() Options {
	return Options{
		Scale:   config.PatchSize,
		Interp:  InterpNearest,
		Format:  config.DefaultFormat,
		Quality: config.DefaultQuality,
	}
}

// Normalize rescales every value into [0, 1] by the map's min and max.
// A constant map yields 0.5 everywhere unless strict is set.
func Normalize(m FeatureMap, strict bool) ([]float64, error) {
	if m.h <= 0 || m.w <= 0 || len(m.data) != m.h*m.w {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidShape, m.h, m.w)
	}
	for i, v := range m.data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: cell (%d, %d) = %v", ErrNonFinite, i/m.w, i%m.w, v)
		}
	}

	lo, hi := m.Range()
	out := make([]float64, len(m.data))
	span := hi - lo
	if span == 0 {
		if strict {
			return nil, fmt.Errorf("%w: all %d values are %v", ErrDegenerateInput, len(m.data), lo)
		}
		for i := range out {
			out[i] = midpointLevel
		}
		return out, nil
	}

	for i, v := range m.data {
		out[i] = (v - lo) / span
	}
	return out, nil
}

// Quantize truncates normalised values to 8-bit levels.
func Quantize(normalized []float64) []uint8 {
	levels := make([]uint8, len(normalized))
	for i, n := range normalized {
		switch {
		case n <= 0:
			levels[i] = 0
		case n >= 1:
			levels[i] = 255
		default:
			levels[i] = uint8(n * 255)
		}
	}
	return levels
}

// Render normalises, colourises and upscales a feature map.
func Render(m FeatureMap, opts Options) (*image.RGBA, error) {
	normalized, err := Normalize(m, opts.Strict)
	if err != nil {
		return nil, err
	}
	levels := Quantize(normalized)

	scale := opts.Scale
	if scale <= 0 {
		scale = config.PatchSize
	}

	if opts.Interp == InterpBilinear {
		return renderBilinear(levels, m.h, m.w, scale), nil
	}
	return renderBlocks(levels, m.h, m.w, scale), nil
}

// renderBlocks writes each cell as a scale×scale block. One scanline is built
// per grid row and copied down the block.
func renderBlocks(levels []uint8, h, w, scale int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w*scale, h*scale))
	rowBytes := w * scale * 4

	// Pre-allocate pixel pattern buffer for one cell width
	pixelPattern := make([]byte, scale*4)

	for y := 0; y < h; y++ {
		top := y * scale * img.Stride
		line := img.Pix[top : top+rowBytes]

		for x := 0; x < w; x++ {
			c := &jetTable[levels[y*w+x]]
			for px := 0; px < scale; px++ {
				offset := px * 4
				pixelPattern[offset] = c[0]
				pixelPattern[offset+1] = c[1]
				pixelPattern[offset+2] = c[2]
				pixelPattern[offset+3] = 255
			}
			copy(line[x*scale*4:], pixelPattern)
		}

		for dy := 1; dy < scale; dy++ {
			offset := (y*scale + dy) * img.Stride
			copy(img.Pix[offset:offset+rowBytes], line)
		}
	}

	return img
}

// renderBilinear colourises at grid resolution then scales with bilinear filtering.
func renderBilinear(levels []uint8, h, w, scale int) *image.RGBA {
	small := image.NewRGBA(image.Rect(0, 0, w, h))
	for i, level := range levels {
		c := &jetTable[level]
		o := (i/w)*small.Stride + (i%w)*4
		small.Pix[o] = c[0]
		small.Pix[o+1] = c[1]
		small.Pix[o+2] = c[2]
		small.Pix[o+3] = 255
	}

	dst := image.NewRGBA(image.Rect(0, 0, w*scale, h*scale))
	draw.BiLinear.Scale(dst, dst.Bounds(), small, small.Bounds(), draw.Src, nil)
	return dst
}

// OutputPath returns <dir>/<prefix><base>.<format>.
func OutputPath(dir, prefix, base, format string) string {
	if format == "" {
		format = config.DefaultFormat
	}
	return filepath.Join(dir, prefix+base+"."+strings.TrimPrefix(format, "."))
}

// RenderToDir renders the map and writes it to <dir>/<prefix>heatmap.<format>,
// creating dir if needed. It returns the written path.
func RenderToDir(m FeatureMap, dir, prefix string, opts Options) (string, error) {
	img, err := Render(m, opts)
	if err != nil {
		return "", err
	}

	path := OutputPath(dir, prefix, config.HeatmapBaseName, opts.Format)
	if err := SaveImage(img, path, opts.Quality); err != nil {
		return "", err
	}
	return path, nil
}
