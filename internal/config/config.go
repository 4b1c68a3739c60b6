package config

import (
	"errors"
	"fmt"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Patch grid settings (ViT-S/14 backbone)
const (
	PatchSize = 14  // Patch side in input pixels, also the heatmap upscale factor
	InputSize = 448 // Square input resolution fed to the extractor
	GridSize  = InputSize / PatchSize
	EmbedDim  = 384 // Descriptor width of ViT-S/14
)

// Preprocessing statistics (ImageNet)
var (
	ImageMean = [3]float32{0.485, 0.456, 0.406}
	ImageStd  = [3]float32{0.229, 0.224, 0.225}
)

// ONNX runtime defaults
const (
	DefaultInputName  = "input"
	DefaultOutputName = "x_norm_patchtokens"
)

// Output settings
const (
	DefaultFormat       = "jpg"
	DefaultQuality      = 95 // JPEG quality (1-100)
	HeatmapBaseName     = "heatmap"
	OverlayBaseName     = "overlay"
	DefaultOverlayAlpha = 0.5
)

// Legend strip
const (
	LegendHeight   = 40 // Height in pixels of the strip appended under the heatmap
	LegendBarInset = 8  // Horizontal inset of the colorbar inside the strip
	LegendFontSize = 14

	// Brand yellow #F8B31D - default legend label colour
	TextColorR = 248
	TextColorG = 179
	TextColorB = 29
)

// ErrInvalidHexColor is returned by ParseHexColor for malformed input.
var ErrInvalidHexColor = errors.New("invalid hex colour")

// ParseHexColor parses "RRGGBB" or "#RRGGBB" into its byte components.
func ParseHexColor(s string) (r, g, b uint8, err error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 {
		return 0, 0, 0, fmt.Errorf("%w: %q", ErrInvalidHexColor, s)
	}
	for _, c := range hex {
		if !isHexDigit(c) {
			return 0, 0, 0, fmt.Errorf("%w: %q", ErrInvalidHexColor, s)
		}
	}

	c, err := colorful.Hex("#" + strings.ToLower(hex))
	if err != nil {
		return 0, 0, 0, fmt.Errorf("%w: %q: %v", ErrInvalidHexColor, s, err)
	}
	r, g, b = c.RGB255()
	return r, g, b, nil
}

func isHexDigit(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// RuntimeConfig holds user overrides. Nil fields fall back to the constants above.
type RuntimeConfig struct {
	TextColorR *uint8
	TextColorG *uint8
	TextColorB *uint8

	Scale     *int
	InputSize *int
	EmbedDim  *int
	Quality   *int
}

// GetTextColor returns the legend label colour. All three channels must be
// set for the override to apply.
func (c *RuntimeConfig) GetTextColor() (r, g, b uint8) {
	if c == nil || c.TextColorR == nil || c.TextColorG == nil || c.TextColorB == nil {
		return TextColorR, TextColorG, TextColorB
	}
	return *c.TextColorR, *c.TextColorG, *c.TextColorB
}

// SetTextColorHex parses a hex string and stores it as the text colour override.
func (c *RuntimeConfig) SetTextColorHex(s string) error {
	r, g, b, err := ParseHexColor(s)
	if err != nil {
		return err
	}
	c.TextColorR, c.TextColorG, c.TextColorB = &r, &g, &b
	return nil
}

// GetScale returns the heatmap upscale factor.
func (c *RuntimeConfig) GetScale() int {
	if c == nil || c.Scale == nil || *c.Scale <= 0 {
		return PatchSize
	}
	return *c.Scale
}

// GetInputSize returns the square extractor input resolution.
func (c *RuntimeConfig) GetInputSize() int {
	if c == nil || c.InputSize == nil || *c.InputSize <= 0 {
		return InputSize
	}
	return *c.InputSize
}

// GetEmbedDim returns the descriptor width.
func (c *RuntimeConfig) GetEmbedDim() int {
	if c == nil || c.EmbedDim == nil || *c.EmbedDim <= 0 {
		return EmbedDim
	}
	return *c.EmbedDim
}

// GetQuality returns the JPEG quality clamped to 1-100.
func (c *RuntimeConfig) GetQuality() int {
	if c == nil || c.Quality == nil {
		return DefaultQuality
	}
	q := *c.Quality
	if q < 1 {
		return 1
	}
	if q > 100 {
		return 100
	}
	return q
}

// GetGridSize returns the patch grid side for the configured input size.
func (c *RuntimeConfig) GetGridSize() int {
	return c.GetInputSize() / PatchSize
}
