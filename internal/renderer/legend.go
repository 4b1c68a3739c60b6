package renderer

import (
	"fmt"
	"image"
	"image/color"

	"github.com/golang/freetype"
	"github.com/linuxmatters/patchmap/internal/config"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// LegendOptions controls the strip appended under a heatmap.
type LegendOptions struct {
	Height    int
	FontSize  float64
	TextColor color.RGBA
}

// DefaultLegendOptions returns the brand-yellow legend settings.
func DefaultLegendOptions() LegendOptions {
	return LegendOptions{
		Height:    config.LegendHeight,
		FontSize:  config.LegendFontSize,
		TextColor: color.RGBA{R: config.TextColorR, G: config.TextColorG, B: config.TextColorB, A: 255},
	}
}

// AddLegend returns a copy of heat with a black strip underneath holding a
// horizontal colorbar and the lo / hi values of the rendered range.
func AddLegend(heat *image.RGBA, lo, hi float64, opts LegendOptions) (*image.RGBA, error) {
	if opts.Height <= 0 {
		opts.Height = config.LegendHeight
	}
	if opts.FontSize <= 0 {
		opts.FontSize = config.LegendFontSize
	}

	bounds := heat.Bounds()
	width := bounds.Dx()
	out := image.NewRGBA(image.Rect(0, 0, width, bounds.Dy()+opts.Height))

	draw.Draw(out, out.Bounds(), image.NewUniform(color.RGBA{A: 255}), image.Point{}, draw.Src)
	draw.Draw(out, image.Rect(0, 0, width, bounds.Dy()), heat, bounds.Min, draw.Src)

	stripTop := bounds.Dy()
	barHeight := opts.Height / 3
	drawColorbar(out, config.LegendBarInset, width-config.LegendBarInset, stripTop+4, stripTop+4+barHeight)

	face, err := LoadFont(opts.FontSize)
	if err != nil {
		return nil, err
	}
	defer face.Close()

	baseline := stripTop + opts.Height - 6
	loText := formatLegendValue(lo)
	hiText := formatLegendValue(hi)

	drawLabel(out, face, opts.TextColor, loText, config.LegendBarInset, baseline)
	hiWidth, _ := measureText(face, hiText)
	drawLabel(out, face, opts.TextColor, hiText, width-config.LegendBarInset-hiWidth, baseline)

	return out, nil
}

// drawColorbar fills [x0,x1)×[y0,y1) with the jet ramp from left to right.
func drawColorbar(img *image.RGBA, x0, x1, y0, y1 int) {
	span := x1 - x0
	if span <= 0 || y1 <= y0 {
		return
	}

	// Build one scanline, then copy it down
	line := make([]byte, span*4)
	for x := 0; x < span; x++ {
		level := 0
		if span > 1 {
			level = x * 255 / (span - 1)
		}
		c := &jetTable[level]
		line[x*4] = c[0]
		line[x*4+1] = c[1]
		line[x*4+2] = c[2]
		line[x*4+3] = 255
	}

	for y := y0; y < y1 && y < img.Bounds().Max.Y; y++ {
		offset := y*img.Stride + x0*4
		copy(img.Pix[offset:offset+span*4], line)
	}
}

func formatLegendValue(v float64) string {
	return fmt.Sprintf("%.3g", v)
}

// measureText returns the width and bounds of rendered text.
func measureText(face font.Face, text string) (int, fixed.Rectangle26_6) {
	d := &font.Drawer{Face: face}
	bounds, _ := d.BoundString(text)
	width := (bounds.Max.X - bounds.Min.X).Ceil()
	return width, bounds
}

func drawLabel(img *image.RGBA, face font.Face, c color.RGBA, text string, x, baselineY int) {
	if text == "" {
		return
	}
	if x < 0 {
		x = 0
	}

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  freetype.Pt(x, baselineY),
	}
	d.DrawString(text)
}
