package ui

import (
	"fmt"
	"image"
	"image/color"
	"strings"
)

// PreviewConfig holds configuration for the heatmap preview
type PreviewConfig struct {
	Width  int // Width in terminal cells
	Height int // Height in terminal cells
}

// DefaultPreviewConfig returns a preview for square heatmaps.
// Terminal cells are roughly twice as tall as they are wide, hence 2:1.
func DefaultPreviewConfig() PreviewConfig {
	return PreviewConfig{
		Width:  48,
		Height: 24,
	}
}

// DownsampleFrame reduces an image to preview size. Each terminal cell
// averages the rectangular region of the source image it covers; sources
// smaller than the preview repeat pixels instead.
func DownsampleFrame(frame *image.RGBA, config PreviewConfig) [][]color.RGBA {
	if config.Width <= 0 || config.Height <= 0 {
		return nil
	}

	bounds := frame.Bounds()
	srcWidth := bounds.Dx()
	srcHeight := bounds.Dy()
	if srcWidth == 0 || srcHeight == 0 {
		return nil
	}

	preview := make([][]color.RGBA, config.Height)
	for row := 0; row < config.Height; row++ {
		preview[row] = make([]color.RGBA, config.Width)

		y0 := row * srcHeight / config.Height
		y1 := max((row+1)*srcHeight/config.Height, y0+1)

		for col := 0; col < config.Width; col++ {
			x0 := col * srcWidth / config.Width
			x1 := max((col+1)*srcWidth/config.Width, x0+1)

			var sumR, sumG, sumB uint32
			pixelCount := uint32(0)

			for y := y0; y < y1; y++ {
				for x := x0; x < x1; x++ {
					c := frame.RGBAAt(bounds.Min.X+x, bounds.Min.Y+y)
					sumR += uint32(c.R)
					sumG += uint32(c.G)
					sumB += uint32(c.B)
					pixelCount++
				}
			}

			preview[row][col] = color.RGBA{
				R: uint8(sumR / pixelCount),
				G: uint8(sumG / pixelCount),
				B: uint8(sumB / pixelCount),
				A: 255,
			}
		}
	}

	return preview
}

// RenderPreview converts an RGB preview grid to a string using ANSI 24-bit
// background colours, one space per cell.
func RenderPreview(preview [][]color.RGBA) string {
	if len(preview) == 0 {
		return ""
	}

	var b strings.Builder
	edge := strings.Repeat("─", len(preview[0]))

	b.WriteString("  Heatmap Preview:\n")
	b.WriteString("  ┌" + edge + "┐\n")

	for _, row := range preview {
		b.WriteString("  │")
		for _, pixel := range row {
			// \x1b[48;2;R;G;Bm sets the background colour
			fmt.Fprintf(&b, "\x1b[48;2;%d;%d;%dm \x1b[0m", pixel.R, pixel.G, pixel.B)
		}
		b.WriteString("│\n")
	}

	b.WriteString("  └" + edge + "┘\n")

	return b.String()
}
