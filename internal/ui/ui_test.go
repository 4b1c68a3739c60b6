package ui

import (
	"errors"
	"image"
	"image/color"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

var _ tea.Model = (*Model)(nil)

func quadrants(size int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	half := size / 2
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := color.RGBA{B: 255, A: 255}
			if x >= half && y >= half {
				c = color.RGBA{R: 255, A: 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestDownsampleFrame(t *testing.T) {
	preview := DownsampleFrame(quadrants(96), PreviewConfig{Width: 8, Height: 4})

	if len(preview) != 4 || len(preview[0]) != 8 {
		t.Fatalf("preview is %dx%d, want 8x4", len(preview[0]), len(preview))
	}
	if got := preview[0][0]; got != (color.RGBA{B: 255, A: 255}) {
		t.Errorf("top-left = %v, want blue", got)
	}
	if got := preview[3][7]; got != (color.RGBA{R: 255, A: 255}) {
		t.Errorf("bottom-right = %v, want red", got)
	}
}

func TestDownsampleFrameSmallSource(t *testing.T) {
	// Source smaller than the preview repeats pixels instead of going black
	preview := DownsampleFrame(quadrants(4), PreviewConfig{Width: 8, Height: 8})

	for row := range preview {
		for col, c := range preview[row] {
			if c.R == 0 && c.B == 0 {
				t.Fatalf("cell (%d,%d) is black", row, col)
			}
		}
	}
}

func TestDownsampleFrameOffsetBounds(t *testing.T) {
	img := quadrants(16).SubImage(image.Rect(8, 8, 16, 16)).(*image.RGBA)
	preview := DownsampleFrame(img, PreviewConfig{Width: 2, Height: 2})

	for _, row := range preview {
		for _, c := range row {
			if c != (color.RGBA{R: 255, A: 255}) {
				t.Errorf("cell = %v, want red", c)
			}
		}
	}
}

func TestRenderPreview(t *testing.T) {
	if RenderPreview(nil) != "" {
		t.Error("empty preview should render nothing")
	}

	out := RenderPreview([][]color.RGBA{{{R: 1, G: 2, B: 3, A: 255}}})
	if !strings.Contains(out, "\x1b[48;2;1;2;3m") {
		t.Errorf("missing colour escape in %q", out)
	}
}

func TestModelLifecycle(t *testing.T) {
	m := NewModel("cat.jpg", []string{"Load", "Render"}, true)

	m.Update(StageStarted{Index: 0, Name: "Load"})
	m.Update(StageFinished{Index: 0, Name: "Load", Elapsed: 5 * time.Millisecond})
	if got := m.fraction(); got != 0.5 {
		t.Errorf("fraction = %v, want 0.5", got)
	}
	if !strings.Contains(m.View(), "cat.jpg") {
		t.Error("view should name the source")
	}

	// Out of range indices are ignored
	m.Update(StageFinished{Index: 7})

	_, cmd := m.Update(Complete{HeatmapPath: "out/heatmap.jpg", GridH: 32, GridW: 32, TotalTime: time.Second})
	if cmd == nil {
		t.Fatal("completion should schedule a quit")
	}
	summary := m.CompletionSummary()
	if !strings.Contains(summary, "out/heatmap.jpg") {
		t.Errorf("summary missing output path:\n%s", summary)
	}
}

func TestModelFailed(t *testing.T) {
	m := NewModel("", []string{"Load"}, true)
	m.Update(Failed{Err: errors.New("boom")})

	if m.Err() == nil || m.Err().Error() != "boom" {
		t.Errorf("Err() = %v", m.Err())
	}
	if m.CompletionSummary() != "" {
		t.Error("failed run should have no summary")
	}
}

func TestFormatHelpers(t *testing.T) {
	if got := formatDuration(1500 * time.Millisecond); got != "1.5s" {
		t.Errorf("formatDuration = %q", got)
	}
	if got := formatBytes(2048); got != "2.0 KB" {
		t.Errorf("formatBytes = %q", got)
	}
}
