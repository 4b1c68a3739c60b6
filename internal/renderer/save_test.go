package renderer

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRenderToDirCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	m := gradientMap(t, 4, 5)

	path, err := RenderToDir(m, dir, "sample_", DefaultOptions())
	if err != nil {
		t.Fatalf("RenderToDir: %v", err)
	}

	if want := filepath.Join(dir, "sample_heatmap.jpg"); path != want {
		t.Errorf("path = %s, want %s", path, want)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("heatmap file was not created: %v", err)
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		t.Fatalf("decoding written file: %v", err)
	}
	if format != "jpeg" {
		t.Errorf("format = %s, want jpeg", format)
	}
	if cfg.Width != 5*14 || cfg.Height != 4*14 {
		t.Errorf("written size = %dx%d, want 70x56", cfg.Width, cfg.Height)
	}

	t.Logf("✓ Generated sample heatmap: %s", path)
}

func TestSaveImagePNGRoundTrip(t *testing.T) {
	m := gradientMap(t, 3, 3)
	img, err := Render(m, DefaultOptions())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	path := filepath.Join(t.TempDir(), "heatmap.png")
	if err := SaveImage(img, path, 0); err != nil {
		t.Fatalf("SaveImage: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}

	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r1, g1, b1, _ := img.At(x, y).RGBA()
			r2, g2, b2, _ := decoded.At(x, y).RGBA()
			if r1 != r2 || g1 != g2 || b1 != b2 {
				t.Fatalf("pixel (%d,%d) changed through PNG", x, y)
			}
		}
	}
}

func TestSaveImageDeterministicBytes(t *testing.T) {
	m := gradientMap(t, 6, 6)
	dir := t.TempDir()

	for _, format := range []string{"jpg", "png"} {
		opts := DefaultOptions()
		opts.Format = format

		first, err := RenderToDir(m, filepath.Join(dir, "a"), "", opts)
		if err != nil {
			t.Fatalf("RenderToDir: %v", err)
		}
		second, err := RenderToDir(m, filepath.Join(dir, "b"), "", opts)
		if err != nil {
			t.Fatalf("RenderToDir: %v", err)
		}

		a, _ := os.ReadFile(first)
		b, _ := os.ReadFile(second)
		if len(a) == 0 || !bytes.Equal(a, b) {
			t.Errorf("%s: repeated renders are not byte-identical", format)
		}
	}
}

func TestSaveImageOverwrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "heatmap.png")
	if err := os.WriteFile(path, []byte("stale"), 0o644); err != nil {
		t.Fatal(err)
	}
	unrelated := filepath.Join(dir, "keep.txt")
	if err := os.WriteFile(unrelated, []byte("keep"), 0o644); err != nil {
		t.Fatal(err)
	}

	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	if err := SaveImage(img, path, 0); err != nil {
		t.Fatalf("SaveImage: %v", err)
	}

	data, _ := os.ReadFile(path)
	if string(data) == "stale" {
		t.Error("existing file was not replaced")
	}
	if data, err := os.ReadFile(unrelated); err != nil || string(data) != "keep" {
		t.Error("unrelated file was touched")
	}
	assertNoTempFiles(t, dir)
}

func TestSaveImageUnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))

	err := SaveImage(img, filepath.Join(dir, "heatmap.gif"), 0)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("error = %v, want ErrUnsupportedFormat", err)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("expected empty directory, found %d entries", len(entries))
	}
}

func TestSaveImageDirectoryIsAFile(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	if err := SaveImage(img, filepath.Join(blocker, "heatmap.png"), 0); err == nil {
		t.Error("expected error when parent path is a regular file")
	}
	assertNoTempFiles(t, dir)
}

// TestSaveImageTargetIsDirectory forces the final rename to fail and checks
// the temporary file is cleaned up.
func TestSaveImageTargetIsDirectory(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "heatmap.png")
	if err := os.MkdirAll(filepath.Join(target, "child"), 0o755); err != nil {
		t.Fatal(err)
	}

	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	if err := SaveImage(img, target, 0); err == nil {
		t.Error("expected error when target is a non-empty directory")
	}
	assertNoTempFiles(t, dir)
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temporary file left behind: %s", e.Name())
		}
	}
}
