// Package pipeline runs an image through feature extraction, PCA and
// heatmap rendering.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"time"

	"github.com/linuxmatters/patchmap/internal/config"
	"github.com/linuxmatters/patchmap/internal/features"
	"github.com/linuxmatters/patchmap/internal/pca"
	"github.com/linuxmatters/patchmap/internal/renderer"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrGridMismatch is returned when the descriptor count cannot be laid out
	// as the requested or inferred patch grid.
	ErrGridMismatch = errors.New("descriptor count does not match patch grid")
	// ErrNoImage is returned when an overlay is requested without a source image.
	ErrNoImage = errors.New("overlay requires a source image")
)

// Stage identifies a step of the pipeline.
type Stage int

const (
	StageLoad Stage = iota
	StageExtract
	StagePCA
	StageRender
	StageWrite

	numStages
)

// Stages lists every stage in execution order.
var Stages = []Stage{StageLoad, StageExtract, StagePCA, StageRender, StageWrite}

func (s Stage) String() string {
	switch s {
	case StageLoad:
		return "Loading image"
	case StageExtract:
		return "Extracting features"
	case StagePCA:
		return "Projecting descriptors"
	case StageRender:
		return "Rendering heatmap"
	case StageWrite:
		return "Writing images"
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

// ProgressFunc is called as each stage starts (done=false) and finishes
// (done=true, elapsed set).
type ProgressFunc func(stage Stage, done bool, elapsed time.Duration)

// Options controls a pipeline run.
type Options struct {
	ImagePath string
	OutputDir string
	Prefix    string

	Render renderer.Options

	Legend        bool
	LegendOptions renderer.LegendOptions

	Overlay      bool
	OverlayAlpha float64

	// InputSize is the model resolution, used to infer the patch grid.
	InputSize int
	// GridH and GridW override grid inference when both are set.
	GridH, GridW int
}

// DefaultOptions writes ./heatmap.jpg from a 448 pixel ViT-S/14 grid.
func DefaultOptions() Options {
	return Options{
		OutputDir:     ".",
		Render:        renderer.DefaultOptions(),
		LegendOptions: renderer.DefaultLegendOptions(),
		OverlayAlpha:  config.DefaultOverlayAlpha,
		InputSize:     config.InputSize,
	}
}

// Result describes a completed run.
type Result struct {
	HeatmapPath string
	OverlayPath string // empty unless an overlay was written

	GridH, GridW int
	Patches      int
	Dims         int

	// Min and Max bound the first principal component over the grid.
	Min, Max float64
	// ExplainedVariance is the share of descriptor variance on the first axis.
	ExplainedVariance float64

	Heatmap *image.RGBA // without legend

	Timings [numStages]time.Duration
	Total   time.Duration
}

// Run executes the pipeline with ex. The extractor stays owned by the caller.
func Run(ctx context.Context, ex features.Extractor, opts Options, progress ProgressFunc) (*Result, error) {
	if progress == nil {
		progress = func(Stage, bool, time.Duration) {}
	}
	if opts.Overlay && opts.ImagePath == "" {
		return nil, ErrNoImage
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}

	res := &Result{}
	started := time.Now()

	var stageStart time.Time
	begin := func(s Stage) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stageStart = time.Now()
		progress(s, false, 0)
		return nil
	}
	end := func(s Stage) {
		elapsed := time.Since(stageStart)
		res.Timings[s] = elapsed
		progress(s, true, elapsed)
	}

	// Load
	if err := begin(StageLoad); err != nil {
		return nil, err
	}
	var img image.Image
	if opts.ImagePath != "" {
		var err error
		img, err = features.LoadImage(opts.ImagePath)
		if err != nil {
			return nil, fmt.Errorf("failed to load image: %w", err)
		}
	}
	end(StageLoad)

	// Extract
	if err := begin(StageExtract); err != nil {
		return nil, err
	}
	desc, err := ex.Extract(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("feature extraction failed: %w", err)
	}
	res.Patches, res.Dims = desc.Dims()
	end(StageExtract)

	// PCA
	if err := begin(StagePCA); err != nil {
		return nil, err
	}
	h, w, err := resolveGrid(res.Patches, opts)
	if err != nil {
		return nil, err
	}
	fit, err := pca.Analyze(desc, 1)
	if err != nil {
		return nil, fmt.Errorf("pca failed: %w", err)
	}
	res.GridH, res.GridW = h, w
	res.ExplainedVariance = fit.ExplainedVarianceRatio()[0]
	fmap, err := renderer.FromSlice(mat.Col(nil, 0, fit.Scores), h, w)
	if err != nil {
		return nil, err
	}
	res.Min, res.Max = fmap.Range()
	end(StagePCA)

	// Render
	if err := begin(StageRender); err != nil {
		return nil, err
	}
	heat, err := renderer.Render(fmap, opts.Render)
	if err != nil {
		return nil, fmt.Errorf("render failed: %w", err)
	}
	res.Heatmap = heat

	out := heat
	if opts.Legend {
		out, err = renderer.AddLegend(heat, res.Min, res.Max, opts.LegendOptions)
		if err != nil {
			return nil, fmt.Errorf("legend failed: %w", err)
		}
	}

	var blended *image.RGBA
	if opts.Overlay {
		blended, err = renderer.Overlay(img, heat, opts.OverlayAlpha)
		if err != nil {
			return nil, fmt.Errorf("overlay failed: %w", err)
		}
	}
	end(StageRender)

	// Write
	if err := begin(StageWrite); err != nil {
		return nil, err
	}
	res.HeatmapPath = renderer.OutputPath(opts.OutputDir, opts.Prefix, config.HeatmapBaseName, opts.Render.Format)
	if err := renderer.SaveImage(out, res.HeatmapPath, opts.Render.Quality); err != nil {
		return nil, err
	}
	if blended != nil {
		res.OverlayPath = renderer.OutputPath(opts.OutputDir, opts.Prefix, config.OverlayBaseName, opts.Render.Format)
		if err := renderer.SaveImage(blended, res.OverlayPath, opts.Render.Quality); err != nil {
			return nil, err
		}
	}
	end(StageWrite)

	res.Total = time.Since(started)
	return res, nil
}

// resolveGrid picks the H×W layout for n patch descriptors: an explicit
// grid, then the model grid, then the square root of n.
func resolveGrid(n int, opts Options) (h, w int, err error) {
	if opts.GridH > 0 && opts.GridW > 0 {
		if opts.GridH*opts.GridW != n {
			return 0, 0, fmt.Errorf("%w: %d descriptors for a %dx%d grid", ErrGridMismatch, n, opts.GridH, opts.GridW)
		}
		return opts.GridH, opts.GridW, nil
	}

	if opts.InputSize > 0 {
		side := opts.InputSize / config.PatchSize
		if side*side == n {
			return side, side, nil
		}
	}

	side := int(math.Round(math.Sqrt(float64(n))))
	if side > 0 && side*side == n {
		return side, side, nil
	}
	return 0, 0, fmt.Errorf("%w: %d descriptors is not a square grid; set the grid size explicitly", ErrGridMismatch, n)
}
