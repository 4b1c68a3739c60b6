package main

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/linuxmatters/patchmap/internal/cli"
	"github.com/linuxmatters/patchmap/internal/config"
	"github.com/linuxmatters/patchmap/internal/features"
	"github.com/linuxmatters/patchmap/internal/pipeline"
	"github.com/linuxmatters/patchmap/internal/renderer"
	"github.com/linuxmatters/patchmap/internal/ui"
)

// version is set via ldflags at build time
// Local dev builds: "dev"
// Release builds: git tag (e.g. "v0.1.0")
var version = "dev"

var CLI struct {
	Image     string `arg:"" name:"image" help:"Input image (jpg, png, gif, bmp, tiff, webp)" optional:""`
	OutputDir string `arg:"" name:"output-dir" help:"Directory for the heatmap" optional:"" default:"."`

	Model       string `help:"ONNX model returning normalised patch tokens" type:"path" group:"model"`
	OrtLib      string `name:"ort-lib" help:"Path to the onnxruntime shared library" env:"ONNXRUNTIME_LIB" group:"model"`
	InputName   string `help:"Model input tensor name" default:"${input_name}" group:"model"`
	OutputName  string `help:"Model output tensor name" default:"${output_name}" group:"model"`
	EmbedDim    *int   `help:"Descriptor width (default ${embed_dim})" group:"model"`
	InputSize   *int   `help:"Square model input size, a multiple of the patch size (default ${input_size})" group:"model"`
	Descriptors string `help:"Read precomputed N×D descriptors instead of running a model" type:"path" group:"model"`
	Grid        string `help:"Patch grid as HxW when descriptors do not form a square" group:"model"`

	Prefix  string `help:"Prefix for output file names" group:"output"`
	Format  string `help:"Output image format" enum:"jpg,png" default:"${format}" group:"output"`
	Quality *int   `help:"JPEG quality 1-100 (default ${quality})" group:"output"`
	Scale   *int   `help:"Pixels per patch (default ${scale})" group:"output"`
	Interp  string `help:"Upscale method" enum:"nearest,bilinear" default:"nearest" group:"output"`
	Strict  bool   `help:"Fail on a constant feature map instead of rendering the midpoint colour" group:"output"`

	Legend       bool    `help:"Append a colorbar with the value range" group:"legend"`
	LegendColor  string  `help:"Legend label colour as hex" default:"${legend_color}" group:"legend"`
	Overlay      bool    `help:"Also write the heatmap blended over the input image" group:"legend"`
	OverlayAlpha float64 `help:"Heatmap opacity for --overlay" default:"${overlay_alpha}" group:"legend"`

	NoUI      bool `name:"no-ui" help:"Print plain progress lines instead of the interactive display"`
	NoPreview bool `help:"Disable the terminal heatmap preview"`
	Version   bool `help:"Show version information"`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(cli.AppName),
		kong.Description(cli.AppDescription),
		kong.Vars{
			"version":       version,
			"input_name":    config.DefaultInputName,
			"output_name":   config.DefaultOutputName,
			"embed_dim":     strconv.Itoa(config.EmbedDim),
			"input_size":    strconv.Itoa(config.InputSize),
			"format":        config.DefaultFormat,
			"quality":       strconv.Itoa(config.DefaultQuality),
			"scale":         strconv.Itoa(config.PatchSize),
			"legend_color":  fmt.Sprintf("#%02X%02X%02X", config.TextColorR, config.TextColorG, config.TextColorB),
			"overlay_alpha": strconv.FormatFloat(config.DefaultOverlayAlpha, 'f', -1, 64),
		},
		kong.ExplicitGroups([]kong.Group{
			{Key: "model", Title: "Model"},
			{Key: "output", Title: "Output"},
			{Key: "legend", Title: "Legend and Overlay"},
		}),
		kong.UsageOnError(),
		kong.Help(cli.StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)

	// Handle version flag
	if CLI.Version {
		cli.PrintVersion(version)
		os.Exit(0)
	}

	if CLI.Image == "" {
		cli.PrintError("<image> is required")
		os.Exit(1)
	}
	if (CLI.Model == "") == (CLI.Descriptors == "") {
		cli.PrintError("exactly one of --model or --descriptors is required")
		os.Exit(1)
	}
	if _, err := os.Stat(CLI.Image); os.IsNotExist(err) {
		cli.PrintError(fmt.Sprintf("input file does not exist: %s", CLI.Image))
		os.Exit(1)
	}

	_ = ctx // Kong context available for future use

	if err := run(); err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}
}

func run() error {
	rc := &config.RuntimeConfig{
		Scale:     CLI.Scale,
		InputSize: CLI.InputSize,
		EmbedDim:  CLI.EmbedDim,
		Quality:   CLI.Quality,
	}
	if err := rc.SetTextColorHex(CLI.LegendColor); err != nil {
		return fmt.Errorf("--legend-color: %w", err)
	}

	opts, err := buildOptions(rc)
	if err != nil {
		return err
	}

	ex, err := openExtractor(rc)
	if err != nil {
		return err
	}
	defer ex.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var res *pipeline.Result
	if CLI.NoUI {
		res, err = runPlain(ctx, ex, opts, rc)
	} else {
		res, err = runInteractive(ctx, ex, opts)
	}
	if err != nil {
		return err
	}

	if CLI.NoUI {
		printSummary(res)
	}
	return nil
}

func buildOptions(rc *config.RuntimeConfig) (pipeline.Options, error) {
	opts := pipeline.DefaultOptions()
	opts.ImagePath = CLI.Image
	opts.OutputDir = CLI.OutputDir
	opts.Prefix = CLI.Prefix
	opts.InputSize = rc.GetInputSize()

	interp, err := renderer.ParseInterp(CLI.Interp)
	if err != nil {
		return opts, err
	}
	opts.Render = renderer.Options{
		Scale:   rc.GetScale(),
		Interp:  interp,
		Strict:  CLI.Strict,
		Format:  CLI.Format,
		Quality: rc.GetQuality(),
	}

	r, g, b := rc.GetTextColor()
	opts.Legend = CLI.Legend
	opts.LegendOptions.TextColor = color.RGBA{R: r, G: g, B: b, A: 255}

	opts.Overlay = CLI.Overlay
	opts.OverlayAlpha = CLI.OverlayAlpha
	if opts.Overlay && (opts.OverlayAlpha < 0 || opts.OverlayAlpha > 1) {
		return opts, fmt.Errorf("--overlay-alpha must be within [0, 1], got %v", opts.OverlayAlpha)
	}

	if CLI.Grid != "" {
		h, w, err := parseGrid(CLI.Grid)
		if err != nil {
			return opts, err
		}
		opts.GridH, opts.GridW = h, w
	}

	return opts, nil
}

// parseGrid parses "HxW", e.g. "24x32".
func parseGrid(s string) (h, w int, err error) {
	hs, ws, ok := strings.Cut(strings.ToLower(s), "x")
	if ok {
		h, err = strconv.Atoi(strings.TrimSpace(hs))
		if err == nil {
			w, err = strconv.Atoi(strings.TrimSpace(ws))
		}
	}
	if !ok || err != nil || h <= 0 || w <= 0 {
		return 0, 0, fmt.Errorf("invalid --grid %q: expected HxW with positive sizes", s)
	}
	return h, w, nil
}

func openExtractor(rc *config.RuntimeConfig) (features.Extractor, error) {
	if CLI.Descriptors != "" {
		src, err := features.NewFileSource(CLI.Descriptors)
		if err != nil {
			return nil, err
		}
		return src, nil
	}

	cfg := features.DefaultONNXConfig(CLI.Model)
	cfg.LibraryPath = CLI.OrtLib
	cfg.InputName = CLI.InputName
	cfg.OutputName = CLI.OutputName
	cfg.InputSize = rc.GetInputSize()
	cfg.EmbedDim = rc.GetEmbedDim()

	ex, err := features.NewONNX(cfg)
	if err != nil {
		if errors.Is(err, features.ErrRuntime) && CLI.OrtLib == "" {
			cli.PrintWarning("set --ort-lib or ONNXRUNTIME_LIB if the onnxruntime library is not on the default search path")
		}
		return nil, err
	}
	return ex, nil
}

func runPlain(ctx context.Context, ex features.Extractor, opts pipeline.Options, rc *config.RuntimeConfig) (*pipeline.Result, error) {
	cli.PrintBanner()
	cli.PrintInfo("Image", CLI.Image)
	if CLI.Descriptors != "" {
		cli.PrintInfo("Descriptors", CLI.Descriptors)
	} else {
		side := rc.GetGridSize()
		cli.PrintInfo("Model", CLI.Model)
		cli.PrintInfo("Patch grid", fmt.Sprintf("%d×%d", side, side))
	}
	cli.PrintSection("Processing")

	return pipeline.Run(ctx, ex, opts, func(s pipeline.Stage, done bool, elapsed time.Duration) {
		if done {
			cli.PrintSuccess(fmt.Sprintf("%s (%s)", s, cli.FormatDuration(elapsed)))
		}
	})
}

func runInteractive(ctx context.Context, ex features.Extractor, opts pipeline.Options) (*pipeline.Result, error) {
	names := make([]string, len(pipeline.Stages))
	for i, s := range pipeline.Stages {
		names[i] = s.String()
	}

	model := ui.NewModel(filepath.Base(CLI.Image), names, CLI.NoPreview)
	p := tea.NewProgram(model)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var res *pipeline.Result
	var runErr error
	done := make(chan struct{})

	go func() {
		defer close(done)

		res, runErr = pipeline.Run(ctx, ex, opts, func(s pipeline.Stage, finished bool, elapsed time.Duration) {
			if finished {
				p.Send(ui.StageFinished{Index: int(s), Name: s.String(), Elapsed: elapsed})
			} else {
				p.Send(ui.StageStarted{Index: int(s), Name: s.String()})
			}
		})
		if runErr != nil {
			p.Send(ui.Failed{Err: runErr})
			return
		}
		p.Send(completeMessage(res))
	}()

	// Run the Bubbletea UI
	if _, err := p.Run(); err != nil {
		cancel()
		<-done
		return nil, fmt.Errorf("running UI: %w", err)
	}

	// The UI may exit early on ctrl+c; stop the pipeline and wait for it
	cancel()
	<-done

	return res, runErr
}

func completeMessage(res *pipeline.Result) ui.Complete {
	timings := make([]ui.StageTiming, len(pipeline.Stages))
	for i, s := range pipeline.Stages {
		timings[i] = ui.StageTiming{Name: s.String(), Duration: res.Timings[s]}
	}

	return ui.Complete{
		HeatmapPath: res.HeatmapPath,
		OverlayPath: res.OverlayPath,
		GridH:       res.GridH,
		GridW:       res.GridW,
		Patches:     res.Patches,
		Dims:        res.Dims,
		Min:         res.Min,
		Max:         res.Max,
		Explained:   res.ExplainedVariance,
		FileSize:    fileSize(res.HeatmapPath),
		Heatmap:     res.Heatmap,
		Timings:     timings,
		TotalTime:   res.Total,
	}
}

func printSummary(res *pipeline.Result) {
	rows := []cli.SummaryRow{
		{Key: "Heatmap", Value: res.HeatmapPath},
	}
	if res.OverlayPath != "" {
		rows = append(rows, cli.SummaryRow{Key: "Overlay", Value: res.OverlayPath})
	}
	rows = append(rows,
		cli.SummaryRow{Key: "Grid", Value: fmt.Sprintf("%d×%d patches, %d-d descriptors", res.GridH, res.GridW, res.Dims)},
		cli.SummaryRow{Key: "Range", Value: fmt.Sprintf("%.4g … %.4g", res.Min, res.Max)},
		cli.SummaryRow{Key: "PC1", Value: fmt.Sprintf("%.1f%% of variance", res.ExplainedVariance*100)},
		cli.SummaryRow{Key: "Size", Value: cli.FormatBytes(fileSize(res.HeatmapPath))},
		cli.SummaryRow{Key: "Time", Value: cli.FormatDuration(res.Total)},
	)
	cli.PrintRunSummary("Heatmap Complete!", rows)
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
