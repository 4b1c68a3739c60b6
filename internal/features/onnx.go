package features

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"sync"

	"github.com/linuxmatters/patchmap/internal/config"
	ort "github.com/yalue/onnxruntime_go"
	"gonum.org/v1/gonum/mat"
)

// ONNXConfig holds the settings for an ONNX Runtime backed extractor.
type ONNXConfig struct {
	ModelPath   string // ONNX export of the backbone returning normalised patch tokens
	LibraryPath string // onnxruntime shared library; empty uses the runtime's default lookup
	InputName   string
	OutputName  string
	InputSize   int // Square input resolution, a multiple of the patch size
	EmbedDim    int // Descriptor width
	Mean        [3]float32
	Std         [3]float32
}

// DefaultONNXConfig returns the ViT-S/14 settings for the given model.
func DefaultONNXConfig(modelPath string) ONNXConfig {
	return ONNXConfig{
		ModelPath:  modelPath,
		InputName:  config.DefaultInputName,
		OutputName: config.DefaultOutputName,
		InputSize:  config.InputSize,
		EmbedDim:   config.EmbedDim,
		Mean:       config.ImageMean,
		Std:        config.ImageStd,
	}
}

// NumPatches returns the number of patch tokens the model emits.
func (c ONNXConfig) NumPatches() int {
	grid := c.InputSize / config.PatchSize
	return grid * grid
}

func (c ONNXConfig) validate() error {
	if c.InputSize <= 0 || c.InputSize%config.PatchSize != 0 {
		return fmt.Errorf("%w: input size %d is not a positive multiple of %d",
			ErrInvalidConfig, c.InputSize, config.PatchSize)
	}
	if c.EmbedDim <= 0 {
		return fmt.Errorf("%w: embed dim %d", ErrInvalidConfig, c.EmbedDim)
	}
	if c.InputName == "" || c.OutputName == "" {
		return fmt.Errorf("%w: input and output names are required", ErrInvalidConfig)
	}
	return nil
}

// ONNXExtractor runs a vision transformer through ONNX Runtime. It owns its
// session and tensors, and the runtime environment if it was the one to
// initialise it. Calls to Extract are serialised.
type ONNXExtractor struct {
	cfg     ONNXConfig
	mu      sync.Mutex
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
	ownsEnv bool
}

// NewONNX initialises the runtime and builds an inference session.
func NewONNX(cfg ONNXConfig) (*ONNXExtractor, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, cfg.ModelPath)
	}

	e := &ONNXExtractor{cfg: cfg}

	if !ort.IsInitialized() {
		if cfg.LibraryPath != "" {
			ort.SetSharedLibraryPath(cfg.LibraryPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("%w: initializing environment: %v", ErrRuntime, err)
		}
		e.ownsEnv = true
	}

	size := int64(cfg.InputSize)
	input, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 3, size, size))
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("%w: allocating input tensor: %v", ErrRuntime, err)
	}
	e.input = input

	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(cfg.NumPatches()), int64(cfg.EmbedDim)))
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("%w: allocating output tensor: %v", ErrRuntime, err)
	}
	e.output = output

	session, err := ort.NewAdvancedSession(cfg.ModelPath,
		[]string{cfg.InputName}, []string{cfg.OutputName},
		[]ort.Value{input}, []ort.Value{output}, nil)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("%w: creating session: %v", ErrRuntime, err)
	}
	e.session = session

	return e, nil
}

// Extract preprocesses img, runs the model and returns the patch descriptors.
func (e *ONNXExtractor) Extract(ctx context.Context, img image.Image) (*mat.Dense, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return nil, ErrClosed
	}

	tensor, err := Preprocess(img, e.cfg.InputSize, e.cfg.Mean, e.cfg.Std)
	if err != nil {
		return nil, err
	}
	copy(e.input.GetData(), tensor)

	if err := e.session.Run(); err != nil {
		return nil, fmt.Errorf("%w: running session: %v", ErrRuntime, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n, d := e.cfg.NumPatches(), e.cfg.EmbedDim
	raw := e.output.GetData()
	if len(raw) != n*d {
		return nil, fmt.Errorf("%w: output has %d values, expected %d", ErrRuntime, len(raw), n*d)
	}

	values := make([]float64, len(raw))
	for i, v := range raw {
		values[i] = float64(v)
	}
	return mat.NewDense(n, d, values), nil
}

// Close releases the session, tensors and, if owned, the runtime environment.
// It is safe to call more than once.
func (e *ONNXExtractor) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var errs []error
	if e.session != nil {
		errs = append(errs, e.session.Destroy())
		e.session = nil
	}
	if e.input != nil {
		errs = append(errs, e.input.Destroy())
		e.input = nil
	}
	if e.output != nil {
		errs = append(errs, e.output.Destroy())
		e.output = nil
	}
	if e.ownsEnv {
		errs = append(errs, ort.DestroyEnvironment())
		e.ownsEnv = false
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %v", ErrRuntime, err)
	}
	return nil
}
