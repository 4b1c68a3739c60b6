package features

import (
	"bufio"
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"gonum.org/v1/gonum/mat"
)

// ReadDescriptors parses a descriptor matrix, one row per line. Fields are
// separated by commas or whitespace. Blank lines and lines starting with '#'
// are skipped, and a first line with no numeric field is treated as a header.
func ReadDescriptors(r io.Reader) (*mat.Dense, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var data []float64
	cols, rows, lineNo := 0, 0, 0
	headerChecked := false

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.FieldsFunc(line, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t' || r == ';'
		})

		if !headerChecked {
			headerChecked = true
			if !anyNumeric(fields) {
				continue
			}
		}

		if cols == 0 {
			cols = len(fields)
		} else if len(fields) != cols {
			return nil, fmt.Errorf("%w: line %d has %d columns, expected %d",
				ErrBadDescriptors, lineNo, len(fields), cols)
		}

		for i, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d, column %d: %v", ErrBadDescriptors, lineNo, i+1, err)
			}
			data = append(data, v)
		}
		rows++
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading descriptors: %w", err)
	}
	if rows == 0 || cols == 0 {
		return nil, fmt.Errorf("%w: no data rows", ErrBadDescriptors)
	}

	return mat.NewDense(rows, cols, data), nil
}

func anyNumeric(fields []string) bool {
	for _, field := range fields {
		if _, err := strconv.ParseFloat(field, 64); err == nil {
			return true
		}
	}
	return false
}

// FileSource serves descriptors precomputed elsewhere, so the pipeline can run
// without an inference runtime. The image passed to Extract is ignored.
type FileSource struct {
	mu     sync.Mutex
	path   string
	desc   *mat.Dense
	closed bool
}

// NewFileSource reads the descriptor matrix at path.
func NewFileSource(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open descriptors: %w", err)
	}
	defer f.Close()

	desc, err := ReadDescriptors(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &FileSource{path: path, desc: desc}, nil
}

// Path returns the file the descriptors were read from.
func (s *FileSource) Path() string { return s.path }

// Extract returns a copy of the loaded descriptors.
func (s *FileSource) Extract(ctx context.Context, _ image.Image) (*mat.Dense, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	return mat.DenseCopyOf(s.desc), nil
}

// Close releases the descriptors.
func (s *FileSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.desc = nil
	return nil
}
