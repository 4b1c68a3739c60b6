// Package pca reduces patch descriptors to a few principal axes.
package pca

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// constTol is the relative spread below which a descriptor column counts as
// constant.
const constTol = 1e-12

var (
	// ErrTooFewSamples is returned when there are fewer than two descriptors.
	ErrTooFewSamples = errors.New("pca needs at least two samples")
	// ErrNoFeatures is returned for zero-width descriptors.
	ErrNoFeatures = errors.New("descriptors have no features")
	// ErrComponents is returned when k is outside 1..min(N, D).
	ErrComponents = errors.New("invalid number of components")
	// ErrDecomposition is returned when the SVD fails to converge.
	ErrDecomposition = errors.New("principal component decomposition failed")
)

// Fit is a PCA of an N×D descriptor matrix truncated to k axes.
type Fit struct {
	// Scores is the N×k projection of the centred data.
	Scores *mat.Dense
	// Axes is the D×k matrix of principal directions, one per column.
	Axes *mat.Dense
	// Vars holds the variance along every axis the decomposition found,
	// in descending order, not only the first k.
	Vars []float64
}

// Analyze fits a PCA to desc and keeps the top k axes. Each axis is
// oriented so its largest-magnitude loading is positive.
func Analyze(desc mat.Matrix, k int) (*Fit, error) {
	n, d := desc.Dims()
	if d == 0 {
		return nil, ErrNoFeatures
	}
	if n < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewSamples, n)
	}
	if limit := min(n, d); k < 1 || k > limit {
		return nil, fmt.Errorf("%w: k=%d, must be in 1..%d", ErrComponents, k, limit)
	}

	if isConstant(desc) {
		return constantFit(n, d, k), nil
	}
	centred := centre(desc)

	var pc stat.PC
	if ok := pc.PrincipalComponents(desc, nil); !ok {
		return nil, ErrDecomposition
	}

	var vecs mat.Dense
	pc.VectorsTo(&vecs)
	vars := pc.VarsTo(nil)

	axes := mat.DenseCopyOf(vecs.Slice(0, d, 0, k))
	orient(axes)

	var scores mat.Dense
	scores.Mul(centred, axes)

	return &Fit{Scores: &scores, Axes: axes, Vars: vars}, nil
}

// ExplainedVarianceRatio returns the share of total variance carried by each
// kept axis. A constant input has no variance and reports zeros.
func (f *Fit) ExplainedVarianceRatio() []float64 {
	_, k := f.Axes.Dims()
	ratios := make([]float64, k)

	var total float64
	for _, v := range f.Vars {
		total += v
	}
	if total <= 0 {
		return ratios
	}
	for i := range ratios {
		ratios[i] = f.Vars[i] / total
	}
	return ratios
}

// Project returns the N×k projection of desc onto its top k principal axes.
func Project(desc mat.Matrix, k int) (*mat.Dense, error) {
	fit, err := Analyze(desc, k)
	if err != nil {
		return nil, err
	}
	return fit.Scores, nil
}

// FirstComponent returns the score of every row along the first principal axis.
func FirstComponent(desc mat.Matrix) ([]float64, error) {
	scores, err := Project(desc, 1)
	if err != nil {
		return nil, err
	}
	return mat.Col(nil, 0, scores), nil
}

func centre(desc mat.Matrix) *mat.Dense {
	n, d := desc.Dims()
	out := mat.DenseCopyOf(desc)
	col := make([]float64, n)
	for j := 0; j < d; j++ {
		mat.Col(col, j, out)
		mean := stat.Mean(col, nil)
		for i := 0; i < n; i++ {
			out.Set(i, j, col[i]-mean)
		}
	}
	return out
}

// constantFit describes data with no variance: every score is zero and the
// axes are the leading coordinate directions.
func constantFit(n, d, k int) *Fit {
	axes := mat.NewDense(d, k, nil)
	for j := 0; j < k; j++ {
		axes.Set(j, j, 1)
	}
	return &Fit{
		Scores: mat.NewDense(n, k, nil),
		Axes:   axes,
		Vars:   make([]float64, min(n, d)),
	}
}

// isConstant reports whether the extremes of every column of m agree within
// constTol, absolutely or relative to their magnitude.
func isConstant(m mat.Matrix) bool {
	n, d := m.Dims()
	col := make([]float64, n)
	for j := 0; j < d; j++ {
		mat.Col(col, j, m)
		if !scalar.EqualWithinAbsOrRel(floats.Max(col), floats.Min(col), constTol, constTol) {
			return false
		}
	}
	return true
}

// orient flips each column of axes so the entry with the largest magnitude
// is positive. Ties keep the first index.
func orient(axes *mat.Dense) {
	d, k := axes.Dims()
	for j := 0; j < k; j++ {
		best, bestAbs := 0, -1.0
		for i := 0; i < d; i++ {
			if a := math.Abs(axes.At(i, j)); a > bestAbs {
				best, bestAbs = i, a
			}
		}
		if axes.At(best, j) < 0 {
			for i := 0; i < d; i++ {
				axes.Set(i, j, -axes.At(i, j))
			}
		}
	}
}
