package pca

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// lineData places n points along direction dir through offset, so all the
// variance lies on one axis.
func lineData(n int, dir, offset []float64) (*mat.Dense, []float64) {
	d := len(dir)
	data := mat.NewDense(n, d, nil)
	ts := make([]float64, n)
	for i := 0; i < n; i++ {
		ts[i] = math.Sin(float64(i)*0.7) * float64(i+1)
		for j := 0; j < d; j++ {
			data.Set(i, j, offset[j]+ts[i]*dir[j])
		}
	}
	return data, ts
}

func TestFirstComponentRecoversLine(t *testing.T) {
	dir := []float64{3, -1, 0.5}
	data, ts := lineData(40, dir, []float64{10, -4, 2})

	scores, err := FirstComponent(data)
	require.NoError(t, err)
	require.Len(t, scores, 40)

	// Largest loading is positive, so scores follow t exactly up to scale
	assert.InDelta(t, 1.0, stat.Correlation(scores, ts, nil), 1e-9)

	norm := math.Sqrt(3*3 + 1 + 0.25)
	meanT := stat.Mean(ts, nil)
	for i := range scores {
		assert.InDelta(t, (ts[i]-meanT)*norm, scores[i], 1e-8, "score %d", i)
	}
}

func TestAnalyzeOrientation(t *testing.T) {
	dir := []float64{0.2, -5, 1}
	data, _ := lineData(25, dir, []float64{0, 0, 0})

	fit, err := Analyze(data, 1)
	require.NoError(t, err)

	axis := mat.Col(nil, 0, fit.Axes)
	assert.Greater(t, axis[1], 0.0, "largest loading must be positive")
	assert.Less(t, axis[0], 0.0)
	assert.Less(t, axis[2], 0.0)
	assert.InDelta(t, 1.0, math.Hypot(math.Hypot(axis[0], axis[1]), axis[2]), 1e-12)
}

func TestAnalyzeExplainedVariance(t *testing.T) {
	data, _ := lineData(30, []float64{1, 2, 2}, []float64{5, 5, 5})

	fit, err := Analyze(data, 2)
	require.NoError(t, err)

	ratios := fit.ExplainedVarianceRatio()
	require.Len(t, ratios, 2)
	assert.InDelta(t, 1.0, ratios[0], 1e-9)
	assert.InDelta(t, 0.0, ratios[1], 1e-9)

	r, c := fit.Scores.Dims()
	assert.Equal(t, 30, r)
	assert.Equal(t, 2, c)
}

func TestAnalyzeScoresAreCentred(t *testing.T) {
	data := mat.NewDense(6, 4, []float64{
		1, 0, 3, 7,
		2, 1, 0, 6,
		9, 4, 1, 2,
		0, 0, 5, 1,
		3, 8, 2, 2,
		4, 2, 2, 9,
	})

	scores, err := Project(data, 3)
	require.NoError(t, err)

	_, k := scores.Dims()
	for j := 0; j < k; j++ {
		col := mat.Col(nil, j, scores)
		assert.InDelta(t, 0.0, stat.Mean(col, nil), 1e-9, "component %d", j)
	}

	// Variance along successive axes is non-increasing
	prev := math.Inf(1)
	for j := 0; j < k; j++ {
		v := stat.Variance(mat.Col(nil, j, scores), nil)
		assert.LessOrEqual(t, v, prev+1e-9)
		prev = v
	}
}

func TestAnalyzeDeterministic(t *testing.T) {
	data, _ := lineData(20, []float64{-1, 4, 2, 0.1}, []float64{1, 1, 1, 1})

	a, err := FirstComponent(data)
	require.NoError(t, err)
	b, err := FirstComponent(mat.DenseCopyOf(data))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestConstantInput(t *testing.T) {
	exact := mat.NewDense(5, 3, []float64{
		1, 2, 3,
		1, 2, 3,
		1, 2, 3,
		1, 2, 3,
		1, 2, 3,
	})

	// Column means of these values are not exactly representable
	const n, d = 1024, 48
	inexact := mat.NewDense(n, d, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < d; j++ {
			inexact.Set(i, j, 0.1+float64(j)*0.013)
		}
	}

	for name, data := range map[string]*mat.Dense{"exact": exact, "inexact": inexact} {
		t.Run(name, func(t *testing.T) {
			fit, err := Analyze(data, 1)
			require.NoError(t, err)
			for _, s := range mat.Col(nil, 0, fit.Scores) {
				assert.Zero(t, s)
			}
			assert.Equal(t, []float64{0}, fit.ExplainedVarianceRatio())
		})
	}
}

func TestPartlyConstantInput(t *testing.T) {
	data := mat.NewDense(4, 2, []float64{
		0.1, 5,
		0.1, 6,
		0.1, 7,
		0.1, 8,
	})

	fit, err := Analyze(data, 1)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, fit.ExplainedVarianceRatio()[0], 1e-9)
	assert.NotZero(t, fit.Scores.At(0, 0))
}

func TestAnalyzeErrors(t *testing.T) {
	_, err := Analyze(mat.NewDense(1, 3, []float64{1, 2, 3}), 1)
	assert.ErrorIs(t, err, ErrTooFewSamples)

	_, err = Analyze(&mat.Dense{}, 1)
	assert.Error(t, err)

	data := mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 7})
	_, err = Analyze(data, 0)
	assert.ErrorIs(t, err, ErrComponents)
	_, err = Analyze(data, 3)
	assert.ErrorIs(t, err, ErrComponents)
}
