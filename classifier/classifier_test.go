package classifier

import (
	"encoding/json"
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blasesim/simerr"
)

func TestLinearModelPredictProba(t *testing.T) {
	m := &LinearModel{
		Purpose: HitType,
		Classes: []int{0, 1, 2, 3},
		Coef: [][]float64{
			{1, 0},
			{0, 1},
			{0, 0},
			{-1, -1},
		},
		Intercept: []float64{0, 0, 0, 0},
	}
	require.NoError(t, m.validate())

	probs, err := m.PredictProba([]float64{0, 0})
	require.NoError(t, err)
	require.Len(t, probs, 4)
	sum := 0.0
	for _, p := range probs {
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-12)
	assert.InDelta(t, 0.25, probs[0], 1e-12)

	// A dominant first-class score should dominate the distribution.
	probs, err = m.PredictProba([]float64{50, 0})
	require.NoError(t, err)
	assert.Greater(t, probs[0], 0.999)
}

func TestLinearModelBinarySigmoid(t *testing.T) {
	m := &LinearModel{
		Purpose:   SBAttempt,
		Classes:   []int{0, 1},
		Coef:      [][]float64{{2}},
		Intercept: []float64{0},
	}
	probs, err := m.PredictProba([]float64{0})
	require.NoError(t, err)
	require.Len(t, probs, 2)
	assert.InDelta(t, 0.5, probs[0], 1e-12)
	assert.InDelta(t, 0.5, probs[1], 1e-12)
}

func TestLinearModelFeatureWidthMismatch(t *testing.T) {
	m := &LinearModel{
		Purpose:   OutType,
		Classes:   []int{0, 1},
		Coef:      [][]float64{{1, 1, 1}},
		Intercept: []float64{0},
	}
	_, err := m.PredictProba([]float64{1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, simerr.ErrDomain))
}

func TestRegistrySample(t *testing.T) {
	r := NewRegistry()
	r.Register(Pitch, Fixed{Probs: []float64{0, 0, 0, 1, 0, 0}})
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 20; i++ {
		outcome, err := r.Sample(Pitch, nil, rng)
		require.NoError(t, err)
		assert.Equal(t, 3, outcome)
	}
}

func TestRegistrySampleMissingModel(t *testing.T) {
	r := NewRegistry()
	_, err := r.Sample(HitType, nil, rand.New(rand.NewSource(1)))
	require.Error(t, err)
	assert.True(t, errors.Is(err, simerr.ErrConfig))
}

func TestRegistrySampleEmptyDistribution(t *testing.T) {
	r := NewRegistry()
	r.Register(OutType, Fixed{Probs: nil})
	_, err := r.Sample(OutType, nil, rand.New(rand.NewSource(1)))
	require.Error(t, err)
	assert.True(t, errors.Is(err, simerr.ErrDomain))
}

func TestSampleMatchesDistribution(t *testing.T) {
	r := NewRegistry()
	r.Register(SBSuccess, Fixed{Probs: []float64{0.25, 0.75}})
	rng := rand.New(rand.NewSource(42))

	const n = 20000
	ones := 0
	for i := 0; i < n; i++ {
		outcome, err := r.Sample(SBSuccess, nil, rng)
		require.NoError(t, err)
		if outcome == 1 {
			ones++
		}
	}
	assert.InDelta(t, 0.75, float64(ones)/n, 0.02)
}

func TestLoadRegistry(t *testing.T) {
	dir := t.TempDir()
	for _, p := range AllPurposes {
		m := LinearModel{
			Purpose:   p,
			Classes:   []int{0, 1},
			Coef:      [][]float64{{0.5, -0.5}},
			Intercept: []float64{0.1},
		}
		raw, err := json.Marshal(m)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, string(p)+".json"), raw, 0o644))
	}

	r, err := LoadRegistry(dir)
	require.NoError(t, err)
	for _, p := range AllPurposes {
		_, err := r.Sample(p, []float64{0.3, 0.7}, rand.New(rand.NewSource(7)))
		assert.NoError(t, err)
	}
}

func TestLoadRegistryMissingFile(t *testing.T) {
	_, err := LoadRegistry(t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.Is(err, simerr.ErrConfig))
}
