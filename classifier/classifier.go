// Package classifier loads the trained outcome models and samples
// discrete outcomes from their predicted distributions.
package classifier

import (
	"encoding/json"
	"math"
	"math/rand"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/floats"

	"blasesim/simerr"
)

// Purpose identifies which decision point a model serves.
type Purpose string

const (
	Pitch        Purpose = "pitch"
	HitType      Purpose = "hit_type"
	OutType      Purpose = "out_type"
	RunnerAdvHit Purpose = "runner_advance_hit"
	RunnerAdvOut Purpose = "runner_advance_out"
	SBAttempt    Purpose = "sb_attempt"
	SBSuccess    Purpose = "sb_success"
)

// AllPurposes lists every decision point a registry must cover.
var AllPurposes = []Purpose{
	Pitch, HitType, OutType, RunnerAdvHit, RunnerAdvOut, SBAttempt, SBSuccess,
}

// Model predicts a probability distribution over its outcome classes
// for one feature vector. The returned slice is indexed by class and
// sums to 1.
type Model interface {
	PredictProba(features []float64) ([]float64, error)
	NumClasses() int
}

// LinearModel is a multinomial logistic model deserialized from a
// trained export. Single-class exports use the sigmoid of the one
// decision row for the positive class.
type LinearModel struct {
	Purpose   Purpose     `json:"purpose"`
	Classes   []int       `json:"classes"`
	Coef      [][]float64 `json:"coef"`
	Intercept []float64   `json:"intercept"`
}

// LoadLinearModel reads a model export from disk.
func LoadLinearModel(path string) (*LinearModel, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, simerr.Config("reading model %s: %v", path, err)
	}
	var m LinearModel
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, simerr.Config("parsing model %s: %v", path, err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *LinearModel) validate() error {
	if len(m.Classes) < 2 {
		return simerr.Config("model %s declares %d classes", m.Purpose, len(m.Classes))
	}
	if len(m.Coef) == 0 || len(m.Intercept) != len(m.Coef) {
		return simerr.Config("model %s has %d coefficient rows and %d intercepts",
			m.Purpose, len(m.Coef), len(m.Intercept))
	}
	width := len(m.Coef[0])
	for _, row := range m.Coef {
		if len(row) != width {
			return simerr.Config("model %s has ragged coefficient rows", m.Purpose)
		}
	}
	return nil
}

// NumClasses returns the size of the outcome space.
func (m *LinearModel) NumClasses() int { return len(m.Classes) }

// PredictProba computes class probabilities for one feature vector.
func (m *LinearModel) PredictProba(features []float64) ([]float64, error) {
	if len(features) != len(m.Coef[0]) {
		return nil, simerr.Domain("model %s expects %d features, got %d",
			m.Purpose, len(m.Coef[0]), len(features))
	}
	scores := make([]float64, len(m.Coef))
	for i, row := range m.Coef {
		scores[i] = floats.Dot(row, features) + m.Intercept[i]
	}
	if len(m.Classes) == 2 && len(scores) == 1 {
		p := sigmoid(scores[0])
		return []float64{1 - p, p}, nil
	}
	return softmax(scores), nil
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// softmax is computed against the max score for numerical stability.
func softmax(scores []float64) []float64 {
	max := floats.Max(scores)
	out := make([]float64, len(scores))
	for i, s := range scores {
		out[i] = math.Exp(s - max)
	}
	total := floats.Sum(out)
	floats.Scale(1/total, out)
	return out
}

// Registry holds one model per decision point.
type Registry struct {
	models map[Purpose]Model
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{models: make(map[Purpose]Model)}
}

// Register binds a model to a decision point, replacing any previous
// binding.
func (r *Registry) Register(p Purpose, m Model) {
	r.models[p] = m
}

// LoadRegistry loads <purpose>.json for every decision point under
// dir.
func LoadRegistry(dir string) (*Registry, error) {
	r := NewRegistry()
	for _, p := range AllPurposes {
		m, err := LoadLinearModel(filepath.Join(dir, string(p)+".json"))
		if err != nil {
			return nil, err
		}
		r.Register(p, m)
	}
	return r, nil
}

// Sample draws one outcome index from the model bound to p. The draw
// walks the cumulative distribution and returns the first class whose
// cumulative probability exceeds the roll.
func (r *Registry) Sample(p Purpose, features []float64, rng *rand.Rand) (int, error) {
	m, ok := r.models[p]
	if !ok {
		return 0, simerr.Config("no model registered for %s", p)
	}
	probs, err := m.PredictProba(features)
	if err != nil {
		return 0, err
	}
	if len(probs) == 0 {
		return 0, simerr.Domain("model %s returned an empty distribution", p)
	}
	roll := rng.Float64()
	cum := 0.0
	for i, pr := range probs {
		cum += pr
		if roll < cum {
			return i, nil
		}
	}
	return len(probs) - 1, nil
}

// Fixed is a stub model returning the same distribution for every
// feature vector. Useful for driving the game loop down a known path.
type Fixed struct {
	Probs []float64
}

// PredictProba returns the canned distribution.
func (f Fixed) PredictProba([]float64) ([]float64, error) {
	return f.Probs, nil
}

// NumClasses returns the size of the canned distribution.
func (f Fixed) NumClasses() int { return len(f.Probs) }
