package eval

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Evaluator scores a feature vector. Higher is better for the side whose turn
// context the features were extracted with.
type Evaluator interface {
	Score(features []float64) float64
}

type EvaluatorFunc func(features []float64) float64

func (f EvaluatorFunc) Score(features []float64) float64 {
	return f(features)
}

// LinearModel is the evaluator produced by training: a weighted sum of the
// features plus a bias.
type LinearModel struct {
	Variant Variant   `json:"variant"`
	Rules   Rules     `json:"rules"`
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
	R2      float64   `json:"r2"`
	Samples int       `json:"samples"`
}

var ErrModelMismatch = errors.New("model does not match feature layout")

// DefaultModel is the untrained fallback: it rewards own mobility and center
// control and punishes opponent mobility and standing in check. Material is
// left at zero because its sign does not depend on the side to move.
func DefaultModel(variant Variant) *LinearModel {
	weights := []float64{0, 0.05, -0.05, -1, 0.25}
	if variant == Extended {
		weights = append(weights, 0)
	}
	return &LinearModel{
		Variant: variant,
		Rules:   PseudoRules,
		Weights: weights,
	}
}

func (m *LinearModel) Score(features []float64) float64 {
	score := m.Bias
	for i, w := range m.Weights {
		if i >= len(features) {
			break
		}
		score += w * features[i]
	}
	return score
}

// Check reports whether the model was fitted for extractor's layout.
func (m *LinearModel) Check(extractor *Extractor) error {
	if m.Variant != extractor.Variant || len(m.Weights) != extractor.Len() {
		return fmt.Errorf("%w: model %s/%d weights, extractor %s/%d features",
			ErrModelMismatch, m.Variant, len(m.Weights), extractor.Variant, extractor.Len())
	}
	// Mobility counts differ between rule sets, so weights do not transfer.
	if m.Rules != extractor.Rules {
		return fmt.Errorf("%w: model fitted with %s rules, extractor uses %s",
			ErrModelMismatch, m.Rules, extractor.Rules)
	}
	return nil
}

func LoadModel(path string) (*LinearModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m LinearModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode model %s: %w", path, err)
	}
	if _, err := ParseVariant(string(m.Variant)); err != nil {
		return nil, fmt.Errorf("decode model %s: %w", path, err)
	}
	if len(m.Weights) != m.Variant.Len() {
		return nil, fmt.Errorf("decode model %s: %w: %d weights for %s",
			path, ErrModelMismatch, len(m.Weights), m.Variant)
	}
	if m.Rules == "" {
		m.Rules = PseudoRules
	}
	return &m, nil
}

// Save writes the model next to path and renames it into place so a reader
// never sees a partial file.
func (m *LinearModel) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
