package train

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"

	"github.com/benbeisheim/chessadvisor-backend/internal/eval"
	"github.com/rs/zerolog"
)

const (
	DefaultEpochs       = 200
	DefaultLearningRate = 0.01
	DefaultTestFraction = 0.2
	DefaultSeed         = 42
	BatchSize           = 256
)

type FitOptions struct {
	Epochs       int
	LearningRate float64
	TestFraction float64
	Seed         int64
}

func (o FitOptions) withDefaults() FitOptions {
	if o.Epochs <= 0 {
		o.Epochs = DefaultEpochs
	}
	if o.LearningRate <= 0 {
		o.LearningRate = DefaultLearningRate
	}
	if o.TestFraction <= 0 || o.TestFraction >= 1 {
		o.TestFraction = DefaultTestFraction
	}
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	return o
}

type Report struct {
	Training   int
	Validation int
	TrainCost  float64
	R2         float64
}

type Trainer struct {
	weights    []float64
	bias       float64
	gradients  []Gradient
	biasGrad   Gradient
	training   []Sample
	validation []Sample
	rnd        *rand.Rand
	opts       FitOptions
	log        zerolog.Logger
}

// Fit trains a linear model on samples. At least two samples are needed so
// that both the training and the validation split are non-empty.
func Fit(samples []Sample, extractor *eval.Extractor, opts FitOptions, log zerolog.Logger) (*eval.LinearModel, Report, error) {
	if len(samples) < 2 {
		return nil, Report{}, fmt.Errorf("%w: %d rows", ErrNotEnoughData, len(samples))
	}
	opts = opts.withDefaults()
	rnd := rand.New(rand.NewSource(opts.Seed))

	shuffled := append([]Sample(nil), samples...)
	rnd.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	validationSize := int(math.Ceil(float64(len(shuffled)) * opts.TestFraction))
	if validationSize >= len(shuffled) {
		validationSize = len(shuffled) - 1
	}

	inputs := extractor.Len()
	t := &Trainer{
		weights:    make([]float64, inputs),
		gradients:  make([]Gradient, inputs),
		validation: shuffled[:validationSize],
		training:   shuffled[validationSize:],
		rnd:        rnd,
		opts:       opts,
		log:        log,
	}
	t.Train(opts.Epochs)

	report := Report{
		Training:   len(t.training),
		Validation: len(t.validation),
		TrainCost:  t.calcCost(t.training),
		R2:         t.r2(t.validation),
	}
	model := &eval.LinearModel{
		Variant: extractor.Variant,
		Rules:   extractor.Rules,
		Weights: t.weights,
		Bias:    t.bias,
		R2:      report.R2,
		Samples: len(samples),
	}
	return model, report, nil
}

func (t *Trainer) predict(sample *Sample) float64 {
	output := t.bias
	for i, w := range t.weights {
		output += w * sample.Features[i]
	}
	return output
}

func (t *Trainer) Train(epochs int) {
	t.log.Debug().Int("training", len(t.training)).Int("validation", len(t.validation)).Msg("train started")
	for epoch := 1; epoch <= epochs; epoch++ {
		t.startEpoch()
		if epoch%50 == 0 || epoch == epochs {
			t.log.Debug().
				Int("epoch", epoch).
				Float64("cost", t.calcCost(t.training)).
				Msg("finished epoch")
		}
	}
}

func (t *Trainer) startEpoch() {
	t.rnd.Shuffle(len(t.training), func(i, j int) {
		t.training[i], t.training[j] = t.training[j], t.training[i]
	})
	for i := 0; i < len(t.training); i += BatchSize {
		end := i + BatchSize
		if end > len(t.training) {
			end = len(t.training)
		}
		t.trainBatch(t.training[i:end])
	}
}

func (t *Trainer) trainBatch(batch []Sample) {
	scale := 1 / float64(len(batch))
	for i := range batch {
		sample := &batch[i]
		outputGradient := mseCostPrime(t.predict(sample), sample.Target) * scale
		for j := range t.weights {
			t.gradients[j].Update(outputGradient * sample.Features[j])
		}
		t.biasGrad.Update(outputGradient)
	}
	for j := range t.gradients {
		t.gradients[j].Apply(&t.weights[j], t.opts.LearningRate)
	}
	t.biasGrad.Apply(&t.bias, t.opts.LearningRate)
}

func (t *Trainer) calcCost(samples []Sample) float64 {
	if len(samples) == 0 {
		return 0
	}
	var total float64
	for i := range samples {
		total += mseCost(t.predict(&samples[i]), samples[i].Target)
	}
	return total / float64(len(samples))
}

// r2 is the coefficient of determination on samples; 0 when the targets have
// no variance.
func (t *Trainer) r2(samples []Sample) float64 {
	if len(samples) == 0 {
		return 0
	}
	var mean float64
	for i := range samples {
		mean += samples[i].Target
	}
	mean /= float64(len(samples))
	var ssRes, ssTot float64
	for i := range samples {
		d := samples[i].Target - mean
		ssTot += d * d
		ssRes += mseCost(t.predict(&samples[i]), samples[i].Target)
	}
	if ssTot == 0 {
		return 0
	}
	return 1 - ssRes/ssTot
}

type Options struct {
	Load LoadOptions
	Fit  FitOptions
}

// TrainFile loads the CSV at path and fits a model on it. File system errors
// are returned as they are; data problems satisfy IsDataError.
func TrainFile(ctx context.Context, path string, extractor *eval.Extractor, opts Options, log zerolog.Logger) (*eval.LinearModel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	samples, err := LoadCSV(ctx, f, extractor, opts.Load)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	log.Info().Int("samples", len(samples)).Str("path", path).Msg("loaded dataset")

	model, report, err := Fit(samples, extractor, opts.Fit, log)
	if err != nil {
		return nil, err
	}
	log.Info().
		Int("training", report.Training).
		Int("validation", report.Validation).
		Float64("r2", report.R2).
		Msg("model trained")
	return model, nil
}
