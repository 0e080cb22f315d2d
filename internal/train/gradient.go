package train

import "math"

const (
	Beta1 = 0.9
	Beta2 = 0.999
)

// Gradient accumulates one weight's gradient and applies it with Adam-style
// moment estimates.
type Gradient struct {
	Value float64
	M1    float64
	M2    float64
}

func (g *Gradient) Update(delta float64) {
	g.Value += delta
}

func (g *Gradient) Calculate(learningRate float64) float64 {
	if g.Value == 0 {
		// nothing to calculate
		return 0
	}

	g.M1 = g.M1*Beta1 + g.Value*(1-Beta1)
	g.M2 = g.M2*Beta2 + (g.Value*g.Value)*(1-Beta2)

	return learningRate * g.M1 / (math.Sqrt(g.M2) + 1e-8)
}

func (g *Gradient) Apply(weight *float64, learningRate float64) {
	*weight -= g.Calculate(learningRate)
	g.Value = 0
}

func mseCost(predicted, target float64) float64 {
	var x = predicted - target
	return x * x
}

func mseCostPrime(predicted, target float64) float64 {
	return 2 * (predicted - target)
}
