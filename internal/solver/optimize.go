package solver

import (
	"fmt"
	"math"
)

// GradientStep — шаг центральной разности для численного градиента.
const GradientStep = 1e-8

// Objective — минимизируемая функция.
type Objective func(x []float64) float64

// DescentOptions — параметры градиентного спуска.
type DescentOptions struct {
	// LearningRate — фиксированный шаг (по умолчанию 0.01).
	LearningRate float64 `json:"learningRate"`

	// MaxIterations — максимум итераций (по умолчанию 1000).
	MaxIterations int `json:"maxIterations"`

	// Tolerance — остановка, когда норма градиента меньше (по умолчанию 1e-6).
	Tolerance float64 `json:"tolerance"`
}

func (o DescentOptions) withDefaults() DescentOptions {
	if o.LearningRate <= 0 {
		o.LearningRate = 0.01
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = 1000
	}
	if o.Tolerance <= 0 {
		o.Tolerance = 1e-6
	}
	return o
}

// DescentResult — результат градиентного спуска.
type DescentResult struct {
	X            []float64 `json:"x"`
	Value        float64   `json:"value"`
	Iterations   int       `json:"iterations"`
	GradientNorm float64   `json:"gradientNorm"`
	Converged    bool      `json:"converged"`
}

// GradientDescent минимизирует f из точки x0.
//
// Градиент считается центральной разностью с шагом GradientStep.
// Останавливается по MaxIterations или когда ‖∇f‖ < Tolerance.
func GradientDescent(f Objective, x0 []float64, opts DescentOptions) (DescentResult, error) {
	if f == nil {
		return DescentResult{}, fmt.Errorf("%w: objective is nil", ErrInvalidParams)
	}
	if len(x0) == 0 {
		return DescentResult{}, fmt.Errorf("%w: initial point is empty", ErrInvalidParams)
	}
	opts = opts.withDefaults()

	x := append([]float64(nil), x0...)
	grad := make([]float64, len(x))
	res := DescentResult{}

	for res.Iterations < opts.MaxIterations {
		numericGradient(f, x, grad)
		res.GradientNorm = norm(grad)
		if res.GradientNorm < opts.Tolerance {
			res.Converged = true
			break
		}

		for i := range x {
			x[i] -= opts.LearningRate * grad[i]
		}
		res.Iterations++
	}

	if !res.Converged {
		numericGradient(f, x, grad)
		res.GradientNorm = norm(grad)
		res.Converged = res.GradientNorm < opts.Tolerance
	}

	res.X = x
	res.Value = f(x)
	return res, nil
}

func numericGradient(f Objective, x, grad []float64) {
	for i := range x {
		orig := x[i]
		x[i] = orig + GradientStep
		up := f(x)
		x[i] = orig - GradientStep
		down := f(x)
		x[i] = orig
		grad[i] = (up - down) / (2 * GradientStep)
	}
}

func norm(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// Quadratic возвращает Σ(xᵢ - centerᵢ)².
func Quadratic(center []float64) Objective {
	return func(x []float64) float64 {
		var sum float64
		for i := range x {
			var c float64
			if i < len(center) {
				c = center[i]
			}
			d := x[i] - c
			sum += d * d
		}
		return sum
	}
}

// Rosenbrock возвращает Σ[b(xᵢ₊₁ - xᵢ²)² + (a - xᵢ)²].
func Rosenbrock(a, b float64) Objective {
	return func(x []float64) float64 {
		var sum float64
		for i := 0; i+1 < len(x); i++ {
			d1 := x[i+1] - x[i]*x[i]
			d2 := a - x[i]
			sum += b*d1*d1 + d2*d2
		}
		return sum
	}
}
