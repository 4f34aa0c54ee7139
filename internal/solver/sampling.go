package solver

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
)

// MaxSamples — предел размера выборки ApproximateMedian (ε ≈ 2.4e-4).
const MaxSamples = 1 << 24

// SampleSize возвращает размер выборки ⌈1/ε²⌉ для ApproximateMedian.
// ε вне (0, 1] или выборка больше MaxSamples дают ErrInvalidParams.
func SampleSize(epsilon float64) (int, error) {
	if epsilon <= 0 || epsilon > 1 || math.IsNaN(epsilon) {
		return 0, fmt.Errorf("%w: epsilon must be in (0, 1], got %v", ErrInvalidParams, epsilon)
	}
	n := math.Ceil(1 / (epsilon * epsilon))
	if n > MaxSamples {
		return 0, fmt.Errorf("%w: epsilon %v needs %.0f samples, limit is %d", ErrInvalidParams, epsilon, n, MaxSamples)
	}
	return int(n), nil
}

// ApproximateMedian возвращает медиану случайной выборки
// ⌈1/ε²⌉ элементов с возвращением.
//
// rng может быть nil — тогда используется глобальный источник.
func ApproximateMedian(data []float64, epsilon float64, rng *rand.Rand) (float64, error) {
	if len(data) == 0 {
		return 0, ErrEmptyInput
	}
	size, err := SampleSize(epsilon)
	if err != nil {
		return 0, err
	}

	sample := make([]float64, size)
	for i := range sample {
		sample[i] = data[intN(rng, len(data))]
	}
	slices.Sort(sample)

	return sample[len(sample)/2], nil
}

// ApproximateCount оценивает число элементов, удовлетворяющих predicate:
// берёт ⌈√n⌉ случайных элементов и масштабирует долю попаданий на n.
func ApproximateCount[T any](data []T, predicate func(T) bool, rng *rand.Rand) float64 {
	n := len(data)
	if n == 0 {
		return 0
	}

	k := int(math.Ceil(math.Sqrt(float64(n))))
	hits := 0
	for range k {
		if predicate(data[intN(rng, n)]) {
			hits++
		}
	}

	return float64(hits) / float64(k) * float64(n)
}

func intN(rng *rand.Rand, n int) int {
	if rng == nil {
		return rand.IntN(n)
	}
	return rng.IntN(n)
}
