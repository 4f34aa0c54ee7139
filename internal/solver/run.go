package solver

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"sort"
)

// Algorithm — алгоритм, вызываемый по имени с JSON-параметрами.
type Algorithm func(params json.RawMessage) (any, error)

var algorithms = map[string]Algorithm{
	"binary_search":        runSearch(BinarySearch[float64]),
	"jump_search":          runSearch(JumpSearch[float64]),
	"interpolation_search": runSearch(InterpolationSearch[float64]),
	"approximate_median":   runApproximateMedian,
	"approximate_count":    runApproximateCount,
	"count_min_sketch":     runCountMinSketch,
	"shortest_path":        runShortestPath,
	"csp":                  runCSP,
	"gradient_descent":     runGradientDescent,
	"momentum_signal":      runMomentumSignal,
}

// Algorithms возвращает отсортированный список имён алгоритмов.
func Algorithms() []string {
	names := make([]string, 0, len(algorithms))
	for name := range algorithms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run вызывает алгоритм name.
//
// params — любое значение, сериализуемое в JSON (map из config узла,
// json.RawMessage из HTTP-запроса и т.п.). Неизвестное имя даёт ErrUnknownAlgorithm.
func Run(name string, params any) (any, error) {
	algo, ok := algorithms[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAlgorithm, name)
	}

	raw, err := toRaw(params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	return algo(raw)
}

func toRaw(params any) (json.RawMessage, error) {
	switch p := params.(type) {
	case nil:
		return json.RawMessage("{}"), nil
	case json.RawMessage:
		if len(p) == 0 {
			return json.RawMessage("{}"), nil
		}
		return p, nil
	case []byte:
		return json.RawMessage(p), nil
	default:
		return json.Marshal(p)
	}
}

func decode[T any](raw json.RawMessage) (T, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	return v, nil
}

type searchParams struct {
	Array  []float64 `json:"array"`
	Target float64   `json:"target"`
}

func runSearch(search func([]float64, float64) SearchResult) Algorithm {
	return func(raw json.RawMessage) (any, error) {
		p, err := decode[searchParams](raw)
		if err != nil {
			return nil, err
		}
		if !slices.IsSorted(p.Array) {
			return nil, fmt.Errorf("%w: array must be sorted ascending", ErrInvalidParams)
		}
		return search(p.Array, p.Target), nil
	}
}

// seededRand возвращает детерминированный источник, если seed задан.
func seededRand(seed *uint64) *rand.Rand {
	if seed == nil {
		return nil
	}
	return rand.New(rand.NewPCG(*seed, *seed^0x5DEECE66D))
}

func runApproximateMedian(raw json.RawMessage) (any, error) {
	p, err := decode[struct {
		Data    []float64 `json:"data"`
		Epsilon float64   `json:"epsilon"`
		Seed    *uint64   `json:"seed"`
	}](raw)
	if err != nil {
		return nil, err
	}
	if p.Epsilon == 0 {
		p.Epsilon = 0.1
	}

	size, err := SampleSize(p.Epsilon)
	if err != nil {
		return nil, err
	}

	median, err := ApproximateMedian(p.Data, p.Epsilon, seededRand(p.Seed))
	if err != nil {
		return nil, err
	}
	return map[string]any{"median": median, "samples": size}, nil
}

func runApproximateCount(raw json.RawMessage) (any, error) {
	p, err := decode[struct {
		Data  []float64 `json:"data"`
		Op    Op        `json:"op"`
		Value float64   `json:"value"`
		Seed  *uint64   `json:"seed"`
	}](raw)
	if err != nil {
		return nil, err
	}

	c := Constraint{Op: p.Op, Vars: []string{"x"}, Value: p.Value}
	if err := (CSP{Variables: []string{"x"}, Domains: map[string][]any{"x": nil}, Constraints: []Constraint{c}}).validate(); err != nil {
		return nil, err
	}
	pred := func(v float64) bool { return c.satisfied(Assignment{"x": v}) }

	estimate := ApproximateCount(p.Data, pred, seededRand(p.Seed))
	return map[string]any{"estimate": estimate, "total": len(p.Data)}, nil
}

func runCountMinSketch(raw json.RawMessage) (any, error) {
	p, err := decode[struct {
		Items   []string `json:"items"`
		Queries []string `json:"queries"`
	}](raw)
	if err != nil {
		return nil, err
	}

	sketch := BuildCountMinSketch(p.Items)
	queries := p.Queries
	if len(queries) == 0 {
		queries = p.Items
	}
	estimates := make(map[string]uint64, len(queries))
	for _, q := range queries {
		estimates[q] = sketch.Estimate(q)
	}
	return map[string]any{"estimates": estimates, "width": SketchWidth, "depth": SketchDepth}, nil
}

func runShortestPath(raw json.RawMessage) (any, error) {
	p, err := decode[struct {
		Edges   []Edge   `json:"edges"`
		Sources []string `json:"sources"`
	}](raw)
	if err != nil {
		return nil, err
	}
	if len(p.Sources) == 0 {
		return nil, fmt.Errorf("%w: sources are required", ErrInvalidParams)
	}

	results, err := ShortestPaths(p.Edges, p.Sources)
	if err != nil {
		return nil, err
	}

	// +Inf не сериализуется в JSON: недостижимые вершины дают null
	distances := make(map[string]map[string]*float64, len(results))
	paths := make(map[string]map[string][]string, len(results))
	for src, r := range results {
		distances[src] = make(map[string]*float64, len(r.Distances))
		paths[src] = make(map[string][]string)
		for v, d := range r.Distances {
			if math.IsInf(d, 1) {
				distances[src][v] = nil
				continue
			}
			distances[src][v] = &d
			paths[src][v] = r.Path(v)
		}
	}
	return map[string]any{"distances": distances, "paths": paths}, nil
}

func runCSP(raw json.RawMessage) (any, error) {
	p, err := decode[CSP](raw)
	if err != nil {
		return nil, err
	}
	return SolveCSP(p)
}

func runGradientDescent(raw json.RawMessage) (any, error) {
	p, err := decode[struct {
		Objective string    `json:"objective"`
		Center    []float64 `json:"center"`
		A         float64   `json:"a"`
		B         float64   `json:"b"`
		Initial   []float64 `json:"initial"`
		DescentOptions
	}](raw)
	if err != nil {
		return nil, err
	}

	var f Objective
	switch p.Objective {
	case "", "quadratic":
		f = Quadratic(p.Center)
	case "rosenbrock":
		a, b := p.A, p.B
		if a == 0 && b == 0 {
			a, b = 1, 100
		}
		f = Rosenbrock(a, b)
	default:
		return nil, fmt.Errorf("%w: unknown objective %q", ErrInvalidParams, p.Objective)
	}

	return GradientDescent(f, p.Initial, p.DescentOptions)
}

func runMomentumSignal(raw json.RawMessage) (any, error) {
	p, err := decode[struct {
		Prices   []float64 `json:"prices"`
		Lookback int       `json:"lookback"`
	}](raw)
	if err != nil {
		return nil, err
	}
	return MomentumSignal(p.Prices, p.Lookback)
}
