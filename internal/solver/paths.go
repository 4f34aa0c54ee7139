package solver

import (
	"fmt"
	"math"
)

// Edge — взвешенное ориентированное ребро.
type Edge struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Weight float64 `json:"weight"`
}

// PathResult — кратчайшие расстояния от одного источника.
//
// Недостижимые вершины имеют расстояние +Inf.
type PathResult struct {
	Source    string
	Distances map[string]float64
	previous  map[string]string
}

// Path восстанавливает кратчайший путь от Source до to.
// Возвращает nil, если to недостижима.
func (r *PathResult) Path(to string) []string {
	d, ok := r.Distances[to]
	if !ok || math.IsInf(d, 1) {
		return nil
	}

	path := []string{to}
	for cur := to; cur != r.Source; {
		prev, ok := r.previous[cur]
		if !ok {
			return nil
		}
		path = append(path, prev)
		cur = prev
	}

	// Разворачиваем: источник первым
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// ShortestPaths считает кратчайшие пути от каждого источника
// жадным Dijkstra за O(V²) по матрице смежности.
//
// Отсутствующее ребро означает бесконечное расстояние.
// При нескольких рёбрах между одной парой вершин берётся минимальный вес.
func ShortestPaths(edges []Edge, sources []string) (map[string]*PathResult, error) {
	index := make(map[string]int)
	names := make([]string, 0)
	vertex := func(name string) int {
		if i, ok := index[name]; ok {
			return i
		}
		index[name] = len(names)
		names = append(names, name)
		return len(names) - 1
	}

	for _, e := range edges {
		if e.Weight < 0 {
			return nil, fmt.Errorf("%w: negative weight on edge %s→%s", ErrInvalidParams, e.From, e.To)
		}
		vertex(e.From)
		vertex(e.To)
	}
	for _, s := range sources {
		vertex(s)
	}

	n := len(names)
	weights := make([][]float64, n)
	for i := range weights {
		weights[i] = make([]float64, n)
		for j := range weights[i] {
			weights[i][j] = math.Inf(1)
		}
	}
	for _, e := range edges {
		from, to := index[e.From], index[e.To]
		weights[from][to] = min(weights[from][to], e.Weight)
	}

	results := make(map[string]*PathResult, len(sources))
	for _, s := range sources {
		results[s] = dijkstra(weights, names, index[s])
	}
	return results, nil
}

func dijkstra(weights [][]float64, names []string, source int) *PathResult {
	n := len(names)
	dist := make([]float64, n)
	prev := make([]int, n)
	visited := make([]bool, n)
	for i := range dist {
		dist[i] = math.Inf(1)
		prev[i] = -1
	}
	dist[source] = 0

	for range n {
		// Ближайшая непосещённая вершина
		u := -1
		for v := range n {
			if !visited[v] && (u == -1 || dist[v] < dist[u]) {
				u = v
			}
		}
		if u == -1 || math.IsInf(dist[u], 1) {
			break
		}
		visited[u] = true

		for v := range n {
			if alt := dist[u] + weights[u][v]; alt < dist[v] {
				dist[v] = alt
				prev[v] = u
			}
		}
	}

	res := &PathResult{
		Source:    names[source],
		Distances: make(map[string]float64, n),
		previous:  make(map[string]string),
	}
	for v := range n {
		res.Distances[names[v]] = dist[v]
		if prev[v] >= 0 {
			res.previous[names[v]] = names[prev[v]]
		}
	}
	return res
}
