package engine

import (
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Colony/internal/domain"
)

// Node — узел графа.
type Node struct {
	ID   string
	Name string
	Type string

	// HandlerName — имя handler'а из GraphSpec; пустое для pass-through.
	HandlerName string

	// Handler — разрешённый handler; nil для pass-through.
	Handler Handler

	Config map[string]any

	State domain.NodeState

	// Dependencies — узлы, от которых зависит этот узел (порядок рёбер, без дублей).
	Dependencies []string

	// Dependents — узлы, которые зависят от этого узла.
	Dependents []string

	// Result определён только в состоянии COMPLETED.
	Result any

	// Err — ошибка handler'а в состоянии FAILED.
	Err error
}

// Graph — граф задач.
//
// Состояние узлов меняет только Scheduler; мьютекс позволяет
// читателям (API, CLI) брать согласованные снимки во время выполнения.
type Graph struct {
	ID   string
	Name string

	Edges []domain.EdgeSpec

	mu         sync.RWMutex
	state      domain.GraphState
	nodes      map[string]*Node
	order      []string // порядок объявления
	results    map[string]any
	err        error
	createdAt  time.Time
	startedAt  time.Time
	finishedAt time.Time
}

// CreateGraph строит граф по спецификации.
//
// Проверяет ID узлов, имена handler'ов и концы рёбер (см. Validate).
// Циклы не проверяются: они обнаруживаются при выполнении или через CheckAcyclic.
// handlers может быть nil, если в графе только pass-through узлы.
func CreateGraph(spec *domain.GraphSpec, handlers *Registry) (*Graph, error) {
	if err := Validate(spec, handlers); err != nil {
		return nil, err
	}

	id := spec.ID
	if id == "" {
		id = uuid.NewString()
	}

	g := &Graph{
		ID:        id,
		Name:      spec.Name,
		Edges:     slices.Clone(spec.Edges),
		state:     domain.GraphStatePending,
		nodes:     make(map[string]*Node, len(spec.Nodes)),
		order:     make([]string, 0, len(spec.Nodes)),
		results:   make(map[string]any, len(spec.Nodes)),
		createdAt: time.Now().UTC(),
	}

	for _, ns := range spec.Nodes {
		node := &Node{
			ID:           ns.ID,
			Name:         ns.Name,
			Type:         ns.Type,
			HandlerName:  ns.Handler,
			Config:       maps.Clone(ns.Config),
			State:        domain.NodeStatePending,
			Dependencies: make([]string, 0),
			Dependents:   make([]string, 0),
		}
		if node.Name == "" {
			node.Name = ns.ID
		}
		if node.Config == nil {
			node.Config = make(map[string]any)
		}
		if ns.Handler != "" {
			// Validate уже проверил, что handler существует
			node.Handler, _ = handlers.Get(ns.Handler)
		}

		g.nodes[ns.ID] = node
		g.order = append(g.order, ns.ID)
	}

	for _, e := range spec.Edges {
		g.addEdge(g.nodes[e.From], g.nodes[e.To])
	}

	return g, nil
}

// addEdge добавляет ребро между узлами.
// Повторное ребро не дублирует множества зависимостей.
func (g *Graph) addEdge(from, to *Node) {
	if slices.Contains(to.Dependencies, from.ID) {
		return
	}
	from.Dependents = append(from.Dependents, to.ID)
	to.Dependencies = append(to.Dependencies, from.ID)
}

// State возвращает состояние графа.
func (g *Graph) State() domain.GraphState {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

// Err возвращает ошибку, с которой граф перешёл в FAILED.
func (g *Graph) Err() error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.err
}

// Len возвращает количество узлов.
func (g *Graph) Len() int {
	return len(g.order)
}

// NodeIDs возвращает ID узлов в порядке объявления.
func (g *Graph) NodeIDs() []string {
	return slices.Clone(g.order)
}

// Node возвращает копию узла по ID.
func (g *Graph) Node(id string) (Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return Node{}, false
	}
	cp := *n
	cp.Dependencies = slices.Clone(n.Dependencies)
	cp.Dependents = slices.Clone(n.Dependents)
	return cp, true
}

// Results возвращает копию зафиксированных результатов.
func (g *Graph) Results() map[string]any {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return maps.Clone(g.results)
}

// TopologicalOrder возвращает порядок выполнения: обход в глубину
// с выдачей узла после всех его зависимостей. Узлы обходятся в порядке
// объявления, поэтому порядок детерминирован.
//
// Обратное ребро даёт CyclicDependencyError с узлами цикла.
func (g *Graph) TopologicalOrder() ([]string, error) {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, len(g.order))
	order := make([]string, 0, len(g.order))
	stack := make([]string, 0)

	var visit func(id string) error
	visit = func(id string) error {
		switch color[id] {
		case black:
			return nil
		case gray:
			// Цикл: от первого вхождения id в стеке до вершины
			start := slices.Index(stack, id)
			return &CyclicDependencyError{Pending: slices.Clone(stack[start:])}
		}

		color[id] = gray
		stack = append(stack, id)
		for _, dep := range g.nodes[id].Dependencies {
			if err := visit(dep); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		color[id] = black
		order = append(order, id)
		return nil
	}

	for _, id := range g.order {
		if err := visit(id); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// CheckAcyclic возвращает CyclicDependencyError, если в графе есть цикл.
func (g *Graph) CheckAcyclic() error {
	_, err := g.TopologicalOrder()
	return err
}

// readyNodes возвращает узлы в PENDING, все зависимости которых COMPLETED.
// Вызывается под g.mu.
func (g *Graph) readyNodes() []*Node {
	ready := make([]*Node, 0)
	for _, id := range g.order {
		node := g.nodes[id]
		if node.State != domain.NodeStatePending {
			continue
		}

		allDepsCompleted := true
		for _, dep := range node.Dependencies {
			if g.nodes[dep].State != domain.NodeStateCompleted {
				allDepsCompleted = false
				break
			}
		}
		if allDepsCompleted {
			ready = append(ready, node)
		}
	}
	return ready
}

// pendingIDs возвращает узлы в PENDING. Вызывается под g.mu.
func (g *Graph) pendingIDs() []string {
	ids := make([]string, 0)
	for _, id := range g.order {
		if g.nodes[id].State == domain.NodeStatePending {
			ids = append(ids, id)
		}
	}
	return ids
}

// inputsFor собирает результаты зависимостей узла. Вызывается под g.mu.
func (g *Graph) inputsFor(node *Node) map[string]any {
	inputs := make(map[string]any, len(node.Dependencies))
	for _, dep := range node.Dependencies {
		inputs[dep] = g.results[dep]
	}
	return inputs
}

// GraphSnapshot — согласованный снимок графа для API и CLI.
type GraphSnapshot struct {
	ID         string            `json:"id"`
	Name       string            `json:"name,omitempty"`
	State      domain.GraphState `json:"state"`
	Nodes      []NodeSnapshot    `json:"nodes"`
	Edges      []domain.EdgeSpec `json:"edges"`
	Results    map[string]any    `json:"results"`
	Error      string            `json:"error,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	StartedAt  *time.Time        `json:"started_at,omitempty"`
	FinishedAt *time.Time        `json:"finished_at,omitempty"`
}

// NodeSnapshot — снимок узла.
type NodeSnapshot struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Type         string           `json:"type,omitempty"`
	Handler      string           `json:"handler,omitempty"`
	State        domain.NodeState `json:"state"`
	Dependencies []string         `json:"dependencies"`
	Dependents   []string         `json:"dependents"`
	Result       any              `json:"result,omitempty"`
	Error        string           `json:"error,omitempty"`
}

// Snapshot возвращает снимок графа.
func (g *Graph) Snapshot() GraphSnapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()

	snap := GraphSnapshot{
		ID:        g.ID,
		Name:      g.Name,
		State:     g.state,
		Nodes:     make([]NodeSnapshot, 0, len(g.order)),
		Edges:     slices.Clone(g.Edges),
		Results:   maps.Clone(g.results),
		CreatedAt: g.createdAt,
	}
	if snap.Edges == nil {
		snap.Edges = []domain.EdgeSpec{}
	}
	if g.err != nil {
		snap.Error = g.err.Error()
	}
	if !g.startedAt.IsZero() {
		t := g.startedAt
		snap.StartedAt = &t
	}
	if !g.finishedAt.IsZero() {
		t := g.finishedAt
		snap.FinishedAt = &t
	}

	for _, id := range g.order {
		n := g.nodes[id]
		ns := NodeSnapshot{
			ID:           n.ID,
			Name:         n.Name,
			Type:         n.Type,
			Handler:      n.HandlerName,
			State:        n.State,
			Dependencies: slices.Clone(n.Dependencies),
			Dependents:   slices.Clone(n.Dependents),
			Result:       n.Result,
		}
		if n.Err != nil {
			ns.Error = n.Err.Error()
		}
		snap.Nodes = append(snap.Nodes, ns)
	}
	return snap
}
