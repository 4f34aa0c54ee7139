package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shaiso/Colony/internal/domain"
	"github.com/shaiso/Colony/internal/events"
)

// sumHandler складывает числовые входы и value из config.
func sumHandler() Handler {
	return HandlerFunc(func(_ context.Context, inputs, config map[string]any) (any, error) {
		total := ConfigInt(config, "value")
		for _, v := range inputs {
			total += v.(int)
		}
		return total, nil
	})
}

func newRegistry(t *testing.T, handlers map[string]Handler) *Registry {
	t.Helper()
	r := NewRegistry()
	for name, h := range handlers {
		r.Register(name, h)
	}
	return r
}

func diamondSpec() *domain.GraphSpec {
	return &domain.GraphSpec{
		ID: "diamond",
		Nodes: []domain.NodeSpec{
			{ID: "A", Handler: "sum", Config: map[string]any{"value": 1}},
			{ID: "B", Handler: "sum", Config: map[string]any{"value": 10}},
			{ID: "C", Handler: "sum", Config: map[string]any{"value": 100}},
			{ID: "D", Handler: "sum"},
		},
		Edges: []domain.EdgeSpec{
			{From: "A", To: "B"},
			{From: "A", To: "C"},
			{From: "B", To: "D"},
			{From: "C", To: "D"},
		},
	}
}

func TestScheduler_ModesProduceSameResults(t *testing.T) {
	for _, mode := range []domain.ExecutionMode{domain.ExecutionModeSequential, domain.ExecutionModeParallel} {
		t.Run(string(mode), func(t *testing.T) {
			g, err := CreateGraph(diamondSpec(), newRegistry(t, map[string]Handler{"sum": sumHandler()}))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			results, err := NewScheduler(SchedulerConfig{Mode: mode}).Execute(context.Background(), g)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			// A=1, B=11, C=101, D=112
			want := map[string]int{"A": 1, "B": 11, "C": 101, "D": 112}
			if len(results) != len(want) {
				t.Fatalf("expected one result per node, got %v", results)
			}
			for id, v := range want {
				if results[id] != v {
					t.Errorf("%s: expected %d, got %v", id, v, results[id])
				}
			}

			if g.State() != domain.GraphStateCompleted {
				t.Errorf("expected COMPLETED, got %s", g.State())
			}
			for _, id := range g.NodeIDs() {
				n, _ := g.Node(id)
				if n.State != domain.NodeStateCompleted || n.Result == nil {
					t.Errorf("node %s: expected COMPLETED with result, got %s", id, n.State)
				}
			}
		})
	}
}

func TestScheduler_PassThrough(t *testing.T) {
	spec := &domain.GraphSpec{
		Nodes: []domain.NodeSpec{
			{ID: "left", Handler: "sum", Config: map[string]any{"value": 2}},
			{ID: "right", Handler: "sum", Config: map[string]any{"value": 3}},
			{ID: "join"},
		},
		Edges: []domain.EdgeSpec{
			{From: "left", To: "join"},
			{From: "right", To: "join"},
		},
	}
	g, err := CreateGraph(spec, newRegistry(t, map[string]Handler{"sum": sumHandler()}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	results, err := NewScheduler(SchedulerConfig{}).Execute(context.Background(), g)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	join, ok := results["join"].(map[string]any)
	if !ok {
		t.Fatalf("expected map result, got %T", results["join"])
	}
	if join["node_id"] != "join" || join["left"] != 2 || join["right"] != 3 {
		t.Errorf("unexpected pass-through result: %v", join)
	}
}

func TestScheduler_DependenciesCommittedBeforeStart(t *testing.T) {
	var mu sync.Mutex
	finished := make(map[string]bool)

	check := HandlerFunc(func(_ context.Context, inputs, config map[string]any) (any, error) {
		id := ConfigString(config, "id")
		mu.Lock()
		defer mu.Unlock()
		for dep := range inputs {
			if !finished[dep] {
				return nil, errors.New(id + " started before " + dep)
			}
		}
		finished[id] = true
		return id, nil
	})

	spec := diamondSpec()
	for i := range spec.Nodes {
		spec.Nodes[i].Handler = "check"
		spec.Nodes[i].Config = map[string]any{"id": spec.Nodes[i].ID}
	}

	g, err := CreateGraph(spec, newRegistry(t, map[string]Handler{"check": check}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := NewScheduler(SchedulerConfig{}).Execute(context.Background(), g); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestScheduler_CycleFailsInsteadOfHanging(t *testing.T) {
	spec := &domain.GraphSpec{
		Nodes: []domain.NodeSpec{{ID: "root"}, {ID: "X"}, {ID: "Y"}},
		Edges: []domain.EdgeSpec{
			{From: "root", To: "X"},
			{From: "X", To: "Y"},
			{From: "Y", To: "X"},
		},
	}

	for _, mode := range []domain.ExecutionMode{domain.ExecutionModeParallel, domain.ExecutionModeSequential} {
		t.Run(string(mode), func(t *testing.T) {
			g, err := CreateGraph(spec, nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			_, err = NewScheduler(SchedulerConfig{Mode: mode}).Execute(context.Background(), g)

			var cycErr *CyclicDependencyError
			if !errors.As(err, &cycErr) {
				t.Fatalf("expected CyclicDependencyError, got %v", err)
			}
			if g.State() != domain.GraphStateFailed {
				t.Errorf("expected FAILED, got %s", g.State())
			}
		})
	}

	// В волновом режиме root успевает выполниться, X и Y застревают
	g, _ := CreateGraph(spec, nil)
	_, err := NewScheduler(SchedulerConfig{}).Execute(context.Background(), g)
	var cycErr *CyclicDependencyError
	errors.As(err, &cycErr)
	if len(cycErr.Pending) != 2 || cycErr.Pending[0] != "X" || cycErr.Pending[1] != "Y" {
		t.Errorf("expected stuck nodes [X Y], got %v", cycErr.Pending)
	}
	if _, ok := g.Results()["root"]; !ok {
		t.Error("expected root result to be committed")
	}
}

func TestScheduler_FailFast(t *testing.T) {
	boom := errors.New("boom")
	var sawD atomic.Bool

	handlers := map[string]Handler{
		"ok": HandlerFunc(func(context.Context, map[string]any, map[string]any) (any, error) {
			return "ok", nil
		}),
		"fail": HandlerFunc(func(context.Context, map[string]any, map[string]any) (any, error) {
			return nil, boom
		}),
		"never": HandlerFunc(func(context.Context, map[string]any, map[string]any) (any, error) {
			sawD.Store(true)
			return nil, nil
		}),
	}

	spec := &domain.GraphSpec{
		Nodes: []domain.NodeSpec{
			{ID: "A", Handler: "ok"},
			{ID: "B", Handler: "ok"},
			{ID: "C", Handler: "fail"},
			{ID: "D", Handler: "never"},
		},
		Edges: []domain.EdgeSpec{
			{From: "A", To: "B"},
			{From: "A", To: "C"},
			{From: "B", To: "D"},
			{From: "C", To: "D"},
		},
	}

	bus := events.NewBus()
	var mu sync.Mutex
	var types []events.Type
	bus.Subscribe(func(e events.Event) {
		mu.Lock()
		types = append(types, e.Type)
		mu.Unlock()
	})

	g, err := CreateGraph(spec, newRegistry(t, handlers))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	results, err := NewScheduler(SchedulerConfig{Notifier: bus}).Execute(context.Background(), g)
	if results != nil {
		t.Errorf("expected no results on failure, got %v", results)
	}

	var nodeErr *NodeExecutionError
	if !errors.As(err, &nodeErr) {
		t.Fatalf("expected NodeExecutionError, got %v", err)
	}
	if nodeErr.NodeID != "C" || !errors.Is(err, boom) || !errors.Is(err, ErrNodeExecution) {
		t.Errorf("unexpected error: %v", err)
	}

	if sawD.Load() {
		t.Error("D must not run after failure")
	}

	states := map[string]domain.NodeState{
		"A": domain.NodeStateCompleted,
		"B": domain.NodeStatePending, // успешный сосед по волне не фиксируется
		"C": domain.NodeStateFailed,
		"D": domain.NodeStatePending,
	}
	for id, want := range states {
		n, _ := g.Node(id)
		if n.State != want {
			t.Errorf("%s: expected %s, got %s", id, want, n.State)
		}
		if want != domain.NodeStateCompleted && n.Result != nil {
			t.Errorf("%s: result must be empty when not COMPLETED", id)
		}
	}

	if got := g.Results(); len(got) != 1 || got["A"] != "ok" {
		t.Errorf("expected only A committed, got %v", got)
	}
	if g.State() != domain.GraphStateFailed || g.Err() == nil {
		t.Errorf("expected FAILED graph with error, got %s", g.State())
	}

	mu.Lock()
	defer mu.Unlock()
	if types[0] != events.GraphStarted || types[len(types)-1] != events.GraphFailed {
		t.Errorf("unexpected event sequence: %v", types)
	}
}

func TestScheduler_Panic(t *testing.T) {
	handlers := map[string]Handler{
		"panic": HandlerFunc(func(context.Context, map[string]any, map[string]any) (any, error) {
			panic("unexpected")
		}),
	}
	g, err := CreateGraph(&domain.GraphSpec{Nodes: []domain.NodeSpec{{ID: "P", Handler: "panic"}}}, newRegistry(t, handlers))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = NewScheduler(SchedulerConfig{}).Execute(context.Background(), g)
	if !errors.Is(err, ErrNodeExecution) {
		t.Fatalf("expected ErrNodeExecution, got %v", err)
	}
	if n, _ := g.Node("P"); n.State != domain.NodeStateFailed {
		t.Errorf("expected FAILED, got %s", n.State)
	}
}

func TestScheduler_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g, err := CreateGraph(chainSpec(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = NewScheduler(SchedulerConfig{}).Execute(ctx, g)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if g.State() != domain.GraphStateFailed {
		t.Errorf("expected FAILED, got %s", g.State())
	}
}

func TestScheduler_MaxParallel(t *testing.T) {
	var running, peak atomic.Int32
	slow := HandlerFunc(func(context.Context, map[string]any, map[string]any) (any, error) {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		running.Add(-1)
		return nil, nil
	})

	spec := &domain.GraphSpec{}
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		spec.Nodes = append(spec.Nodes, domain.NodeSpec{ID: id, Handler: "slow"})
	}

	g, err := CreateGraph(spec, newRegistry(t, map[string]Handler{"slow": slow}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := NewScheduler(SchedulerConfig{MaxParallel: 2}).Execute(context.Background(), g); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if peak.Load() > 2 {
		t.Errorf("expected at most 2 concurrent nodes, got %d", peak.Load())
	}
}

func TestScheduler_ExecuteTwice(t *testing.T) {
	g, _ := CreateGraph(chainSpec(), nil)
	s := NewScheduler(SchedulerConfig{})

	if _, err := s.Execute(context.Background(), g); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.Execute(context.Background(), g); !errors.Is(err, ErrGraphState) {
		t.Errorf("expected ErrGraphState, got %v", err)
	}
}

func TestWithTimeout(t *testing.T) {
	blocking := HandlerFunc(func(ctx context.Context, _ map[string]any, _ map[string]any) (any, error) {
		time.Sleep(200 * time.Millisecond)
		return "late", nil
	})

	_, err := WithTimeout(blocking, 10*time.Millisecond).Handle(context.Background(), nil, nil)
	if !errors.Is(err, ErrHandlerTimeout) {
		t.Errorf("expected ErrHandlerTimeout, got %v", err)
	}

	fast := HandlerFunc(func(context.Context, map[string]any, map[string]any) (any, error) {
		return "ok", nil
	})
	res, err := WithTimeout(fast, time.Second).Handle(context.Background(), nil, nil)
	if err != nil || res != "ok" {
		t.Errorf("expected ok, got %v, %v", res, err)
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register("b", sumHandler())
	r.Register("a", sumHandler())

	if !r.Has("a") || r.Has("c") {
		t.Error("unexpected Has result")
	}
	if names := r.Names(); len(names) != 2 || names[0] != "a" {
		t.Errorf("expected sorted names, got %v", names)
	}
	if _, err := r.Get("c"); !errors.Is(err, ErrUnknownHandler) {
		t.Errorf("expected ErrUnknownHandler, got %v", err)
	}

	r.Unregister("a")
	if r.Has("a") {
		t.Error("expected a to be removed")
	}
}
