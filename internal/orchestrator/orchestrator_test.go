package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/shaiso/Colony/internal/domain"
	"github.com/shaiso/Colony/internal/engine"
	"github.com/shaiso/Colony/internal/events"
	"github.com/shaiso/Colony/internal/repo"
	"github.com/shaiso/Colony/internal/solver"
	"github.com/shaiso/Colony/internal/swarm"
	"github.com/shaiso/Colony/internal/telemetry"
)

// fakeJournal запоминает записи журнала.
type fakeJournal struct {
	mu     sync.Mutex
	graphs []*repo.GraphRunRecord
	tasks  []*repo.SwarmTaskRecord
}

func (j *fakeJournal) RecordGraphRun(_ context.Context, rec *repo.GraphRunRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.graphs = append(j.graphs, rec)
	return nil
}

func (j *fakeJournal) RecordSwarmTask(_ context.Context, rec *repo.SwarmTaskRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.tasks = append(j.tasks, rec)
	return nil
}

func meshSpec(id string) *domain.SwarmSpec {
	return &domain.SwarmSpec{
		ID:       id,
		Topology: domain.TopologyMesh,
		Roles: []domain.RoleSpec{
			{Name: "a"}, {Name: "b"}, {Name: "c"},
		},
	}
}

// --- Graph Tests ---

func TestSubmitGraph_Completes(t *testing.T) {
	journal := &fakeJournal{}
	o := New(Config{Journal: journal})

	spec := &domain.GraphSpec{
		ID: "g1",
		Nodes: []domain.NodeSpec{
			{ID: "search", Handler: solver.HandlerName, Config: map[string]any{
				"algorithm": "binary_search",
				"params":    map[string]any{"array": []any{1, 2, 3}, "target": 2},
			}},
			{ID: "echo", Handler: KindEcho},
		},
		Edges: []domain.EdgeSpec{{From: "search", To: "echo"}},
	}

	snap, err := o.SubmitGraph(context.Background(), spec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.State != domain.GraphStateCompleted {
		t.Errorf("expected COMPLETED, got %s", snap.State)
	}

	sr, ok := snap.Results["search"].(solver.SearchResult)
	if !ok || !sr.Found || sr.Index != 1 {
		t.Errorf("unexpected search result: %#v", snap.Results["search"])
	}

	got, err := o.GetGraph("g1")
	if err != nil {
		t.Fatalf("GetGraph: %v", err)
	}
	if got.State != domain.GraphStateCompleted {
		t.Errorf("expected stored graph COMPLETED, got %s", got.State)
	}

	order, err := o.GraphOrder("g1")
	if err != nil {
		t.Fatalf("GraphOrder: %v", err)
	}
	if len(order) != 2 || order[0] != "search" || order[1] != "echo" {
		t.Errorf("expected [search echo], got %v", order)
	}

	if len(journal.graphs) != 1 || journal.graphs[0].State != "COMPLETED" || journal.graphs[0].NodeCount != 2 {
		t.Errorf("unexpected journal records: %+v", journal.graphs)
	}
}

func TestSubmitGraph_CycleRejected(t *testing.T) {
	o := New(Config{})

	spec := &domain.GraphSpec{
		ID:    "cyclic",
		Nodes: []domain.NodeSpec{{ID: "X"}, {ID: "Y"}},
		Edges: []domain.EdgeSpec{{From: "X", To: "Y"}, {From: "Y", To: "X"}},
	}

	_, err := o.SubmitGraph(context.Background(), spec)
	if !errors.Is(err, engine.ErrCyclicDependency) {
		t.Fatalf("expected ErrCyclicDependency, got %v", err)
	}
	if _, err := o.GetGraph("cyclic"); !errors.Is(err, ErrGraphNotFound) {
		t.Errorf("cyclic graph must not be stored, got %v", err)
	}
}

func TestSubmitGraph_FailureKeepsGraph(t *testing.T) {
	handlers := engine.NewRegistry()
	handlers.Register("boom", engine.HandlerFunc(func(context.Context, map[string]any, map[string]any) (any, error) {
		return nil, errors.New("boom")
	}))
	o := New(Config{Handlers: handlers})

	_, err := o.SubmitGraph(context.Background(), &domain.GraphSpec{
		ID:    "g-fail",
		Nodes: []domain.NodeSpec{{ID: "A", Handler: "boom"}},
	})
	if !errors.Is(err, engine.ErrNodeExecution) {
		t.Fatalf("expected ErrNodeExecution, got %v", err)
	}

	snap, err := o.GetGraph("g-fail")
	if err != nil {
		t.Fatalf("GetGraph: %v", err)
	}
	if snap.State != domain.GraphStateFailed {
		t.Errorf("expected FAILED, got %s", snap.State)
	}
}

func TestGetGraph_NotFound(t *testing.T) {
	o := New(Config{})
	_, err := o.GetGraph("missing")
	if !errors.Is(err, ErrGraphNotFound) {
		t.Errorf("expected ErrGraphNotFound, got %v", err)
	}
	if !IsNotFound(err) {
		t.Error("IsNotFound should be true")
	}
}

// --- Swarm Tests ---

func TestSwarmLifecycle(t *testing.T) {
	o := New(Config{})

	var mu sync.Mutex
	var seen []events.Type
	o.Events().Subscribe(func(e events.Event) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, e.Type)
	})

	ctx := context.Background()
	snap, err := o.CreateSwarm(ctx, meshSpec("s1"))
	if err != nil {
		t.Fatalf("CreateSwarm: %v", err)
	}
	if len(snap.Agents) != 3 {
		t.Fatalf("expected 3 agents, got %d", len(snap.Agents))
	}

	agent, err := o.AddAgent(ctx, "s1", domain.RoleSpec{Name: "d"})
	if err != nil {
		t.Fatalf("AddAgent: %v", err)
	}
	if err := o.RemoveAgent(ctx, "s1", agent.ID); err != nil {
		t.Fatalf("RemoveAgent: %v", err)
	}
	if err := o.RemoveAgent(ctx, "s1", "nobody"); !errors.Is(err, swarm.ErrAgentNotFound) {
		t.Errorf("expected ErrAgentNotFound, got %v", err)
	}

	if err := o.DeleteSwarm(ctx, "s1"); err != nil {
		t.Fatalf("DeleteSwarm: %v", err)
	}
	if _, err := o.GetSwarm("s1"); !errors.Is(err, swarm.ErrSwarmNotFound) {
		t.Errorf("expected ErrSwarmNotFound, got %v", err)
	}
	if err := o.DeleteSwarm(ctx, "s1"); !IsNotFound(err) {
		t.Errorf("expected not found on second delete, got %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	want := []events.Type{events.SwarmCreated, events.AgentAdded, events.AgentRemoved, events.SwarmDeleted}
	if len(seen) != len(want) {
		t.Fatalf("expected events %v, got %v", want, seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("event %d: expected %s, got %s", i, want[i], seen[i])
		}
	}
}

func TestDispatchTask_MeshConsensus(t *testing.T) {
	journal := &fakeJournal{}
	o := New(Config{Journal: journal})

	ctx := context.Background()
	if _, err := o.CreateSwarm(ctx, meshSpec("s1")); err != nil {
		t.Fatalf("CreateSwarm: %v", err)
	}

	// Executor по умолчанию возвращает payload — все агенты согласны
	res, err := o.DispatchTask(ctx, "s1", domain.Task{ID: "t1", Payload: "answer"})
	if err != nil {
		t.Fatalf("DispatchTask: %v", err)
	}
	if res.Consensus == nil || !res.Consensus.Achieved {
		t.Fatalf("expected consensus, got %+v", res.Consensus)
	}
	if res.Result != "answer" {
		t.Errorf("expected answer, got %v", res.Result)
	}

	if len(journal.tasks) != 1 || journal.tasks[0].TaskID != "t1" || journal.tasks[0].Topology != "mesh" {
		t.Errorf("unexpected journal records: %+v", journal.tasks)
	}

	snap, _ := o.GetSwarm("s1")
	if snap.Metrics.TasksDispatched != 1 || snap.Metrics.ConsensusAchieved != 1 {
		t.Errorf("unexpected metrics: %+v", snap.Metrics)
	}
}

func TestDispatchTask_SolverKind(t *testing.T) {
	o := New(Config{})
	ctx := context.Background()
	if _, err := o.CreateSwarm(ctx, meshSpec("s1")); err != nil {
		t.Fatalf("CreateSwarm: %v", err)
	}

	res, err := o.DispatchTask(ctx, "s1", domain.Task{
		Kind: KindSolve,
		Payload: map[string]any{
			"algorithm": "binary_search",
			"params":    map[string]any{"array": []any{1, 2, 3, 4}, "target": 4},
		},
	})
	if err != nil {
		t.Fatalf("DispatchTask: %v", err)
	}
	if !res.Consensus.Achieved || res.Consensus.Votes != 3 {
		t.Errorf("expected unanimous consensus, got %+v", res.Consensus)
	}
}

func TestDispatchTask_UnknownSwarm(t *testing.T) {
	o := New(Config{})
	_, err := o.DispatchTask(context.Background(), "missing", domain.Task{})
	var nf *swarm.SwarmNotFoundError
	if !errors.As(err, &nf) || nf.SwarmID != "missing" {
		t.Errorf("expected SwarmNotFoundError, got %v", err)
	}
}

func TestSwarmRegistry_CapacityEviction(t *testing.T) {
	o := New(Config{MaxSwarms: 1})
	ctx := context.Background()
	evictions := telemetry.RegistryEvictions.WithLabelValues("swarm", "capacity")
	before := testutil.ToFloat64(evictions)

	if _, err := o.CreateSwarm(ctx, meshSpec("s1")); err != nil {
		t.Fatalf("CreateSwarm: %v", err)
	}
	if _, err := o.CreateSwarm(ctx, meshSpec("s2")); err != nil {
		t.Fatalf("CreateSwarm: %v", err)
	}

	if _, err := o.GetSwarm("s1"); !IsNotFound(err) {
		t.Errorf("expected s1 evicted, got %v", err)
	}
	if _, err := o.GetSwarm("s2"); err != nil {
		t.Errorf("expected s2 present, got %v", err)
	}
	if got := testutil.ToFloat64(evictions) - before; got != 1 {
		t.Errorf("expected 1 capacity eviction, got %v", got)
	}
}

// --- Lifecycle Tests ---

func TestStart_InvalidSchedule(t *testing.T) {
	o := New(Config{SweepSchedule: "not a schedule"})
	if err := o.Start(context.Background()); !errors.Is(err, ErrInvalidSweepSchedule) {
		t.Errorf("expected ErrInvalidSweepSchedule, got %v", err)
	}
}

func TestStartStop(t *testing.T) {
	o := New(Config{})
	if err := o.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	o.Stop()
	o.Stop()

	if err := o.Start(context.Background()); !errors.Is(err, ErrOrchestratorStopped) {
		t.Errorf("expected ErrOrchestratorStopped after Stop, got %v", err)
	}
}

func TestSweep_NothingExpired(t *testing.T) {
	o := New(Config{})
	if _, err := o.CreateSwarm(context.Background(), meshSpec("s1")); err != nil {
		t.Fatalf("CreateSwarm: %v", err)
	}
	if g, s := o.Sweep(); g != 0 || s != 0 {
		t.Errorf("expected nothing swept, got graphs=%d swarms=%d", g, s)
	}
}
