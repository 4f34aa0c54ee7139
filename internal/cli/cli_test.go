package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/shaiso/Colony/internal/api"
	"github.com/shaiso/Colony/internal/domain"
	"github.com/shaiso/Colony/internal/engine"
	"github.com/shaiso/Colony/internal/orchestrator"
	"github.com/shaiso/Colony/internal/swarm"
)

const graphYAML = `
id: g-cli
nodes:
  - id: A
    handler: echo
    config:
      v: 1
  - id: B
  - id: C
    handler: echo
edges:
  - from: A
    to: B
  - from: B
    to: C
`

const swarmYAML = `
topology: mesh
roles:
  - name: a
  - name: b
  - name: c
`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newLocal() *Local {
	return NewLocal(orchestrator.New(orchestrator.Config{Logger: discardLogger()}))
}

func newRemote(t *testing.T) *Client {
	t.Helper()

	orch := orchestrator.New(orchestrator.Config{Logger: discardLogger()})
	mux := http.NewServeMux()
	api.NewHandler(api.Config{Orchestrator: orch, Logger: discardLogger()}).RegisterRoutes(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL + "/")
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// execute запускает команду и возвращает stdout и stderr.
func execute(t *testing.T, factory func(func() (Backend, error), func() *Output) *cobra.Command, backend Backend, jsonMode bool, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := factory(
		func() (Backend, error) { return backend, nil },
		func() *Output { return NewOutputTo(&stdout, &stderr, jsonMode) },
	)
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

// --- Graph ---

func TestGraphRun(t *testing.T) {
	path := writeFile(t, "graph.yaml", graphYAML)

	backends := map[string]Backend{
		"local":  newLocal(),
		"remote": newRemote(t),
	}
	for name, backend := range backends {
		t.Run(name, func(t *testing.T) {
			stdout, stderr, err := execute(t, NewGraphCmd, backend, true, "run", path)
			if err != nil {
				t.Fatalf("graph run: %v", err)
			}

			var snap engine.GraphSnapshot
			if err := json.Unmarshal([]byte(stdout), &snap); err != nil {
				t.Fatalf("decode output %q: %v", stdout, err)
			}
			if snap.State != domain.GraphStateCompleted {
				t.Errorf("expected COMPLETED, got %s", snap.State)
			}
			if len(snap.Nodes) != 3 {
				t.Errorf("expected 3 nodes, got %d", len(snap.Nodes))
			}
			if !strings.Contains(stderr, "Graph g-cli COMPLETED") {
				t.Errorf("unexpected stderr: %q", stderr)
			}
		})
	}
}

func TestGraphRun_TableOutput(t *testing.T) {
	path := writeFile(t, "graph.yaml", graphYAML)

	stdout, _, err := execute(t, NewGraphCmd, newLocal(), false, "run", path)
	if err != nil {
		t.Fatalf("graph run: %v", err)
	}
	if !strings.HasPrefix(stdout, "NODE") {
		t.Errorf("expected table header, got %q", stdout)
	}
	for _, id := range []string{"A", "B", "C"} {
		if !strings.Contains(stdout, "\n"+id+" ") {
			t.Errorf("node %s missing from table:\n%s", id, stdout)
		}
	}
}

func TestGraphRun_Cycle(t *testing.T) {
	path := writeFile(t, "cycle.json", `{
		"nodes": [{"id": "A"}, {"id": "B"}],
		"edges": [{"from": "A", "to": "B"}, {"from": "B", "to": "A"}]
	}`)

	_, _, err := execute(t, NewGraphCmd, newLocal(), true, "run", path)
	if !errors.Is(err, engine.ErrCyclicDependency) {
		t.Fatalf("expected ErrCyclicDependency, got %v", err)
	}

	_, _, err = execute(t, NewGraphCmd, newRemote(t), true, "run", path)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 APIError, got %v", err)
	}
}

func TestGraphRun_Stdin(t *testing.T) {
	old := stdin
	stdin = strings.NewReader(graphYAML)
	defer func() { stdin = old }()

	_, _, err := execute(t, NewGraphCmd, newLocal(), true, "run", "-")
	if err != nil {
		t.Fatalf("graph run from stdin: %v", err)
	}
}

func TestGraphOrder_Remote(t *testing.T) {
	client := newRemote(t)
	ctx := context.Background()

	if _, err := client.SubmitGraph(ctx, []byte(graphYAML)); err != nil {
		t.Fatalf("SubmitGraph: %v", err)
	}

	order, err := client.GraphOrder(ctx, "g-cli")
	if err != nil {
		t.Fatalf("GraphOrder: %v", err)
	}
	if strings.Join(order, ",") != "A,B,C" {
		t.Errorf("expected A,B,C, got %v", order)
	}

	stdout, _, err := execute(t, NewGraphCmd, client, false, "show", "g-cli")
	if err != nil {
		t.Fatalf("graph show: %v", err)
	}
	if !strings.Contains(stdout, "COMPLETED") {
		t.Errorf("expected COMPLETED in output:\n%s", stdout)
	}
}

func TestClient_NotFound(t *testing.T) {
	client := newRemote(t)

	_, err := client.GetGraph(context.Background(), "missing")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T: %v", err, err)
	}
	if apiErr.Status != http.StatusNotFound || apiErr.Code != "NOT_FOUND" {
		t.Errorf("unexpected error: %+v", apiErr)
	}
}

// --- Swarm ---

func TestSwarmRun(t *testing.T) {
	path := writeFile(t, "swarm.yaml", swarmYAML)

	backends := map[string]Backend{
		"local":  newLocal(),
		"remote": newRemote(t),
	}
	for name, backend := range backends {
		t.Run(name, func(t *testing.T) {
			stdout, _, err := execute(t, NewSwarmCmd, backend, true, "run", path, "--payload", `{"answer": 42}`)
			if err != nil {
				t.Fatalf("swarm run: %v", err)
			}

			var res swarm.TaskResult
			if err := json.Unmarshal([]byte(stdout), &res); err != nil {
				t.Fatalf("decode output %q: %v", stdout, err)
			}
			if res.Consensus == nil || !res.Consensus.Achieved {
				t.Fatalf("expected consensus, got %+v", res.Consensus)
			}
			if res.Consensus.Votes != 3 {
				t.Errorf("expected 3 votes, got %d", res.Consensus.Votes)
			}
			if len(res.AgentResults) != 3 {
				t.Errorf("expected 3 agent results, got %d", len(res.AgentResults))
			}

			// Без --keep swarm удаляется.
			if _, err := backend.GetSwarm(context.Background(), res.SwarmID); err == nil {
				t.Error("expected swarm to be deleted after run")
			}
		})
	}
}

func TestSwarmLifecycle_Remote(t *testing.T) {
	client := newRemote(t)
	path := writeFile(t, "swarm.yaml", swarmYAML)
	ctx := context.Background()

	stdout, _, err := execute(t, NewSwarmCmd, client, true, "create", path)
	if err != nil {
		t.Fatalf("swarm create: %v", err)
	}
	var snap swarm.SwarmSnapshot
	if err := json.Unmarshal([]byte(stdout), &snap); err != nil {
		t.Fatalf("decode output %q: %v", stdout, err)
	}

	stdout, _, err = execute(t, NewSwarmCmd, client, true, "add-agent", snap.ID, "--role", "d", "--capability", "search")
	if err != nil {
		t.Fatalf("add-agent: %v", err)
	}
	var agent swarm.Agent
	if err := json.Unmarshal([]byte(stdout), &agent); err != nil {
		t.Fatalf("decode agent %q: %v", stdout, err)
	}
	if agent.Role != "d" || !agent.HasCapability("search") {
		t.Errorf("unexpected agent: %+v", agent)
	}

	if _, _, err := execute(t, NewSwarmCmd, client, true, "remove-agent", snap.ID, agent.ID); err != nil {
		t.Fatalf("remove-agent: %v", err)
	}

	got, err := client.GetSwarm(ctx, snap.ID)
	if err != nil {
		t.Fatalf("GetSwarm: %v", err)
	}
	if len(got.Agents) != 3 {
		t.Errorf("expected 3 agents, got %d", len(got.Agents))
	}

	if _, _, err := execute(t, NewSwarmCmd, client, true, "task", snap.ID, "--payload", "plain text"); err != nil {
		t.Fatalf("swarm task: %v", err)
	}

	if _, _, err := execute(t, NewSwarmCmd, client, true, "delete", snap.ID); err != nil {
		t.Fatalf("swarm delete: %v", err)
	}
	if _, err := client.GetSwarm(ctx, snap.ID); err == nil {
		t.Error("expected error after delete")
	}
}

func TestTaskFlags(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    any
	}{
		{"empty", "", nil},
		{"json object", `{"a":1}`, map[string]any{"a": float64(1)}},
		{"json number", "7", float64(7)},
		{"plain string", "hello world", "hello world"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tf := taskFlags{kind: "review", payload: tt.payload}
			task, err := tf.task()
			if err != nil {
				t.Fatalf("task: %v", err)
			}
			if task.Kind != "review" {
				t.Errorf("expected kind review, got %s", task.Kind)
			}
			got, _ := json.Marshal(task.Payload)
			want, _ := json.Marshal(tt.want)
			if !bytes.Equal(got, want) {
				t.Errorf("payload: got %s, want %s", got, want)
			}
		})
	}
}

// --- Solve & consensus ---

func TestSolve(t *testing.T) {
	backends := map[string]Backend{
		"local":  newLocal(),
		"remote": newRemote(t),
	}
	for name, backend := range backends {
		t.Run(name, func(t *testing.T) {
			stdout, _, err := execute(t, NewSolveCmd, backend, false,
				"binary_search", "--params", `{"array": [1, 3, 5, 7], "target": 5}`)
			if err != nil {
				t.Fatalf("solve: %v", err)
			}

			var res struct {
				Found bool `json:"found"`
				Index int  `json:"index"`
			}
			if err := json.Unmarshal([]byte(stdout), &res); err != nil {
				t.Fatalf("decode output %q: %v", stdout, err)
			}
			if !res.Found || res.Index != 2 {
				t.Errorf("expected index 2, got %+v", res)
			}
		})
	}
}

func TestSolve_List(t *testing.T) {
	stdout, _, err := execute(t, NewSolveCmd, newLocal(), true)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}

	var names []string
	if err := json.Unmarshal([]byte(stdout), &names); err != nil {
		t.Fatalf("decode output %q: %v", stdout, err)
	}
	found := false
	for _, n := range names {
		if n == "shortest_path" {
			found = true
		}
	}
	if !found {
		t.Errorf("shortest_path not listed: %v", names)
	}
}

func TestSolve_ParamsFile(t *testing.T) {
	path := writeFile(t, "params.json", `{"array": [2, 4, 6], "target": 4}`)

	_, _, err := execute(t, NewSolveCmd, newLocal(), true, "jump_search", "--params", "@"+path)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
}

func TestSolve_InvalidParams(t *testing.T) {
	_, _, err := execute(t, NewSolveCmd, newLocal(), true, "binary_search", "--params", "{not json")
	if err == nil {
		t.Fatal("expected error for invalid JSON params")
	}
}

func TestConsensusCmd(t *testing.T) {
	backends := map[string]Backend{
		"local":  newLocal(),
		"remote": newRemote(t),
	}
	for name, backend := range backends {
		t.Run(name, func(t *testing.T) {
			stdout, _, err := execute(t, NewConsensusCmd, backend, true, "yes", "yes", "no")
			if err != nil {
				t.Fatalf("consensus: %v", err)
			}

			var res domain.ConsensusResult
			if err := json.Unmarshal([]byte(stdout), &res); err != nil {
				t.Fatalf("decode output %q: %v", stdout, err)
			}
			if !res.Achieved || res.Result != "yes" || res.Votes != 2 || res.Total != 3 {
				t.Errorf("unexpected result: %+v", res)
			}
		})
	}
}

func TestConsensusCmd_InvalidThreshold(t *testing.T) {
	_, _, err := execute(t, NewConsensusCmd, newLocal(), true, "--threshold", "1.5", "a")
	if !errors.Is(err, swarm.ErrInvalidThreshold) {
		t.Fatalf("expected ErrInvalidThreshold, got %v", err)
	}
}

func TestReadParams(t *testing.T) {
	raw, err := readParams("")
	if err != nil || raw != nil {
		t.Errorf("empty: got %s, %v", raw, err)
	}

	if _, err := readParams("@/nonexistent/params.json"); err == nil {
		t.Error("expected error for missing file")
	}

	raw, err = readParams(`  {"k": "v"}  `)
	if err != nil {
		t.Fatalf("readParams: %v", err)
	}
	if string(raw) != `{"k": "v"}` {
		t.Errorf("unexpected raw: %s", raw)
	}
}

func TestOutput_TaskResultTable(t *testing.T) {
	var stdout, stderr bytes.Buffer
	out := NewOutputTo(&stdout, &stderr, false)

	out.TaskResult(&swarm.TaskResult{
		TaskID:   "t1",
		Topology: domain.TopologyMesh,
		Result:   strings.Repeat("x", 100),
		AgentResults: []swarm.AgentResult{
			{AgentID: "a-1", Role: "a", Kind: "task", Result: map[string]any{"n": 1}},
			{AgentID: "b-1", Role: "b", Kind: "task", Error: "boom"},
		},
		FailedAgents: []string{"b-1"},
		Consensus:    &domain.ConsensusResult{Achieved: true, Confidence: 0.5},
	})

	got := stdout.String()
	for _, want := range []string{"AGENT", `{"n":1}`, "boom", "failed", "b-1", "0.50"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, strings.Repeat("x", 100)) {
		t.Errorf("long result must be truncated:\n%s", got)
	}
	if !strings.Contains(got, strings.Repeat("x", cellWidth-3)+"...") {
		t.Errorf("expected truncated result of width %d:\n%s", cellWidth, got)
	}
	if stderr.Len() != 0 {
		t.Errorf("unexpected stderr: %q", stderr.String())
	}
}

func TestOutput_OrderAndSwarm(t *testing.T) {
	var stdout, stderr bytes.Buffer
	out := NewOutputTo(&stdout, &stderr, false)

	out.Order([]string{"A", "B"})
	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	if len(lines) != 4 || !strings.HasPrefix(lines[2], "1  A") || !strings.HasPrefix(lines[3], "2  B") {
		t.Errorf("unexpected order table:\n%s", stdout.String())
	}

	stdout.Reset()
	out.Swarm(swarm.SwarmSnapshot{
		ID:       "s1",
		Topology: domain.TopologyMesh,
		Agents:   []swarm.Agent{{ID: "a-1", Role: "a", State: domain.AgentStateReady}},
	})
	if !strings.Contains(stdout.String(), "READY") {
		t.Errorf("expected agent row:\n%s", stdout.String())
	}
	if !strings.Contains(stderr.String(), "Swarm s1 (mesh, 1 agents)") {
		t.Errorf("unexpected stderr: %q", stderr.String())
	}
}

func TestOutput_JSONMode(t *testing.T) {
	var stdout, stderr bytes.Buffer
	out := NewOutputTo(&stdout, &stderr, true)

	out.Graph(engine.GraphSnapshot{ID: "g1", Nodes: []engine.NodeSnapshot{{ID: "A", State: domain.NodeStateCompleted}}})

	var snap engine.GraphSnapshot
	if err := json.Unmarshal(stdout.Bytes(), &snap); err != nil {
		t.Fatalf("decode output %q: %v", stdout.String(), err)
	}
	if snap.ID != "g1" || len(snap.Nodes) != 1 {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
	if stderr.Len() != 0 {
		t.Errorf("json mode must not print notices for graphs: %q", stderr.String())
	}
}
