package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shaiso/Colony/internal/domain"
	"github.com/shaiso/Colony/internal/engine"
	"github.com/shaiso/Colony/internal/swarm"
)

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// APIError — ошибка, которую вернул сервер.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("API error: HTTP %d", e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

type graphOrderResponse struct {
	GraphID string   `json:"graph_id"`
	Order   []string `json:"order"`
}

type solveResponse struct {
	Algorithm string `json:"algorithm"`
	Result    any    `json:"result"`
}

type consensusRequest struct {
	Results   []any    `json:"results"`
	Threshold *float64 `json:"threshold,omitempty"`
}

// --- Client ---

// Client — HTTP-клиент для Colony API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ Backend = (*Client)(nil)

// NewClient создаёт клиент для API.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
}

// --- Graphs ---

// SubmitGraph отправляет спецификацию графа (JSON или YAML) и ждёт завершения.
func (c *Client) SubmitGraph(ctx context.Context, spec []byte) (engine.GraphSnapshot, error) {
	var snap engine.GraphSnapshot
	err := c.doData(ctx, http.MethodPost, "/api/v1/graphs", spec, &snap)
	return snap, err
}

// GetGraph возвращает снимок графа.
func (c *Client) GetGraph(ctx context.Context, id string) (engine.GraphSnapshot, error) {
	var snap engine.GraphSnapshot
	err := c.get(ctx, "/api/v1/graphs/"+id, &snap)
	return snap, err
}

// GraphOrder возвращает топологический порядок узлов.
func (c *Client) GraphOrder(ctx context.Context, id string) ([]string, error) {
	var resp graphOrderResponse
	if err := c.get(ctx, "/api/v1/graphs/"+id+"/order", &resp); err != nil {
		return nil, err
	}
	return resp.Order, nil
}

// --- Swarms ---

// CreateSwarm создаёт swarm по спецификации (JSON или YAML).
func (c *Client) CreateSwarm(ctx context.Context, spec []byte) (swarm.SwarmSnapshot, error) {
	var snap swarm.SwarmSnapshot
	err := c.doData(ctx, http.MethodPost, "/api/v1/swarms", spec, &snap)
	return snap, err
}

// GetSwarm возвращает снимок swarm.
func (c *Client) GetSwarm(ctx context.Context, id string) (swarm.SwarmSnapshot, error) {
	var snap swarm.SwarmSnapshot
	err := c.get(ctx, "/api/v1/swarms/"+id, &snap)
	return snap, err
}

// DeleteSwarm удаляет swarm.
func (c *Client) DeleteSwarm(ctx context.Context, id string) error {
	return c.delete(ctx, "/api/v1/swarms/"+id)
}

// AddAgent добавляет агента в swarm.
func (c *Client) AddAgent(ctx context.Context, swarmID string, role domain.RoleSpec) (swarm.Agent, error) {
	var agent swarm.Agent
	err := c.post(ctx, "/api/v1/swarms/"+swarmID+"/agents", role, &agent)
	return agent, err
}

// RemoveAgent удаляет агента из swarm.
func (c *Client) RemoveAgent(ctx context.Context, swarmID, agentID string) error {
	return c.delete(ctx, "/api/v1/swarms/"+swarmID+"/agents/"+agentID)
}

// DispatchTask отправляет задачу swarm'у.
func (c *Client) DispatchTask(ctx context.Context, swarmID string, task domain.Task) (*swarm.TaskResult, error) {
	var res swarm.TaskResult
	if err := c.post(ctx, "/api/v1/swarms/"+swarmID+"/tasks", task, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// --- Consensus & solver ---

// Consensus считает консенсус на сервере. threshold <= 0 — порог по умолчанию.
func (c *Client) Consensus(ctx context.Context, results []any, threshold float64) (domain.ConsensusResult, error) {
	req := consensusRequest{Results: results}
	if threshold > 0 {
		req.Threshold = &threshold
	}
	var res domain.ConsensusResult
	err := c.post(ctx, "/api/v1/consensus", req, &res)
	return res, err
}

// Solve запускает алгоритм solver на сервере.
func (c *Client) Solve(ctx context.Context, algorithm string, params json.RawMessage) (any, error) {
	if len(params) == 0 {
		params = json.RawMessage("{}")
	}
	var resp solveResponse
	if err := c.doData(ctx, http.MethodPost, "/api/v1/solve/"+algorithm, params, &resp); err != nil {
		return nil, err
	}
	return resp.Result, nil
}

// Algorithms возвращает имена алгоритмов solver.
func (c *Client) Algorithms(ctx context.Context) ([]string, error) {
	var names []string
	err := c.get(ctx, "/api/v1/solve", &names)
	return names, err
}

// --- HTTP helpers ---

func (c *Client) get(ctx context.Context, path string, result any) error {
	return c.doData(ctx, http.MethodGet, path, nil, result)
}

func (c *Client) post(ctx context.Context, path string, body any, result any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	return c.doData(ctx, http.MethodPost, path, data, result)
}

func (c *Client) delete(ctx context.Context, path string) error {
	resp, err := c.do(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return c.checkError(resp)
}

func (c *Client) doData(ctx context.Context, method, path string, body []byte, result any) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	// 204 No Content
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if result != nil {
		return json.Unmarshal(dr.Data, result)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	apiErr := &APIError{Status: resp.StatusCode}
	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err == nil {
		apiErr.Code = er.Error.Code
		apiErr.Message = er.Error.Message
	}
	return apiErr
}
