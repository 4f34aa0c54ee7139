package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shaiso/Colony/internal/domain"
	"github.com/shaiso/Colony/internal/swarm"
)

const defaultHTTPTimeout = 30 * time.Second

// HTTPExecutor выполняет HTTP-запрос, описанный в payload задачи.
//
// Payload:
//   - method (string): HTTP-метод (GET, POST, PUT, DELETE). Default: GET
//   - url (string): URL для запроса (обязательно)
//   - headers (map[string]any): HTTP-заголовки
//   - body (any): тело запроса (сериализуется в JSON)
//   - timeout_sec (number): таймаут запроса в секундах. Default: 30
//
// Результат:
//   - status_code (int): HTTP-код ответа
//   - headers (map[string]string): заголовки ответа
//   - body (any): тело ответа (JSON или строка)
//
// Ответ с кодом >= 400 — ошибка задачи.
type HTTPExecutor struct {
	// Client — HTTP-клиент. nil — http.DefaultClient.
	Client *http.Client
}

// ExecuteTask выполняет HTTP-запрос.
func (e HTTPExecutor) ExecuteTask(ctx context.Context, _ swarm.Agent, task domain.Task) (any, error) {
	payload, err := payloadMap(task.Payload)
	if err != nil {
		return nil, err
	}

	method := getString(payload, "method", http.MethodGet)
	url := getString(payload, "url", "")
	if url == "" {
		return nil, fmt.Errorf("%w: url is required", ErrHTTPRequest)
	}

	ctx, cancel := context.WithTimeout(ctx, getTimeout(payload))
	defer cancel()

	var bodyReader io.Reader
	if body, ok := payload["body"]; ok && body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%w: marshal body: %v", ErrHTTPRequest, err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrHTTPRequest, err)
	}
	setHeaders(req, payload)
	if bodyReader != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := clientOrDefault(e.Client).Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHTTPRequest, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrHTTPRequest, err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: HTTP %d: %s", ErrHTTPRequest, resp.StatusCode, truncate(string(respBody), 200))
	}

	headers := make(map[string]string, len(resp.Header))
	for key := range resp.Header {
		headers[key] = resp.Header.Get(key)
	}

	return map[string]any{
		"status_code": resp.StatusCode,
		"headers":     headers,
		"body":        parseBody(respBody),
	}, nil
}

// GatewayExecutor отправляет задачу агента во внешний gateway.
//
// Тело запроса — JSON {"agent": {...}, "task": {...}}. Ответ разбирается
// как JSON (иначе строка) и становится результатом агента.
type GatewayExecutor struct {
	URL     string
	Headers map[string]string
	Timeout time.Duration
	Client  *http.Client
}

// gatewayAgent — представление агента для gateway.
type gatewayAgent struct {
	ID            string   `json:"id"`
	SwarmID       string   `json:"swarm_id"`
	Role          string   `json:"role"`
	Type          string   `json:"type,omitempty"`
	Capabilities  []string `json:"capabilities,omitempty"`
	IsCoordinator bool     `json:"is_coordinator,omitempty"`
}

type gatewayRequest struct {
	Agent gatewayAgent `json:"agent"`
	Task  domain.Task  `json:"task"`
}

// ExecuteTask реализует swarm.TaskExecutor.
func (e GatewayExecutor) ExecuteTask(ctx context.Context, agent swarm.Agent, task domain.Task) (any, error) {
	if e.URL == "" {
		return nil, fmt.Errorf("%w: gateway url is not configured", ErrGateway)
	}

	body, err := json.Marshal(gatewayRequest{
		Agent: gatewayAgent{
			ID:            agent.ID,
			SwarmID:       agent.SwarmID,
			Role:          agent.Role,
			Type:          agent.Type,
			Capabilities:  agent.Capabilities,
			IsCoordinator: agent.IsCoordinator,
		},
		Task: task,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", ErrGateway, err)
	}

	timeout := e.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrGateway, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range e.Headers {
		req.Header.Set(k, v)
	}

	resp, err := clientOrDefault(e.Client).Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrGateway, err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: HTTP %d: %s", ErrGateway, resp.StatusCode, truncate(string(respBody), 200))
	}

	return parseBody(respBody), nil
}

func clientOrDefault(c *http.Client) *http.Client {
	if c != nil {
		return c
	}
	return http.DefaultClient
}

// parseBody пробует JSON, иначе возвращает строку.
func parseBody(body []byte) any {
	var parsed any
	if err := json.Unmarshal(body, &parsed); err != nil {
		return string(body)
	}
	return parsed
}

// getTimeout извлекает таймаут из payload.
func getTimeout(payload map[string]any) time.Duration {
	if v, ok := getFloat(payload, "timeout_sec"); ok && v > 0 {
		return time.Duration(v * float64(time.Second))
	}
	return defaultHTTPTimeout
}

// setHeaders устанавливает заголовки из payload.
func setHeaders(req *http.Request, payload map[string]any) {
	switch h := payload["headers"].(type) {
	case map[string]any:
		for key, val := range h {
			if s, ok := val.(string); ok {
				req.Header.Set(key, s)
			}
		}
	case map[string]string:
		for key, val := range h {
			req.Header.Set(key, val)
		}
	}
}

// truncate обрезает строку до указанной длины.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
