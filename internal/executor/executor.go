package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/shaiso/Colony/internal/domain"
	"github.com/shaiso/Colony/internal/swarm"
)

// Registry — реестр executor'ов по виду задачи.
//
// Сам реализует swarm.TaskExecutor. Потокобезопасен.
type Registry struct {
	mu        sync.RWMutex
	executors map[string]swarm.TaskExecutor
	fallback  swarm.TaskExecutor
}

// NewRegistry создаёт реестр с fallback для незарегистрированных видов.
// fallback может быть nil — тогда такие задачи завершаются ErrUnknownKind.
func NewRegistry(fallback swarm.TaskExecutor) *Registry {
	return &Registry{
		executors: make(map[string]swarm.TaskExecutor),
		fallback:  fallback,
	}
}

// Register добавляет executor для вида задачи.
func (r *Registry) Register(kind string, executor swarm.TaskExecutor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.executors[kind] = executor
}

// Get возвращает executor для вида задачи (или fallback).
func (r *Registry) Get(kind string) (swarm.TaskExecutor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if executor, ok := r.executors[kind]; ok {
		return executor, nil
	}
	if r.fallback != nil {
		return r.fallback, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
}

// Kinds возвращает отсортированный список зарегистрированных видов.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]string, 0, len(r.executors))
	for k := range r.executors {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// ExecuteTask реализует swarm.TaskExecutor.
func (r *Registry) ExecuteTask(ctx context.Context, agent swarm.Agent, task domain.Task) (any, error) {
	executor, err := r.Get(task.Kind)
	if err != nil {
		return nil, err
	}
	return executor.ExecuteTask(ctx, agent, task)
}

// payloadMap приводит payload задачи к map.
// Нестандартные типы проходят через JSON.
func payloadMap(payload any) (map[string]any, error) {
	switch p := payload.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return p, nil
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("%w: payload must be an object, got %T", ErrInvalidPayload, payload)
	}
	return m, nil
}

// getString извлекает строку из map с default значением.
func getString(m map[string]any, key, defaultVal string) string {
	if val, ok := m[key]; ok {
		if s, ok := val.(string); ok {
			return s
		}
	}
	return defaultVal
}

// getFloat извлекает число из map.
func getFloat(m map[string]any, key string) (float64, bool) {
	switch v := m[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}
