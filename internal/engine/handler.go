package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Handler выполняет работу узла.
//
// inputs — результаты зависимостей (nodeID → result), config — Config узла.
// Handler должен проверять ctx.Done() для отмены.
type Handler interface {
	Handle(ctx context.Context, inputs map[string]any, config map[string]any) (any, error)
}

// HandlerFunc — адаптер функции к Handler.
type HandlerFunc func(ctx context.Context, inputs map[string]any, config map[string]any) (any, error)

// Handle реализует Handler.
func (f HandlerFunc) Handle(ctx context.Context, inputs map[string]any, config map[string]any) (any, error) {
	return f(ctx, inputs, config)
}

// WithTimeout ограничивает время выполнения handler'а.
//
// Scheduler сам таймауты не применяет: обёртку ставит вызывающий.
// По истечении d возвращается ErrHandlerTimeout, даже если handler
// не проверяет ctx.
func WithTimeout(h Handler, d time.Duration) Handler {
	return HandlerFunc(func(ctx context.Context, inputs, config map[string]any) (any, error) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()

		type outcome struct {
			result any
			err    error
		}
		done := make(chan outcome, 1)

		go func() {
			result, err := h.Handle(ctx, inputs, config)
			done <- outcome{result, err}
		}()

		select {
		case o := <-done:
			return o.result, o.err
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w after %s", ErrHandlerTimeout, d)
			}
			return nil, ctx.Err()
		}
	})
}

// Registry — реестр handler'ов по имени.
//
// GraphSpec ссылается на handler'ы по имени. Потокобезопасен.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry создаёт пустой реестр.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
	}
}

// Register регистрирует handler.
// Если handler с таким именем уже существует, он будет перезаписан.
func (r *Registry) Register(name string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = h
}

// Get возвращает handler по имени.
// Возвращает ErrUnknownHandler, если handler не найден.
func (r *Registry) Get(name string) (Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, exists := r.handlers[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownHandler, name)
	}
	return h, nil
}

// Has проверяет, зарегистрирован ли handler.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.handlers[name]
	return exists
}

// Names возвращает отсортированный список имён handler'ов.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Unregister удаляет handler из реестра.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handlers, name)
}

// ConfigString извлекает строковое значение из конфига.
func ConfigString(config map[string]any, key string) string {
	if v, ok := config[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// ConfigInt извлекает числовое значение из конфига.
func ConfigInt(config map[string]any, key string) int {
	if v, ok := config[key]; ok {
		switch n := v.(type) {
		case int:
			return n
		case int64:
			return int(n)
		case float64:
			return int(n)
		}
	}
	return 0
}

// ConfigMap извлекает вложенный map из конфига.
func ConfigMap(config map[string]any, key string) map[string]any {
	if v, ok := config[key]; ok {
		if m, ok := v.(map[string]any); ok {
			return m
		}
	}
	return nil
}
