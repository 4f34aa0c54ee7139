package executor

import (
	"context"
	"time"

	"github.com/shaiso/Colony/internal/domain"
	"github.com/shaiso/Colony/internal/swarm"
)

// DelayExecutor ожидает указанное время. Поддерживает отмену через context.
//
// Payload:
//   - duration_ms (number): длительность в миллисекундах
//   - duration_sec (number): длительность в секундах (если duration_ms не задан)
//
// По умолчанию — 1 секунда.
type DelayExecutor struct{}

// ExecuteTask выполняет задержку.
func (DelayExecutor) ExecuteTask(ctx context.Context, _ swarm.Agent, task domain.Task) (any, error) {
	payload, err := payloadMap(task.Payload)
	if err != nil {
		return nil, err
	}

	duration := time.Second
	if ms, ok := getFloat(payload, "duration_ms"); ok && ms > 0 {
		duration = time.Duration(ms * float64(time.Millisecond))
	} else if sec, ok := getFloat(payload, "duration_sec"); ok && sec > 0 {
		duration = time.Duration(sec * float64(time.Second))
	}

	timer := time.NewTimer(duration)
	defer timer.Stop()

	// Context-aware ожидание
	select {
	case <-timer.C:
		return map[string]any{"delayed_ms": duration.Milliseconds()}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
