package executor

import (
	"context"

	"github.com/shaiso/Colony/internal/domain"
	"github.com/shaiso/Colony/internal/swarm"
)

// EchoExecutor возвращает payload задачи как результат.
//
// Подходит для aggregate и synthesize задач, где достаточно
// собранного списка результатов, и для детерминированных тестов swarm.
type EchoExecutor struct{}

// ExecuteTask возвращает payload.
func (EchoExecutor) ExecuteTask(ctx context.Context, _ swarm.Agent, task domain.Task) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return task.Payload, nil
}
