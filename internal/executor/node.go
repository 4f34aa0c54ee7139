package executor

import (
	"context"
	"maps"

	"github.com/google/uuid"

	"github.com/shaiso/Colony/internal/domain"
	"github.com/shaiso/Colony/internal/engine"
	"github.com/shaiso/Colony/internal/swarm"
)

// NodeAgentRole — роль синтетического агента, от имени которого
// узел графа вызывает executor.
const NodeAgentRole = "graph-node"

// AsNodeHandler превращает executor в handler узла графа.
//
// Payload задачи — копия config узла; результаты зависимостей
// подставляются под ключом inputs, если config его не задаёт.
func AsNodeHandler(executor swarm.TaskExecutor, kind string) engine.Handler {
	return engine.HandlerFunc(func(ctx context.Context, inputs, config map[string]any) (any, error) {
		payload := maps.Clone(config)
		if payload == nil {
			payload = make(map[string]any)
		}
		if _, ok := payload["inputs"]; !ok && len(inputs) > 0 {
			payload["inputs"] = inputs
		}

		task := domain.Task{
			ID:      uuid.NewString(),
			Kind:    kind,
			Payload: payload,
		}
		agent := swarm.Agent{ID: NodeAgentRole, Role: NodeAgentRole}

		return executor.ExecuteTask(ctx, agent, task)
	})
}
