package executor

import (
	"context"
	"fmt"

	"github.com/shaiso/Colony/internal/domain"
	"github.com/shaiso/Colony/internal/solver"
	"github.com/shaiso/Colony/internal/swarm"
)

// SolverExecutor выполняет алгоритм solver'а как задачу агента.
//
// Payload:
//
//	{"algorithm": "csp", "params": {...}}
type SolverExecutor struct{}

// ExecuteTask вызывает solver.Run.
func (SolverExecutor) ExecuteTask(ctx context.Context, _ swarm.Agent, task domain.Task) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	payload, err := payloadMap(task.Payload)
	if err != nil {
		return nil, err
	}

	name := getString(payload, "algorithm", "")
	if name == "" {
		return nil, fmt.Errorf("%w: algorithm is required", ErrInvalidPayload)
	}
	return solver.Run(name, payload["params"])
}
