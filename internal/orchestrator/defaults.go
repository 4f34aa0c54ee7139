package orchestrator

import (
	"github.com/shaiso/Colony/internal/engine"
	"github.com/shaiso/Colony/internal/executor"
	"github.com/shaiso/Colony/internal/solver"
	"github.com/shaiso/Colony/internal/swarm"
)

// Имена стандартных handler'ов узлов и видов задач.
const (
	KindEcho    = "echo"
	KindHTTP    = "http"
	KindDelay   = "delay"
	KindSolve   = "solve"
	KindGateway = "gateway"
)

// DefaultExecutor собирает реестр executor'ов.
//
// Если gateway задан, он выполняет все задачи без собственного executor'а
// (в том числе aggregate, decompose и synthesize). Иначе такие задачи
// возвращают свой payload.
func DefaultExecutor(gateway *executor.GatewayExecutor) *executor.Registry {
	var fallback swarm.TaskExecutor = executor.EchoExecutor{}
	if gateway != nil {
		fallback = *gateway
	}

	reg := executor.NewRegistry(fallback)
	reg.Register(KindEcho, executor.EchoExecutor{})
	reg.Register(KindHTTP, executor.HTTPExecutor{})
	reg.Register(KindDelay, executor.DelayExecutor{})
	reg.Register(KindSolve, executor.SolverExecutor{})
	if gateway != nil {
		reg.Register(KindGateway, *gateway)
	}
	return reg
}

// DefaultHandlers собирает реестр handler'ов узлов графа:
// solver, echo, http, delay и (если задан gateway) gateway.
func DefaultHandlers(gateway *executor.GatewayExecutor) *engine.Registry {
	reg := engine.NewRegistry()
	reg.Register(solver.HandlerName, solver.NodeHandler())
	reg.Register(KindEcho, executor.AsNodeHandler(executor.EchoExecutor{}, KindEcho))
	reg.Register(KindHTTP, executor.AsNodeHandler(executor.HTTPExecutor{}, KindHTTP))
	reg.Register(KindDelay, executor.AsNodeHandler(executor.DelayExecutor{}, KindDelay))
	if gateway != nil {
		reg.Register(KindGateway, executor.AsNodeHandler(*gateway, KindGateway))
	}
	return reg
}
