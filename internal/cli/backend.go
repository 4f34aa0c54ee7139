package cli

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/shaiso/Colony/internal/config"
	"github.com/shaiso/Colony/internal/domain"
	"github.com/shaiso/Colony/internal/engine"
	"github.com/shaiso/Colony/internal/executor"
	"github.com/shaiso/Colony/internal/orchestrator"
	"github.com/shaiso/Colony/internal/solver"
	"github.com/shaiso/Colony/internal/swarm"
)

// Backend — то, через что работают команды CLI.
//
// Реализации: Client (удалённый сервер по --api-url) и Local (orchestrator в процессе).
type Backend interface {
	SubmitGraph(ctx context.Context, spec []byte) (engine.GraphSnapshot, error)
	GetGraph(ctx context.Context, id string) (engine.GraphSnapshot, error)
	GraphOrder(ctx context.Context, id string) ([]string, error)

	CreateSwarm(ctx context.Context, spec []byte) (swarm.SwarmSnapshot, error)
	GetSwarm(ctx context.Context, id string) (swarm.SwarmSnapshot, error)
	DeleteSwarm(ctx context.Context, id string) error
	AddAgent(ctx context.Context, swarmID string, role domain.RoleSpec) (swarm.Agent, error)
	RemoveAgent(ctx context.Context, swarmID, agentID string) error
	DispatchTask(ctx context.Context, swarmID string, task domain.Task) (*swarm.TaskResult, error)

	Consensus(ctx context.Context, results []any, threshold float64) (domain.ConsensusResult, error)
	Solve(ctx context.Context, algorithm string, params json.RawMessage) (any, error)
	Algorithms(ctx context.Context) ([]string, error)
}

// OrchestratorConfig собирает конфигурацию orchestrator из конфигурации приложения.
// Notifier и Journal заполняет вызывающий.
func OrchestratorConfig(cfg *config.Config, logger *slog.Logger) orchestrator.Config {
	var gateway *executor.GatewayExecutor
	if cfg.Gateway.URL != "" {
		gateway = &executor.GatewayExecutor{
			URL:     cfg.Gateway.URL,
			Headers: cfg.Gateway.Headers,
			Timeout: cfg.Gateway.Timeout,
		}
	}

	return orchestrator.Config{
		Handlers:      orchestrator.DefaultHandlers(gateway),
		Executor:      orchestrator.DefaultExecutor(gateway),
		Mode:          domain.ParseExecutionMode(cfg.Engine.Mode),
		MaxParallel:   cfg.Engine.MaxParallel,
		GraphTTL:      cfg.Registry.GraphTTL,
		SwarmTTL:      cfg.Registry.SwarmTTL,
		MaxGraphs:     cfg.Registry.MaxGraphs,
		MaxSwarms:     cfg.Registry.MaxSwarms,
		SweepSchedule: cfg.Registry.SweepSchedule,
		Logger:        logger,
	}
}

// Local выполняет команды в текущем процессе.
type Local struct {
	orch *orchestrator.Orchestrator
}

var _ Backend = (*Local)(nil)

// NewLocal создаёт Local поверх orchestrator.
func NewLocal(orch *orchestrator.Orchestrator) *Local {
	return &Local{orch: orch}
}

func (l *Local) SubmitGraph(ctx context.Context, data []byte) (engine.GraphSnapshot, error) {
	spec, err := engine.ParseGraphSpec(data)
	if err != nil {
		return engine.GraphSnapshot{}, err
	}
	return l.orch.SubmitGraph(ctx, spec)
}

func (l *Local) GetGraph(_ context.Context, id string) (engine.GraphSnapshot, error) {
	return l.orch.GetGraph(id)
}

func (l *Local) GraphOrder(_ context.Context, id string) ([]string, error) {
	return l.orch.GraphOrder(id)
}

func (l *Local) CreateSwarm(ctx context.Context, data []byte) (swarm.SwarmSnapshot, error) {
	spec, err := swarm.ParseSwarmSpec(data)
	if err != nil {
		return swarm.SwarmSnapshot{}, err
	}
	return l.orch.CreateSwarm(ctx, spec)
}

func (l *Local) GetSwarm(_ context.Context, id string) (swarm.SwarmSnapshot, error) {
	return l.orch.GetSwarm(id)
}

func (l *Local) DeleteSwarm(ctx context.Context, id string) error {
	return l.orch.DeleteSwarm(ctx, id)
}

func (l *Local) AddAgent(ctx context.Context, swarmID string, role domain.RoleSpec) (swarm.Agent, error) {
	return l.orch.AddAgent(ctx, swarmID, role)
}

func (l *Local) RemoveAgent(ctx context.Context, swarmID, agentID string) error {
	return l.orch.RemoveAgent(ctx, swarmID, agentID)
}

func (l *Local) DispatchTask(ctx context.Context, swarmID string, task domain.Task) (*swarm.TaskResult, error) {
	return l.orch.DispatchTask(ctx, swarmID, task)
}

func (l *Local) Consensus(_ context.Context, results []any, threshold float64) (domain.ConsensusResult, error) {
	if threshold == 0 {
		threshold = swarm.DefaultConsensusThreshold
	}
	if threshold < 0 || threshold > 1 {
		return domain.ConsensusResult{}, swarm.ErrInvalidThreshold
	}
	return swarm.AchieveConsensus(results, threshold), nil
}

func (l *Local) Solve(_ context.Context, algorithm string, params json.RawMessage) (any, error) {
	if len(params) == 0 {
		params = json.RawMessage("{}")
	}
	return solver.Run(algorithm, params)
}

func (l *Local) Algorithms(context.Context) ([]string, error) {
	return solver.Algorithms(), nil
}
