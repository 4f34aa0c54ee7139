package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/shaiso/Colony/internal/domain"
	"github.com/shaiso/Colony/internal/engine"
	"github.com/shaiso/Colony/internal/events"
	"github.com/shaiso/Colony/internal/registry"
	"github.com/shaiso/Colony/internal/repo"
	"github.com/shaiso/Colony/internal/swarm"
	"github.com/shaiso/Colony/internal/telemetry"
)

// Default configuration values.
const (
	defaultGraphTTL      = time.Hour
	defaultSwarmTTL      = time.Hour
	defaultMaxGraphs     = 1000
	defaultMaxSwarms     = 100
	defaultSweepSchedule = "@every 1m"
	journalTimeout       = 5 * time.Second
)

// Journal — журнал выполнений. Реализуется repo.JournalRepo.
type Journal interface {
	RecordGraphRun(ctx context.Context, rec *repo.GraphRunRecord) error
	RecordSwarmTask(ctx context.Context, rec *repo.SwarmTaskRecord) error
}

// Config — конфигурация Orchestrator.
type Config struct {
	// Handlers — handler'ы узлов графа. nil — DefaultHandlers(nil).
	Handlers *engine.Registry

	// Executor выполняет задачи агентов. nil — DefaultExecutor(nil).
	Executor swarm.TaskExecutor

	// Scheduler
	Mode        domain.ExecutionMode
	MaxParallel int

	// Notifier получает все события вместе с внутренней шиной. Может быть nil.
	Notifier events.Notifier

	// Journal — журнал выполнений. Может быть nil.
	Journal Journal

	// Registries
	GraphTTL      time.Duration // время жизни графа без обращений (default: 1h)
	SwarmTTL      time.Duration // время жизни swarm без обращений (default: 1h)
	MaxGraphs     int           // default: 1000
	MaxSwarms     int           // default: 100
	SweepSchedule string        // cron-расписание очистки (default: @every 1m)

	Logger *slog.Logger
}

// Orchestrator — точка входа для API и CLI.
type Orchestrator struct {
	handlers    *engine.Registry
	scheduler   *engine.Scheduler
	coordinator *swarm.Coordinator

	graphs *registry.Registry[*engine.Graph]
	swarms *registry.Registry[*swarm.Swarm]

	bus      *events.Bus
	notifier events.Notifier
	journal  Journal

	sweepSchedule string
	cron          *cron.Cron

	logger *slog.Logger

	mu      sync.Mutex
	started bool
	stopped bool
}

// New создаёт Orchestrator.
func New(cfg Config) *Orchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Handlers == nil {
		cfg.Handlers = DefaultHandlers(nil)
	}
	if cfg.Executor == nil {
		cfg.Executor = DefaultExecutor(nil)
	}
	if cfg.GraphTTL <= 0 {
		cfg.GraphTTL = defaultGraphTTL
	}
	if cfg.SwarmTTL <= 0 {
		cfg.SwarmTTL = defaultSwarmTTL
	}
	if cfg.MaxGraphs <= 0 {
		cfg.MaxGraphs = defaultMaxGraphs
	}
	if cfg.MaxSwarms <= 0 {
		cfg.MaxSwarms = defaultMaxSwarms
	}
	if cfg.SweepSchedule == "" {
		cfg.SweepSchedule = defaultSweepSchedule
	}

	bus := events.NewBus()
	notifier := events.Multi{bus, cfg.Notifier}

	o := &Orchestrator{
		handlers: cfg.Handlers,
		scheduler: engine.NewScheduler(engine.SchedulerConfig{
			Mode:        cfg.Mode,
			MaxParallel: cfg.MaxParallel,
			Notifier:    notifier,
			Logger:      logger,
		}),
		coordinator: swarm.NewCoordinator(swarm.CoordinatorConfig{
			Executor: cfg.Executor,
			Notifier: notifier,
			Logger:   logger,
		}),
		bus:           bus,
		notifier:      notifier,
		journal:       cfg.Journal,
		sweepSchedule: cfg.SweepSchedule,
		logger:        logger,
	}

	o.graphs = registry.New[*engine.Graph](registry.Config{
		TTL:        cfg.GraphTTL,
		MaxEntries: cfg.MaxGraphs,
		OnEvict:    o.onEvict("graph"),
	})
	o.swarms = registry.New[*swarm.Swarm](registry.Config{
		TTL:        cfg.SwarmTTL,
		MaxEntries: cfg.MaxSwarms,
		OnEvict:    o.onEvict("swarm"),
	})

	return o
}

// Start запускает периодическую очистку реестров.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.stopped {
		return ErrOrchestratorStopped
	}
	if o.started {
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(o.sweepSchedule, func() { o.Sweep() }); err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidSweepSchedule, o.sweepSchedule, err)
	}
	c.Start()

	o.cron = c
	o.started = true
	o.logger.Info("orchestrator started", "sweep_schedule", o.sweepSchedule)

	go func() {
		<-ctx.Done()
		o.Stop()
	}()

	return nil
}

// Stop останавливает очистку и ждёт завершения текущего прохода.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	o.stopped = true
	c := o.cron
	o.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
	o.logger.Info("orchestrator stopped")
}

// Sweep вытесняет просроченные графы и swarm.
func (o *Orchestrator) Sweep() (graphs, swarms int) {
	graphs = o.graphs.Sweep()
	swarms = o.swarms.Sweep()
	if graphs > 0 || swarms > 0 {
		o.logger.Info("registry sweep", "graphs_evicted", graphs, "swarms_evicted", swarms)
	}
	return graphs, swarms
}

// Events возвращает внутреннюю шину событий для подписчиков.
func (o *Orchestrator) Events() *events.Bus {
	return o.bus
}

// Handlers возвращает реестр handler'ов узлов.
func (o *Orchestrator) Handlers() *engine.Registry {
	return o.handlers
}

// Mode возвращает режим выполнения графов.
func (o *Orchestrator) Mode() domain.ExecutionMode {
	return o.scheduler.Mode()
}

func (o *Orchestrator) onEvict(kind string) func(key, reason string) {
	return func(key, reason string) {
		telemetry.RegistryEvictions.WithLabelValues(kind, reason).Inc()
		o.logger.Debug("registry entry evicted", "kind", kind, "id", key, "reason", reason)
	}
}

// journalCtx отвязывает запись журнала от отмены запроса.
func journalCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), journalTimeout)
}

// --- Graphs ---

// SubmitGraph создаёт граф, проверяет его на циклы и выполняет.
//
// Ошибки построения и циклы не сохраняют граф. Граф, завершившийся
// ошибкой выполнения, остаётся доступен через GetGraph.
func (o *Orchestrator) SubmitGraph(ctx context.Context, spec *domain.GraphSpec) (engine.GraphSnapshot, error) {
	g, err := o.CreateGraph(spec)
	if err != nil {
		return engine.GraphSnapshot{}, err
	}

	_, execErr := o.scheduler.Execute(ctx, g)
	snap := g.Snapshot()
	o.recordGraph(ctx, snap)

	return snap, execErr
}

// CreateGraph строит и регистрирует граф без выполнения.
func (o *Orchestrator) CreateGraph(spec *domain.GraphSpec) (*engine.Graph, error) {
	g, err := engine.CreateGraph(spec, o.handlers)
	if err != nil {
		return nil, err
	}
	if err := g.CheckAcyclic(); err != nil {
		return nil, err
	}

	o.graphs.Put(g.ID, g)
	return g, nil
}

// GetGraph возвращает снимок графа.
func (o *Orchestrator) GetGraph(id string) (engine.GraphSnapshot, error) {
	g, ok := o.graphs.Get(id)
	if !ok {
		return engine.GraphSnapshot{}, fmt.Errorf("%w: %s", ErrGraphNotFound, id)
	}
	return g.Snapshot(), nil
}

// GraphOrder возвращает топологический порядок узлов графа.
func (o *Orchestrator) GraphOrder(id string) ([]string, error) {
	g, ok := o.graphs.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGraphNotFound, id)
	}
	return g.TopologicalOrder()
}

func (o *Orchestrator) recordGraph(ctx context.Context, snap engine.GraphSnapshot) {
	if o.journal == nil {
		return
	}

	ctx, cancel := journalCtx(ctx)
	defer cancel()

	err := o.journal.RecordGraphRun(ctx, &repo.GraphRunRecord{
		GraphID:    snap.ID,
		Name:       snap.Name,
		Mode:       string(o.scheduler.Mode()),
		State:      string(snap.State),
		NodeCount:  len(snap.Nodes),
		Results:    snap.Results,
		Error:      snap.Error,
		StartedAt:  snap.StartedAt,
		FinishedAt: snap.FinishedAt,
	})
	if err != nil {
		o.logger.Warn("failed to record graph run", "graph_id", snap.ID, "error", err)
	}
}

// --- Swarms ---

// CreateSwarm создаёт и регистрирует swarm.
func (o *Orchestrator) CreateSwarm(ctx context.Context, spec *domain.SwarmSpec) (swarm.SwarmSnapshot, error) {
	s, err := swarm.NewSwarm(spec)
	if err != nil {
		return swarm.SwarmSnapshot{}, err
	}

	o.swarms.Put(s.ID, s)
	o.logger.Info("swarm created", "swarm_id", s.ID, "topology", s.Topology, "agents", s.Len())
	o.notifier.Notify(ctx, events.Event{
		Type:    events.SwarmCreated,
		SwarmID: s.ID,
		Data:    map[string]any{"topology": s.Topology, "agents": s.Len()},
	})

	return s.Snapshot(), nil
}

// GetSwarm возвращает снимок swarm.
func (o *Orchestrator) GetSwarm(id string) (swarm.SwarmSnapshot, error) {
	s, err := o.swarm(id)
	if err != nil {
		return swarm.SwarmSnapshot{}, err
	}
	return s.Snapshot(), nil
}

// DeleteSwarm удаляет swarm из реестра.
func (o *Orchestrator) DeleteSwarm(ctx context.Context, id string) error {
	if !o.swarms.Delete(id) {
		return &swarm.SwarmNotFoundError{SwarmID: id}
	}

	o.logger.Info("swarm deleted", "swarm_id", id)
	o.notifier.Notify(ctx, events.Event{Type: events.SwarmDeleted, SwarmID: id})
	return nil
}

// AddAgent добавляет агента в swarm.
func (o *Orchestrator) AddAgent(ctx context.Context, swarmID string, role domain.RoleSpec) (swarm.Agent, error) {
	s, err := o.swarm(swarmID)
	if err != nil {
		return swarm.Agent{}, err
	}

	agent, err := s.AddAgent(role)
	if err != nil {
		return swarm.Agent{}, err
	}

	o.notifier.Notify(ctx, events.Event{
		Type:    events.AgentAdded,
		SwarmID: swarmID,
		AgentID: agent.ID,
		Data:    map[string]any{"role": agent.Role},
	})
	return agent, nil
}

// RemoveAgent удаляет агента из swarm.
func (o *Orchestrator) RemoveAgent(ctx context.Context, swarmID, agentID string) error {
	s, err := o.swarm(swarmID)
	if err != nil {
		return err
	}
	if err := s.RemoveAgent(agentID); err != nil {
		return err
	}

	o.notifier.Notify(ctx, events.Event{Type: events.AgentRemoved, SwarmID: swarmID, AgentID: agentID})
	return nil
}

// DispatchTask выполняет задачу в swarm.
func (o *Orchestrator) DispatchTask(ctx context.Context, swarmID string, task domain.Task) (*swarm.TaskResult, error) {
	s, err := o.swarm(swarmID)
	if err != nil {
		return nil, err
	}

	res, execErr := o.coordinator.ExecuteTask(ctx, s, task)
	o.recordSwarmTask(ctx, res, execErr)

	return res, execErr
}

func (o *Orchestrator) swarm(id string) (*swarm.Swarm, error) {
	s, ok := o.swarms.Get(id)
	if !ok {
		return nil, &swarm.SwarmNotFoundError{SwarmID: id}
	}
	return s, nil
}

func (o *Orchestrator) recordSwarmTask(ctx context.Context, res *swarm.TaskResult, execErr error) {
	if o.journal == nil || res == nil {
		return
	}

	rec := &repo.SwarmTaskRecord{
		SwarmID:      res.SwarmID,
		TaskID:       res.TaskID,
		Topology:     string(res.Topology),
		Result:       res.Result,
		FailedAgents: res.FailedAgents,
		Duration:     res.Duration,
	}
	if res.Consensus != nil {
		rec.Consensus = res.Consensus
	}
	if execErr != nil {
		rec.Error = execErr.Error()
	}

	ctx, cancel := journalCtx(ctx)
	defer cancel()

	if err := o.journal.RecordSwarmTask(ctx, rec); err != nil {
		o.logger.Warn("failed to record swarm task", "swarm_id", res.SwarmID, "error", err)
	}
}

// IsNotFound сообщает, что ошибка означает отсутствие графа, swarm или агента.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrGraphNotFound) ||
		errors.Is(err, swarm.ErrSwarmNotFound) ||
		errors.Is(err, swarm.ErrAgentNotFound)
}
