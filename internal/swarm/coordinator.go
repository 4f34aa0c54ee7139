package swarm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/shaiso/Colony/internal/domain"
	"github.com/shaiso/Colony/internal/events"
	"github.com/shaiso/Colony/internal/telemetry"
)

var tracer = otel.Tracer("colony.swarm")

// TaskExecutor выполняет задачу от имени агента.
//
// Результат должен сериализоваться в JSON: по нему идёт голосование.
type TaskExecutor interface {
	ExecuteTask(ctx context.Context, agent Agent, task domain.Task) (any, error)
}

// TaskExecutorFunc — адаптер функции к TaskExecutor.
type TaskExecutorFunc func(ctx context.Context, agent Agent, task domain.Task) (any, error)

// ExecuteTask реализует TaskExecutor.
func (f TaskExecutorFunc) ExecuteTask(ctx context.Context, agent Agent, task domain.Task) (any, error) {
	return f(ctx, agent, task)
}

// AgentResult — ответ одного агента.
type AgentResult struct {
	AgentID string `json:"agent_id"`
	Role    string `json:"role"`
	TaskID  string `json:"task_id"`
	Kind    string `json:"kind"`
	Result  any    `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
}

// TaskResult — итог выполнения задачи swarm'ом.
type TaskResult struct {
	TaskID   string          `json:"task_id"`
	SwarmID  string          `json:"swarm_id"`
	Topology domain.Topology `json:"topology"`

	// Result — значение консенсуса (mesh, ring), результат aggregate (star)
	// или synthesize (hierarchical).
	Result any `json:"result"`

	// Consensus заполняется только для mesh и ring.
	Consensus *domain.ConsensusResult `json:"consensus,omitempty"`

	AgentResults []AgentResult `json:"agent_results"`
	FailedAgents []string      `json:"failed_agents,omitempty"`
	Duration     time.Duration `json:"duration"`
}

// CoordinatorConfig — конфигурация Coordinator.
type CoordinatorConfig struct {
	// Executor выполняет задачи агентов. Обязателен.
	Executor TaskExecutor

	// Notifier получает события swarm. nil — события не отправляются.
	Notifier events.Notifier

	Logger *slog.Logger
}

// Coordinator распределяет задачи по агентам swarm.
//
// Executor'ы только возвращают значения; счётчики swarm и состояние
// агентов меняет Coordinator.
type Coordinator struct {
	executor TaskExecutor
	notifier events.Notifier
	logger   *slog.Logger
}

// NewCoordinator создаёт Coordinator.
func NewCoordinator(cfg CoordinatorConfig) *Coordinator {
	if cfg.Notifier == nil {
		cfg.Notifier = events.Nop
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Coordinator{
		executor: cfg.Executor,
		notifier: cfg.Notifier,
		logger:   cfg.Logger,
	}
}

// dispatch — одна задача одного агента в рамках ExecuteTask.
type dispatch struct {
	agent Agent
	task  domain.Task
}

type outcome struct {
	result any
	err    error
}

// run — состояние одного вызова ExecuteTask.
type run struct {
	swarm  *Swarm
	task   domain.Task
	policy domain.FailurePolicy
	logger *slog.Logger
	res    *TaskResult
}

// ExecuteTask выполняет задачу согласно топологии swarm.
func (c *Coordinator) ExecuteTask(ctx context.Context, s *Swarm, task domain.Task) (*TaskResult, error) {
	if c.executor == nil {
		return nil, errors.New("swarm coordinator has no task executor")
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.Kind == "" {
		task.Kind = domain.TaskKindDefault
	}

	ctx, span := tracer.Start(ctx, "swarm.ExecuteTask",
		trace.WithAttributes(
			attribute.String("swarm.id", s.ID),
			attribute.String("swarm.topology", string(s.Topology)),
			attribute.String("task.id", task.ID),
		),
	)
	defer span.End()

	r := &run{
		swarm:  s,
		task:   task,
		policy: s.FailurePolicy(),
		logger: telemetry.WithTaskID(telemetry.WithSwarmID(c.logger, s.ID), task.ID),
		res: &TaskResult{
			TaskID:       task.ID,
			SwarmID:      s.ID,
			Topology:     s.Topology,
			AgentResults: make([]AgentResult, 0),
		},
	}

	start := time.Now()
	r.logger.Info("swarm task started", "topology", s.Topology, "agents", s.Len())
	c.notifier.Notify(ctx, events.Event{Type: events.SwarmTaskStarted, SwarmID: s.ID, TaskID: task.ID})

	var err error
	switch s.Topology {
	case domain.TopologyStar:
		err = c.executeStar(ctx, r)
	case domain.TopologyHierarchical:
		err = c.executeHierarchical(ctx, r)
	default:
		// mesh и ring: связи ring — только метаданные маршрутизации
		err = c.executeVoting(ctx, r)
	}
	r.res.Duration = time.Since(start)

	s.recordDispatch(err != nil, len(r.res.FailedAgents), r.res.Consensus)
	telemetry.SwarmAgentFailures.WithLabelValues(string(s.Topology)).Add(float64(len(r.res.FailedAgents)))
	if r.res.Consensus != nil {
		telemetry.SwarmConsensus.WithLabelValues(strconv.FormatBool(r.res.Consensus.Achieved)).Inc()
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		telemetry.SwarmTasks.WithLabelValues(string(s.Topology), "failed").Inc()
		r.logger.Error("swarm task failed", "error", err)
		c.notifier.Notify(ctx, events.Event{
			Type:    events.SwarmTaskFailed,
			SwarmID: s.ID,
			TaskID:  task.ID,
			Error:   err.Error(),
		})
		return r.res, err
	}

	telemetry.SwarmTasks.WithLabelValues(string(s.Topology), "completed").Inc()
	r.logger.Info("swarm task completed", "duration", r.res.Duration, "failed_agents", len(r.res.FailedAgents))
	c.notifier.Notify(ctx, events.Event{
		Type:    events.SwarmTaskCompleted,
		SwarmID: s.ID,
		TaskID:  task.ID,
		Data:    r.res.Result,
	})
	return r.res, nil
}

// executeVoting — mesh и ring: все агенты выполняют задачу, затем голосование.
func (c *Coordinator) executeVoting(ctx context.Context, r *run) error {
	agents := r.swarm.Agents()
	dispatches := make([]dispatch, len(agents))
	for i, a := range agents {
		dispatches[i] = dispatch{agent: a, task: r.task}
	}

	results, err := c.fanOut(ctx, r, dispatches)
	if err != nil {
		return err
	}

	consensus := AchieveConsensus(results, r.swarm.Threshold())
	r.res.Consensus = &consensus
	r.res.Result = consensus.Result

	r.logger.Info("consensus computed",
		"achieved", consensus.Achieved,
		"confidence", consensus.Confidence,
		"votes", consensus.Votes,
		"total", consensus.Total,
	)
	c.notifier.Notify(ctx, events.Event{
		Type:    events.ConsensusReached,
		SwarmID: r.swarm.ID,
		TaskID:  r.task.ID,
		Data:    consensus,
	})
	return nil
}

// executeStar — spokes выполняют задачу, hub сводит их результаты.
func (c *Coordinator) executeStar(ctx context.Context, r *run) error {
	agents := r.swarm.Agents()
	hub := hubOf(agents, r.swarm.CoordinatorID())

	dispatches := make([]dispatch, 0, len(agents)-1)
	for _, a := range agents {
		if a.ID != hub.ID {
			dispatches = append(dispatches, dispatch{agent: a, task: r.task})
		}
	}

	spokeResults, err := c.fanOut(ctx, r, dispatches)
	if err != nil {
		return err
	}

	aggregate := r.task.Derive(r.task.ID+"/aggregate", domain.TaskKindAggregate, spokeResults)
	result, err := c.executeOne(ctx, r, hub, aggregate)
	if err != nil {
		return err
	}
	r.res.Result = result
	return nil
}

// executeHierarchical — decompose у координатора, подзадачи исполнителям
// по кругу, synthesize у координатора.
func (c *Coordinator) executeHierarchical(ctx context.Context, r *run) error {
	agents := r.swarm.Agents()
	coordinator := hubOf(agents, r.swarm.CoordinatorID())

	decompose := r.task.Derive(r.task.ID+"/decompose", domain.TaskKindDecompose, r.task.Payload)
	plan, err := c.executeOne(ctx, r, coordinator, decompose)
	if err != nil {
		return err
	}

	subtasks, err := toSubtasks(r.task, plan)
	if err != nil {
		return &AgentTaskError{SwarmID: r.swarm.ID, AgentID: coordinator.ID, TaskID: decompose.ID, Kind: domain.TaskKindDecompose, Err: err}
	}

	workers := make([]Agent, 0, len(agents))
	for _, a := range agents {
		if a.ID != coordinator.ID {
			workers = append(workers, a)
		}
	}
	if len(workers) == 0 {
		workers = append(workers, coordinator)
	}

	dispatches := make([]dispatch, len(subtasks))
	for i, st := range subtasks {
		dispatches[i] = dispatch{agent: workers[i%len(workers)], task: st}
	}

	subresults, err := c.fanOut(ctx, r, dispatches)
	if err != nil {
		return err
	}

	synthesize := r.task.Derive(r.task.ID+"/synthesize", domain.TaskKindSynthesize, subresults)
	result, err := c.executeOne(ctx, r, coordinator, synthesize)
	if err != nil {
		return err
	}
	r.res.Result = result
	return nil
}

// matches — ошибка относится к этому dispatch.
func (e *AgentTaskError) matches(d dispatch) bool {
	return e.AgentID == d.agent.ID && e.TaskID == d.task.ID
}

// hubOf возвращает координатора или первого агента.
func hubOf(agents []Agent, coordinatorID string) Agent {
	for _, a := range agents {
		if a.ID == coordinatorID {
			return a
		}
	}
	return agents[0]
}

// toSubtasks превращает результат decompose в подзадачи.
//
// Элемент типа domain.Task используется как есть (с заполнением ID и Kind),
// любой другой элемент становится Payload подзадачи.
func toSubtasks(parent domain.Task, plan any) ([]domain.Task, error) {
	if tasks, ok := plan.([]domain.Task); ok {
		out := make([]domain.Task, len(tasks))
		for i, t := range tasks {
			out[i] = fillSubtask(parent, t, i)
		}
		return out, nil
	}

	v := reflect.ValueOf(plan)
	if !v.IsValid() || (v.Kind() != reflect.Slice && v.Kind() != reflect.Array) {
		return nil, fmt.Errorf("%w: got %T", ErrInvalidDecomposition, plan)
	}

	out := make([]domain.Task, v.Len())
	for i := range v.Len() {
		item := v.Index(i).Interface()
		if t, ok := item.(domain.Task); ok {
			out[i] = fillSubtask(parent, t, i)
			continue
		}
		out[i] = parent.Derive(subtaskID(parent, i), domain.TaskKindSubtask, item)
	}
	return out, nil
}

func fillSubtask(parent domain.Task, t domain.Task, i int) domain.Task {
	if t.ID == "" {
		t.ID = subtaskID(parent, i)
	}
	if t.Kind == "" {
		t.Kind = domain.TaskKindSubtask
	}
	if t.ParentID == "" {
		t.ParentID = parent.ID
	}
	return t
}

func subtaskID(parent domain.Task, i int) string {
	return parent.ID + "/subtask-" + strconv.Itoa(i)
}

// fanOut выполняет dispatches параллельно и возвращает результаты
// ответивших агентов в порядке dispatches.
//
// fail_fast: первая ошибка отменяет остальных и возвращается.
// tolerate: упавшие исключаются; ошибка, только если упали все.
func (c *Coordinator) fanOut(ctx context.Context, r *run, dispatches []dispatch) ([]any, error) {
	if len(dispatches) == 0 {
		return []any{}, nil
	}

	failFast := r.policy != domain.FailurePolicyTolerate

	var eg *errgroup.Group
	gctx := ctx
	if failFast {
		eg, gctx = errgroup.WithContext(ctx)
	} else {
		eg = &errgroup.Group{}
	}

	outcomes := make([]outcome, len(dispatches))
	for i, d := range dispatches {
		eg.Go(func() error {
			result, err := c.call(gctx, r.swarm, d.agent, d.task)
			outcomes[i] = outcome{result: result, err: err}
			if err != nil && failFast {
				return &AgentTaskError{SwarmID: r.swarm.ID, AgentID: d.agent.ID, TaskID: d.task.ID, Kind: d.task.Kind, Err: err}
			}
			return nil
		})
	}
	groupErr := eg.Wait()

	var first *AgentTaskError
	errors.As(groupErr, &first)

	results := make([]any, 0, len(dispatches))
	var firstFailure *AgentTaskError
	for i, d := range dispatches {
		o := outcomes[i]
		ar := AgentResult{AgentID: d.agent.ID, Role: d.agent.Role, TaskID: d.task.ID, Kind: d.task.Kind}

		switch {
		case o.err == nil:
			ar.Result = o.result
			results = append(results, o.result)
		case failFast && ctx.Err() == nil && first != nil && !first.matches(d) && errors.Is(o.err, context.Canceled):
			// Отменён из-за ошибки соседа
			ar.Error = o.err.Error()
		case cancelledByCaller(ctx, o.err):
			ar.Error = o.err.Error()
		default:
			ar.Error = o.err.Error()
			c.recordAgentFailure(ctx, r, d, o.err)
			if firstFailure == nil {
				firstFailure = &AgentTaskError{SwarmID: r.swarm.ID, AgentID: d.agent.ID, TaskID: d.task.ID, Kind: d.task.Kind, Err: o.err}
			}
		}
		r.res.AgentResults = append(r.res.AgentResults, ar)
	}

	if groupErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, groupErr
	}
	if len(results) == 0 {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %w", ErrAllAgentsFailed, firstFailure)
	}
	return results, nil
}

// executeOne выполняет задачу одного агента (hub или координатора).
// Ошибка фатальна при любой политике.
func (c *Coordinator) executeOne(ctx context.Context, r *run, agent Agent, task domain.Task) (any, error) {
	result, err := c.call(ctx, r.swarm, agent, task)

	ar := AgentResult{AgentID: agent.ID, Role: agent.Role, TaskID: task.ID, Kind: task.Kind}
	if err != nil {
		ar.Error = err.Error()
		r.res.AgentResults = append(r.res.AgentResults, ar)
		if !cancelledByCaller(ctx, err) {
			c.recordAgentFailure(ctx, r, dispatch{agent: agent, task: task}, err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &AgentTaskError{SwarmID: r.swarm.ID, AgentID: agent.ID, TaskID: task.ID, Kind: task.Kind, Err: err}
	}

	ar.Result = result
	r.res.AgentResults = append(r.res.AgentResults, ar)
	return result, nil
}

// cancelledByCaller — агент прерван отменой ctx вызывающего, а не упал сам.
func cancelledByCaller(ctx context.Context, err error) bool {
	if ctx.Err() == nil {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (c *Coordinator) recordAgentFailure(ctx context.Context, r *run, d dispatch, err error) {
	r.res.FailedAgents = append(r.res.FailedAgents, d.agent.ID)
	r.logger.Warn("agent task failed", "agent_id", d.agent.ID, "kind", d.task.Kind, "error", err)
	c.notifier.Notify(ctx, events.Event{
		Type:    events.AgentTaskFailed,
		SwarmID: r.swarm.ID,
		AgentID: d.agent.ID,
		TaskID:  d.task.ID,
		Error:   err.Error(),
	})
}

// call вызывает executor, отмечая агента BUSY на время выполнения.
func (c *Coordinator) call(ctx context.Context, s *Swarm, agent Agent, task domain.Task) (result any, err error) {
	ctx, span := tracer.Start(ctx, "swarm.agent",
		trace.WithAttributes(
			attribute.String("agent.id", agent.ID),
			attribute.String("agent.role", agent.Role),
			attribute.String("task.kind", task.Kind),
		),
	)

	s.setBusy(agent.ID, true)
	defer func() {
		if rec := recover(); rec != nil {
			result = nil
			err = fmt.Errorf("executor panic: %v", rec)
		}
		s.setBusy(agent.ID, false)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.executor.ExecuteTask(ctx, agent, task)
}
