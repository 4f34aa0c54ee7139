package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/shaiso/Colony/internal/domain"
	"github.com/shaiso/Colony/internal/events"
	"github.com/shaiso/Colony/internal/telemetry"
)

var tracer = otel.Tracer("colony.engine")

// SchedulerConfig — конфигурация Scheduler.
type SchedulerConfig struct {
	// Mode — sequential или parallel (по умолчанию parallel).
	Mode domain.ExecutionMode

	// MaxParallel — максимум одновременно выполняемых узлов волны.
	// 0 — без ограничения.
	MaxParallel int

	// Notifier получает события графа и узлов. nil — события не отправляются.
	Notifier events.Notifier

	Logger *slog.Logger
}

// Scheduler выполняет графы.
//
// Handler'ы только возвращают значения; фиксирует результаты, состояния
// и метрики одна управляющая горутина после завершения волны.
type Scheduler struct {
	mode        domain.ExecutionMode
	maxParallel int
	notifier    events.Notifier
	logger      *slog.Logger
}

// NewScheduler создаёт Scheduler.
func NewScheduler(cfg SchedulerConfig) *Scheduler {
	if cfg.Mode != domain.ExecutionModeSequential {
		cfg.Mode = domain.ExecutionModeParallel
	}
	if cfg.Notifier == nil {
		cfg.Notifier = events.Nop
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Scheduler{
		mode:        cfg.Mode,
		maxParallel: cfg.MaxParallel,
		notifier:    cfg.Notifier,
		logger:      cfg.Logger,
	}
}

// Mode возвращает режим выполнения.
func (s *Scheduler) Mode() domain.ExecutionMode {
	return s.mode
}

// Execute выполняет граф и возвращает результаты всех узлов.
//
// Fail-fast: первая ошибка handler'а переводит граф в FAILED и возвращает
// NodeExecutionError. Результаты, зафиксированные до ошибки, остаются
// доступны через Graph.Results и Graph.Snapshot.
func (s *Scheduler) Execute(ctx context.Context, g *Graph) (map[string]any, error) {
	g.mu.Lock()
	if g.state != domain.GraphStatePending {
		state := g.state
		g.mu.Unlock()
		return nil, fmt.Errorf("%w: graph %s is %s", ErrGraphState, g.ID, state)
	}
	g.state = domain.GraphStateRunning
	g.startedAt = time.Now().UTC()
	g.mu.Unlock()

	ctx, span := tracer.Start(ctx, "engine.Execute",
		trace.WithAttributes(
			attribute.String("graph.id", g.ID),
			attribute.String("graph.mode", string(s.mode)),
			attribute.Int("graph.node_count", g.Len()),
		),
	)
	defer span.End()

	logger := telemetry.WithGraphID(s.logger, g.ID)
	logger.Info("graph started", "mode", s.mode, "nodes", g.Len())
	s.notifier.Notify(ctx, events.Event{Type: events.GraphStarted, GraphID: g.ID})

	var err error
	if s.mode == domain.ExecutionModeSequential {
		err = s.runSequential(ctx, g, logger)
	} else {
		err = s.runParallel(ctx, g, logger)
	}

	g.mu.Lock()
	g.finishedAt = time.Now().UTC()
	if err != nil {
		g.state = domain.GraphStateFailed
		g.err = err
	} else {
		g.state = domain.GraphStateCompleted
	}
	results := maps.Clone(g.results)
	g.mu.Unlock()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		telemetry.GraphRuns.WithLabelValues(string(s.mode), "failed").Inc()
		logger.Error("graph failed", "error", err)
		s.notifier.Notify(ctx, events.Event{Type: events.GraphFailed, GraphID: g.ID, Error: err.Error()})
		return nil, err
	}

	telemetry.GraphRuns.WithLabelValues(string(s.mode), "completed").Inc()
	logger.Info("graph completed")
	s.notifier.Notify(ctx, events.Event{Type: events.GraphCompleted, GraphID: g.ID, Data: results})
	return results, nil
}

// runSequential выполняет узлы по одному в топологическом порядке.
func (s *Scheduler) runSequential(ctx context.Context, g *Graph, logger *slog.Logger) error {
	order, err := g.TopologicalOrder()
	if err != nil {
		return err
	}

	for _, id := range order {
		if err := ctx.Err(); err != nil {
			return err
		}

		g.mu.Lock()
		node := g.nodes[id]
		node.State = domain.NodeStateRunning
		inputs := g.inputsFor(node)
		g.mu.Unlock()

		s.notifier.Notify(ctx, events.Event{Type: events.NodeStarted, GraphID: g.ID, NodeID: id})
		result, err := s.invoke(ctx, g.ID, node, inputs)

		g.mu.Lock()
		if err != nil {
			s.fail(node, err)
		} else {
			s.commit(g, node, result)
		}
		g.mu.Unlock()

		s.reportNode(ctx, g.ID, node.ID, err, logger)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return &NodeExecutionError{NodeID: id, Err: err}
		}
	}
	return nil
}

// runParallel выполняет граф волнами.
//
// Волна — все узлы в PENDING с выполненными зависимостями. Узлы волны
// запускаются параллельно, результаты фиксируются после завершения всей
// волны в порядке объявления. Если готовых узлов нет, а PENDING остались,
// граф не может продвинуться: CyclicDependencyError.
func (s *Scheduler) runParallel(ctx context.Context, g *Graph, logger *slog.Logger) error {
	for wave := 1; ; wave++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		g.mu.Lock()
		ready := g.readyNodes()
		if len(ready) == 0 {
			pending := g.pendingIDs()
			g.mu.Unlock()
			if len(pending) == 0 {
				return nil
			}
			return &CyclicDependencyError{Pending: pending}
		}

		inputs := make([]map[string]any, len(ready))
		for i, node := range ready {
			node.State = domain.NodeStateRunning
			inputs[i] = g.inputsFor(node)
		}
		g.mu.Unlock()

		logger.Debug("wave started", "wave", wave, "nodes", len(ready))
		for _, node := range ready {
			s.notifier.Notify(ctx, events.Event{Type: events.NodeStarted, GraphID: g.ID, NodeID: node.ID})
		}

		if err := s.runWave(ctx, g, ready, inputs, logger); err != nil {
			return err
		}
	}
}

type nodeOutcome struct {
	result any
	err    error
}

// runWave выполняет одну волну и фиксирует её результаты.
func (s *Scheduler) runWave(ctx context.Context, g *Graph, ready []*Node, inputs []map[string]any, logger *slog.Logger) error {
	eg, gctx := errgroup.WithContext(ctx)
	if s.maxParallel > 0 {
		eg.SetLimit(s.maxParallel)
	}

	outcomes := make([]nodeOutcome, len(ready))
	for i, node := range ready {
		eg.Go(func() error {
			result, err := s.invoke(gctx, g.ID, node, inputs[i])
			outcomes[i] = nodeOutcome{result: result, err: err}
			if err != nil {
				return &NodeExecutionError{NodeID: node.ID, Err: err}
			}
			return nil
		})
	}
	waveErr := eg.Wait()

	// Первый упавший узел волны всегда FAILED, даже если его ошибка — context.Canceled
	var first *NodeExecutionError
	errors.As(waveErr, &first)

	failed := func(i int) bool {
		o := outcomes[i]
		if o.err == nil {
			return false
		}
		if ctx.Err() == nil && first != nil && first.NodeID == ready[i].ID {
			return true
		}
		return !s.cancelledBySibling(ctx, gctx, o.err)
	}

	g.mu.Lock()
	for i, node := range ready {
		switch {
		case waveErr == nil:
			s.commit(g, node, outcomes[i].result)
		case failed(i):
			s.fail(node, outcomes[i].err)
		default:
			// Успешные и отменённые соседи упавшего узла не фиксируются
			node.State = domain.NodeStatePending
		}
	}
	g.mu.Unlock()

	for i, node := range ready {
		if waveErr == nil || failed(i) {
			s.reportNode(ctx, g.ID, node.ID, outcomes[i].err, logger)
		}
	}

	if waveErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return waveErr
	}
	return nil
}

// cancelledBySibling — ошибка узла вызвана отменой волны из-за падения соседа
// или отменой внешнего контекста, а не самим handler'ом.
func (s *Scheduler) cancelledBySibling(parent, wave context.Context, err error) bool {
	if parent.Err() != nil {
		return true
	}
	return wave.Err() != nil && errors.Is(err, context.Canceled)
}

// invoke вызывает handler узла, перехватывая panic.
func (s *Scheduler) invoke(ctx context.Context, graphID string, node *Node, inputs map[string]any) (result any, err error) {
	ctx, span := tracer.Start(ctx, "engine.Node",
		trace.WithAttributes(
			attribute.String("graph.id", graphID),
			attribute.String("node.id", node.ID),
			attribute.String("node.handler", node.HandlerName),
		),
	)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("handler panic: %v", r)
		}

		telemetry.NodeDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if node.Handler == nil {
		return passThrough(node.ID, inputs), nil
	}
	return node.Handler.Handle(ctx, inputs, node.Config)
}

// passThrough — результат узла без handler'а: входы плюс node_id.
func passThrough(nodeID string, inputs map[string]any) map[string]any {
	result := maps.Clone(inputs)
	if result == nil {
		result = make(map[string]any, 1)
	}
	result["node_id"] = nodeID
	return result
}

// commit фиксирует результат узла. Вызывается под g.mu.
func (s *Scheduler) commit(g *Graph, node *Node, result any) {
	node.State = domain.NodeStateCompleted
	node.Result = result
	node.Err = nil
	g.results[node.ID] = result
}

// fail переводит узел в FAILED. Вызывается под g.mu.
func (s *Scheduler) fail(node *Node, err error) {
	node.State = domain.NodeStateFailed
	node.Result = nil
	node.Err = err
}

func (s *Scheduler) reportNode(ctx context.Context, graphID, nodeID string, err error, logger *slog.Logger) {
	logger = telemetry.WithNodeID(logger, nodeID)

	if err != nil {
		telemetry.NodeExecutions.WithLabelValues("failed").Inc()
		logger.Warn("node failed", "error", err)
		s.notifier.Notify(ctx, events.Event{
			Type:    events.NodeFailed,
			GraphID: graphID,
			NodeID:  nodeID,
			Error:   err.Error(),
		})
		return
	}

	telemetry.NodeExecutions.WithLabelValues("completed").Inc()
	logger.Debug("node completed")
	s.notifier.Notify(ctx, events.Event{Type: events.NodeCompleted, GraphID: graphID, NodeID: nodeID})
}
