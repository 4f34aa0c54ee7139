package events

import (
	"context"
	"time"
)

// Type — тип события.
type Type string

// Типы событий графа.
const (
	GraphStarted   Type = "graph.started"
	GraphCompleted Type = "graph.completed"
	GraphFailed    Type = "graph.failed"
	NodeStarted    Type = "node.started"
	NodeCompleted  Type = "node.completed"
	NodeFailed     Type = "node.failed"
)

// Типы событий swarm.
const (
	SwarmCreated       Type = "swarm.created"
	SwarmDeleted       Type = "swarm.deleted"
	AgentAdded         Type = "swarm.agent.added"
	AgentRemoved       Type = "swarm.agent.removed"
	SwarmTaskStarted   Type = "swarm.task.started"
	SwarmTaskCompleted Type = "swarm.task.completed"
	SwarmTaskFailed    Type = "swarm.task.failed"
	AgentTaskFailed    Type = "swarm.agent.failed"
	ConsensusReached   Type = "swarm.consensus"
)

// Event — уведомление о ходе выполнения.
type Event struct {
	// ID — уникальный идентификатор события (заполняется издателем, если пуст).
	ID string `json:"id,omitempty"`

	Type Type `json:"type"`

	GraphID string `json:"graph_id,omitempty"`
	NodeID  string `json:"node_id,omitempty"`
	SwarmID string `json:"swarm_id,omitempty"`
	AgentID string `json:"agent_id,omitempty"`
	TaskID  string `json:"task_id,omitempty"`

	// Data — произвольная полезная нагрузка. Должна сериализоваться в JSON.
	Data any `json:"data,omitempty"`

	// Error — текст ошибки для событий *.failed.
	Error string `json:"error,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// Notifier получает события.
//
// Notify не должен блокироваться надолго: его вызывает
// управляющая горутина Scheduler'а или Coordinator'а.
type Notifier interface {
	Notify(ctx context.Context, e Event)
}

// NotifierFunc — адаптер функции к Notifier.
type NotifierFunc func(ctx context.Context, e Event)

// Notify реализует Notifier.
func (f NotifierFunc) Notify(ctx context.Context, e Event) {
	f(ctx, e)
}

// Nop — Notifier, который ничего не делает.
var Nop Notifier = NotifierFunc(func(context.Context, Event) {})

// Multi рассылает событие всем notifier'ам по порядку. nil пропускаются.
type Multi []Notifier

// Notify реализует Notifier.
func (m Multi) Notify(ctx context.Context, e Event) {
	for _, n := range m {
		if n != nil {
			n.Notify(ctx, e)
		}
	}
}

// Stamp заполняет Timestamp, если он пуст.
func Stamp(e Event) Event {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	return e
}
