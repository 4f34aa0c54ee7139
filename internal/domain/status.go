package domain

// NodeState — состояние узла графа.
//
// Жизненный цикл:
//
//	PENDING → RUNNING → COMPLETED
//	                  ↘ FAILED
type NodeState string

const (
	// NodeStatePending — узел ещё не запускался (или его результат не был зафиксирован).
	NodeStatePending NodeState = "PENDING"

	// NodeStateRunning — handler узла выполняется.
	NodeStateRunning NodeState = "RUNNING"

	// NodeStateCompleted — результат узла зафиксирован в results графа.
	NodeStateCompleted NodeState = "COMPLETED"

	// NodeStateFailed — handler узла вернул ошибку.
	NodeStateFailed NodeState = "FAILED"
)

// IsTerminal возвращает true, если статус финальный.
func (s NodeState) IsTerminal() bool {
	switch s {
	case NodeStateCompleted, NodeStateFailed:
		return true
	default:
		return false
	}
}

// GraphState — состояние выполнения графа.
//
// Жизненный цикл:
//
//	PENDING → RUNNING → COMPLETED
//	                  ↘ FAILED
type GraphState string

const (
	GraphStatePending   GraphState = "PENDING"
	GraphStateRunning   GraphState = "RUNNING"
	GraphStateCompleted GraphState = "COMPLETED"
	GraphStateFailed    GraphState = "FAILED"
)

// IsTerminal возвращает true, если граф завершил выполнение.
func (s GraphState) IsTerminal() bool {
	switch s {
	case GraphStateCompleted, GraphStateFailed:
		return true
	default:
		return false
	}
}

// AgentState — состояние агента в swarm.
type AgentState string

const (
	// AgentStateReady — агент свободен.
	AgentStateReady AgentState = "READY"

	// AgentStateBusy — агент выполняет задачу.
	AgentStateBusy AgentState = "BUSY"
)

// ExecutionMode — режим выполнения графа.
type ExecutionMode string

const (
	// ExecutionModeSequential — узлы выполняются по одному в топологическом порядке.
	ExecutionModeSequential ExecutionMode = "sequential"

	// ExecutionModeParallel — узлы выполняются волнами, узлы одной волны — параллельно.
	ExecutionModeParallel ExecutionMode = "parallel"
)

// ParseExecutionMode парсит строку в ExecutionMode.
// Пустая строка и неизвестные значения дают parallel.
func ParseExecutionMode(s string) ExecutionMode {
	switch s {
	case "sequential", "SEQUENTIAL":
		return ExecutionModeSequential
	default:
		return ExecutionModeParallel
	}
}
