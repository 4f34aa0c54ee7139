package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shaiso/Colony/internal/domain"
)

// Ошибки валидации GraphSpec.
var (
	// ErrEmptyGraph — граф не содержит узлов.
	ErrEmptyGraph = errors.New("graph spec has no nodes")

	// ErrEmptyNodeID — узел не имеет ID.
	ErrEmptyNodeID = errors.New("node has empty ID")

	// ErrDuplicateNodeID — несколько узлов с одинаковым ID.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownNode — ребро ссылается на необъявленный узел.
	ErrUnknownNode = errors.New("edge references unknown node")

	// ErrUnknownHandler — узел ссылается на незарегистрированный handler.
	ErrUnknownHandler = errors.New("unknown handler")

	// ErrInvalidSpec — спецификацию не удалось разобрать.
	ErrInvalidSpec = errors.New("invalid graph spec")
)

// Ошибки выполнения.
var (
	// ErrCyclicDependency — граф не может продвинуться: цикл или недостижимый узел.
	ErrCyclicDependency = errors.New("cyclic dependency detected")

	// ErrNodeExecution — handler узла завершился ошибкой.
	ErrNodeExecution = errors.New("node execution failed")

	// ErrGraphState — граф уже выполнялся.
	ErrGraphState = errors.New("graph is not pending")

	// ErrHandlerTimeout — handler не уложился в таймаут WithTimeout.
	ErrHandlerTimeout = errors.New("handler timeout")
)

// NewValidationError создаёт ошибку валидации графа.
func NewValidationError(nodeID, field, message string, err error) *domain.ValidationError {
	return domain.NewValidationError(nodeID, field, message, err)
}

// CyclicDependencyError — граф не может продвинуться.
//
// Pending — узлы, которые остались невыполненными.
type CyclicDependencyError struct {
	Pending []string
}

// Error реализует интерфейс error.
func (e *CyclicDependencyError) Error() string {
	if len(e.Pending) == 0 {
		return ErrCyclicDependency.Error()
	}
	return fmt.Sprintf("%s: stuck nodes [%s]", ErrCyclicDependency, strings.Join(e.Pending, ", "))
}

// Unwrap возвращает ErrCyclicDependency.
func (e *CyclicDependencyError) Unwrap() error {
	return ErrCyclicDependency
}

// NodeExecutionError — ошибка handler'а узла.
type NodeExecutionError struct {
	NodeID string
	Err    error
}

// Error реализует интерфейс error.
func (e *NodeExecutionError) Error() string {
	return fmt.Sprintf("node %s: %v", e.NodeID, e.Err)
}

// Unwrap возвращает исходную ошибку handler'а.
func (e *NodeExecutionError) Unwrap() error {
	return e.Err
}

// Is позволяет проверять errors.Is(err, ErrNodeExecution).
func (e *NodeExecutionError) Is(target error) bool {
	return target == ErrNodeExecution
}
