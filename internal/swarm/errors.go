package swarm

import (
	"errors"
	"fmt"

	"github.com/shaiso/Colony/internal/domain"
)

// Ошибки валидации SwarmSpec.
var (
	ErrInvalidTopology      = errors.New("invalid topology")
	ErrEmptyRoster          = errors.New("swarm has no agents")
	ErrInvalidThreshold     = errors.New("consensus threshold must be in (0, 1]")
	ErrInvalidMaxAgents     = errors.New("max agents must be positive")
	ErrMultipleCoordinators = errors.New("swarm has more than one coordinator")
	ErrEmptyRoleName        = errors.New("role has empty name")
	ErrInvalidFailurePolicy = errors.New("invalid failure policy")
	ErrInvalidSpec          = errors.New("invalid swarm spec")
)

// Ошибки ростера и выполнения.
var (
	ErrCapacityExceeded     = errors.New("swarm capacity exceeded")
	ErrSwarmNotFound        = errors.New("swarm not found")
	ErrAgentNotFound        = errors.New("agent not found")
	ErrAgentTask            = errors.New("agent task failed")
	ErrAllAgentsFailed      = errors.New("all agents failed")
	ErrInvalidDecomposition = errors.New("decompose result is not a list")
)

func newValidationError(subject, field, message string, err error) *domain.ValidationError {
	return domain.NewValidationError(subject, field, message, err)
}

// SwarmCapacityExceededError — ростер превысил MaxAgents.
type SwarmCapacityExceededError struct {
	SwarmID   string
	MaxAgents int
	Requested int
}

// Error реализует интерфейс error.
func (e *SwarmCapacityExceededError) Error() string {
	return fmt.Sprintf("swarm %s: %d agents requested, max %d", e.SwarmID, e.Requested, e.MaxAgents)
}

// Unwrap возвращает ErrCapacityExceeded.
func (e *SwarmCapacityExceededError) Unwrap() error {
	return ErrCapacityExceeded
}

// SwarmNotFoundError — swarm с таким ID не зарегистрирован.
type SwarmNotFoundError struct {
	SwarmID string
}

// Error реализует интерфейс error.
func (e *SwarmNotFoundError) Error() string {
	return "swarm not found: " + e.SwarmID
}

// Unwrap возвращает ErrSwarmNotFound.
func (e *SwarmNotFoundError) Unwrap() error {
	return ErrSwarmNotFound
}

// AgentTaskError — ошибка агента при выполнении задачи.
type AgentTaskError struct {
	SwarmID string
	AgentID string
	TaskID  string
	Kind    string
	Err     error
}

// Error реализует интерфейс error.
func (e *AgentTaskError) Error() string {
	return fmt.Sprintf("swarm %s: agent %s: %s task: %v", e.SwarmID, e.AgentID, e.Kind, e.Err)
}

// Unwrap возвращает исходную ошибку executor'а.
func (e *AgentTaskError) Unwrap() error {
	return e.Err
}

// Is позволяет проверять errors.Is(err, ErrAgentTask).
func (e *AgentTaskError) Is(target error) bool {
	return target == ErrAgentTask
}
