package swarm

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Colony/internal/domain"
)

// Значения по умолчанию для SwarmSpec.
const (
	DefaultConsensusThreshold = 0.66
	DefaultMaxAgents          = 10
)

// Agent — участник swarm.
type Agent struct {
	ID            string            `json:"id"`
	SwarmID       string            `json:"swarm_id"`
	Role          string            `json:"role"`
	Type          string            `json:"type,omitempty"`
	Capabilities  []string          `json:"capabilities,omitempty"`
	IsCoordinator bool              `json:"is_coordinator,omitempty"`
	Connections   []string          `json:"connections"`
	State         domain.AgentState `json:"state"`

	// busy — число задач, выполняемых агентом сейчас.
	busy int
}

// HasCapability проверяет наличие способности у агента.
func (a *Agent) HasCapability(c string) bool {
	return slices.Contains(a.Capabilities, c)
}

func (a *Agent) clone() Agent {
	cp := *a
	cp.Capabilities = slices.Clone(a.Capabilities)
	cp.Connections = slices.Clone(a.Connections)
	return cp
}

// Metrics — счётчики swarm. Меняются только Coordinator'ом после dispatch.
type Metrics struct {
	TasksDispatched   int `json:"tasks_dispatched"`
	TasksFailed       int `json:"tasks_failed"`
	ConsensusAchieved int `json:"consensus_achieved"`
	ConsensusMissed   int `json:"consensus_missed"`
	AgentFailures     int `json:"agent_failures"`
}

// Swarm — группа агентов с общей топологией.
//
// Создаётся один раз и переиспользуется для многих задач.
type Swarm struct {
	ID       string
	Name     string
	Topology domain.Topology

	mu            sync.RWMutex
	agents        []*Agent
	coordinatorID string
	threshold     float64
	maxAgents     int
	policy        domain.FailurePolicy
	metrics       Metrics
	seq           int
	createdAt     time.Time
}

// NewSwarm создаёт swarm по спецификации: по одному агенту на роль.
//
// Ошибки валидации не создают swarm. Для star и hierarchical без явного
// координатора координатором становится первый агент.
func NewSwarm(spec *domain.SwarmSpec) (*Swarm, error) {
	if spec == nil {
		return nil, newValidationError("", "roles", "swarm spec is empty", ErrEmptyRoster)
	}

	id := spec.ID
	if id == "" {
		id = uuid.NewString()
	}

	if !spec.Topology.IsValid() {
		return nil, newValidationError(id, "topology",
			fmt.Sprintf("unknown topology: %q", spec.Topology), ErrInvalidTopology)
	}
	if len(spec.Roles) == 0 {
		return nil, newValidationError(id, "roles", "swarm has no roles", ErrEmptyRoster)
	}

	threshold := spec.ConsensusThreshold
	if threshold == 0 {
		threshold = DefaultConsensusThreshold
	}
	if threshold < 0 || threshold > 1 {
		return nil, newValidationError(id, "consensusThreshold",
			fmt.Sprintf("consensus threshold %v out of range (0, 1]", spec.ConsensusThreshold), ErrInvalidThreshold)
	}

	maxAgents := spec.MaxAgents
	if maxAgents == 0 {
		maxAgents = DefaultMaxAgents
	}
	if maxAgents < 0 {
		return nil, newValidationError(id, "maxAgents",
			fmt.Sprintf("max agents %d must be positive", spec.MaxAgents), ErrInvalidMaxAgents)
	}

	policy := spec.FailurePolicy
	if policy == "" {
		policy = domain.FailurePolicyFailFast
	}
	if !policy.IsValid() {
		return nil, newValidationError(id, "failurePolicy",
			fmt.Sprintf("unknown failure policy: %q", spec.FailurePolicy), ErrInvalidFailurePolicy)
	}

	if len(spec.Roles) > maxAgents {
		return nil, &SwarmCapacityExceededError{SwarmID: id, MaxAgents: maxAgents, Requested: len(spec.Roles)}
	}

	coordinators := 0
	for i, role := range spec.Roles {
		if role.Name == "" {
			return nil, newValidationError(id, "roles",
				fmt.Sprintf("role %d has empty name", i), ErrEmptyRoleName)
		}
		if role.IsCoordinator {
			coordinators++
		}
	}
	if coordinators > 1 {
		return nil, newValidationError(id, "roles",
			fmt.Sprintf("%d roles are marked as coordinator", coordinators), ErrMultipleCoordinators)
	}

	s := &Swarm{
		ID:        id,
		Name:      spec.Name,
		Topology:  spec.Topology,
		agents:    make([]*Agent, 0, len(spec.Roles)),
		threshold: threshold,
		maxAgents: maxAgents,
		policy:    policy,
		createdAt: time.Now().UTC(),
	}

	for _, role := range spec.Roles {
		a := s.newAgent(role)
		s.agents = append(s.agents, a)
		if role.IsCoordinator {
			s.coordinatorID = a.ID
		}
	}
	s.ensureCoordinator()
	ComputeConnections(s.Topology, s.agents, s.coordinatorID)

	return s, nil
}

// newAgent создаёт агента для роли. Вызывается под s.mu или до публикации swarm.
func (s *Swarm) newAgent(role domain.RoleSpec) *Agent {
	s.seq++
	return &Agent{
		ID:            fmt.Sprintf("%s-%d", role.Name, s.seq),
		SwarmID:       s.ID,
		Role:          role.Name,
		Type:          role.Type,
		Capabilities:  slices.Clone(role.Capabilities),
		IsCoordinator: role.IsCoordinator,
		Connections:   make([]string, 0),
		State:         domain.AgentStateReady,
	}
}

// needsCoordinator — топология без координатора не работает.
func (s *Swarm) needsCoordinator() bool {
	return s.Topology == domain.TopologyStar || s.Topology == domain.TopologyHierarchical
}

// ensureCoordinator назначает первого агента координатором, если он нужен.
func (s *Swarm) ensureCoordinator() {
	if s.coordinatorID != "" || !s.needsCoordinator() || len(s.agents) == 0 {
		return
	}
	s.agents[0].IsCoordinator = true
	s.coordinatorID = s.agents[0].ID
}

// AddAgent добавляет агента с ролью role и пересчитывает связи.
func (s *Swarm) AddAgent(role domain.RoleSpec) (Agent, error) {
	if role.Name == "" {
		return Agent{}, newValidationError(s.ID, "name", "role has empty name", ErrEmptyRoleName)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.agents) >= s.maxAgents {
		return Agent{}, &SwarmCapacityExceededError{SwarmID: s.ID, MaxAgents: s.maxAgents, Requested: len(s.agents) + 1}
	}
	if role.IsCoordinator && s.coordinatorID != "" {
		return Agent{}, newValidationError(s.ID, "isCoordinator",
			fmt.Sprintf("swarm already has coordinator %s", s.coordinatorID), ErrMultipleCoordinators)
	}

	a := s.newAgent(role)
	s.agents = append(s.agents, a)
	if role.IsCoordinator {
		s.coordinatorID = a.ID
	}
	s.ensureCoordinator()
	ComputeConnections(s.Topology, s.agents, s.coordinatorID)

	return a.clone(), nil
}

// RemoveAgent удаляет агента и пересчитывает связи.
//
// Если удалён координатор, координатором становится первый оставшийся агент.
// Последнего агента удалить нельзя.
func (s *Swarm) RemoveAgent(agentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.agents, func(a *Agent) bool { return a.ID == agentID })
	if idx < 0 {
		return fmt.Errorf("%w: %s in swarm %s", ErrAgentNotFound, agentID, s.ID)
	}
	if len(s.agents) == 1 {
		return newValidationError(s.ID, "agents", "cannot remove the last agent", ErrEmptyRoster)
	}

	s.agents = slices.Delete(s.agents, idx, idx+1)
	if s.coordinatorID == agentID {
		s.agents[0].IsCoordinator = true
		s.coordinatorID = s.agents[0].ID
	}
	ComputeConnections(s.Topology, s.agents, s.coordinatorID)

	return nil
}

// Agent возвращает копию агента по ID.
func (s *Swarm) Agent(agentID string) (Agent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.agents {
		if a.ID == agentID {
			return a.clone(), true
		}
	}
	return Agent{}, false
}

// Agents возвращает копии агентов в порядке ростера.
func (s *Swarm) Agents() []Agent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	agents := make([]Agent, len(s.agents))
	for i, a := range s.agents {
		agents[i] = a.clone()
	}
	return agents
}

// Len возвращает размер ростера.
func (s *Swarm) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.agents)
}

// CoordinatorID возвращает ID координатора (пусто, если его нет).
func (s *Swarm) CoordinatorID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.coordinatorID
}

// Threshold возвращает порог консенсуса.
func (s *Swarm) Threshold() float64 {
	return s.threshold
}

// MaxAgents возвращает максимальный размер ростера.
func (s *Swarm) MaxAgents() int {
	return s.maxAgents
}

// FailurePolicy возвращает политику обработки ошибок агентов.
func (s *Swarm) FailurePolicy() domain.FailurePolicy {
	return s.policy
}

// Metrics возвращает копию счётчиков.
func (s *Swarm) Metrics() Metrics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.metrics
}

// setBusy отмечает начало или конец задачи агента.
func (s *Swarm) setBusy(agentID string, busy bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.agents {
		if a.ID != agentID {
			continue
		}
		if busy {
			a.busy++
		} else if a.busy > 0 {
			a.busy--
		}
		if a.busy > 0 {
			a.State = domain.AgentStateBusy
		} else {
			a.State = domain.AgentStateReady
		}
		return
	}
}

// recordDispatch обновляет счётчики после выполнения задачи.
func (s *Swarm) recordDispatch(failed bool, agentFailures int, consensus *domain.ConsensusResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.metrics.TasksDispatched++
	if failed {
		s.metrics.TasksFailed++
	}
	s.metrics.AgentFailures += agentFailures
	if consensus != nil {
		if consensus.Achieved {
			s.metrics.ConsensusAchieved++
		} else {
			s.metrics.ConsensusMissed++
		}
	}
}

// SwarmSnapshot — согласованный снимок swarm для API и CLI.
type SwarmSnapshot struct {
	ID                 string               `json:"id"`
	Name               string               `json:"name,omitempty"`
	Topology           domain.Topology      `json:"topology"`
	CoordinatorID      string               `json:"coordinator_id,omitempty"`
	ConsensusThreshold float64              `json:"consensus_threshold"`
	MaxAgents          int                  `json:"max_agents"`
	FailurePolicy      domain.FailurePolicy `json:"failure_policy"`
	Agents             []Agent              `json:"agents"`
	Metrics            Metrics              `json:"metrics"`
	CreatedAt          time.Time            `json:"created_at"`
}

// Snapshot возвращает снимок swarm.
func (s *Swarm) Snapshot() SwarmSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	agents := make([]Agent, len(s.agents))
	for i, a := range s.agents {
		agents[i] = a.clone()
	}

	return SwarmSnapshot{
		ID:                 s.ID,
		Name:               s.Name,
		Topology:           s.Topology,
		CoordinatorID:      s.coordinatorID,
		ConsensusThreshold: s.threshold,
		MaxAgents:          s.maxAgents,
		FailurePolicy:      s.policy,
		Agents:             agents,
		Metrics:            s.metrics,
		CreatedAt:          s.createdAt,
	}
}
