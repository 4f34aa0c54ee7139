package domain

// Topology — схема связей агентов в swarm.
type Topology string

const (
	TopologyMesh         Topology = "mesh"
	TopologyStar         Topology = "star"
	TopologyHierarchical Topology = "hierarchical"
	TopologyRing         Topology = "ring"
)

// IsValid проверяет, что топология известна.
func (t Topology) IsValid() bool {
	switch t {
	case TopologyMesh, TopologyStar, TopologyHierarchical, TopologyRing:
		return true
	default:
		return false
	}
}

// FailurePolicy — реакция swarm на ошибку отдельного агента.
type FailurePolicy string

const (
	// FailurePolicyFailFast — первая ошибка агента прерывает всю задачу.
	FailurePolicyFailFast FailurePolicy = "fail_fast"

	// FailurePolicyTolerate — упавшие агенты исключаются из голосования.
	FailurePolicyTolerate FailurePolicy = "tolerate"
)

// IsValid проверяет, что политика известна.
func (p FailurePolicy) IsValid() bool {
	return p == FailurePolicyFailFast || p == FailurePolicyTolerate
}

// SwarmSpec — входная спецификация swarm.
type SwarmSpec struct {
	// ID — идентификатор swarm. Если пустой, генерируется.
	ID string `json:"id,omitempty" yaml:"id,omitempty"`

	// Name — имя swarm.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Topology — mesh, star, hierarchical или ring.
	Topology Topology `json:"topology" yaml:"topology"`

	// Roles — роли агентов; по одному агенту на роль, в порядке объявления.
	Roles []RoleSpec `json:"roles" yaml:"roles"`

	// ConsensusThreshold — доля совпадающих ответов для консенсуса, (0, 1].
	// Ноль означает значение по умолчанию.
	ConsensusThreshold float64 `json:"consensusThreshold,omitempty" yaml:"consensusThreshold,omitempty"`

	// MaxAgents — максимальный размер ростера. Ноль означает значение по умолчанию.
	MaxAgents int `json:"maxAgents,omitempty" yaml:"maxAgents,omitempty"`

	// FailurePolicy — fail_fast (по умолчанию) или tolerate.
	FailurePolicy FailurePolicy `json:"failurePolicy,omitempty" yaml:"failurePolicy,omitempty"`
}

// RoleSpec — определение роли агента.
type RoleSpec struct {
	Name          string   `json:"name" yaml:"name"`
	Type          string   `json:"type,omitempty" yaml:"type,omitempty"`
	Capabilities  []string `json:"capabilities,omitempty" yaml:"capabilities,omitempty"`
	IsCoordinator bool     `json:"isCoordinator,omitempty" yaml:"isCoordinator,omitempty"`
}

// ConsensusResult — итог голосования агентов.
//
// Отсутствие консенсуса — не ошибка, а нормальный результат с Achieved=false.
type ConsensusResult struct {
	Achieved   bool    `json:"achieved"`
	Confidence float64 `json:"confidence"`
	Result     any     `json:"result"`
	Votes      int     `json:"votes"`
	Total      int     `json:"total"`
}
