package swarm

import (
	"slices"

	"github.com/shaiso/Colony/internal/domain"
)

// ComputeConnections пересчитывает связи всех агентов по правилу топологии.
//
//   - mesh: полный граф
//   - star: hub (координатор или первый агент) связан со всеми, остальные только с hub
//   - hierarchical: двоичное дерево по индексу, родитель ⌊(i-1)/2⌋, дети 2i+1 и 2i+2
//   - ring: соседи (i-1) mod n и (i+1) mod n без дублей и без петель
//
// Связи не обновляются инкрементально: при любом изменении ростера
// пересчитываются целиком.
func ComputeConnections(topology domain.Topology, agents []*Agent, coordinatorID string) {
	ids := make([]string, len(agents))
	for i, a := range agents {
		ids[i] = a.ID
	}

	conns := Connections(topology, ids, coordinatorID)
	for i, a := range agents {
		a.Connections = conns[i]
	}
}

// Connections возвращает связи для каждого индекса ростера.
func Connections(topology domain.Topology, ids []string, coordinatorID string) [][]string {
	n := len(ids)
	conns := make([][]string, n)
	for i := range conns {
		conns[i] = make([]string, 0)
	}

	switch topology {
	case domain.TopologyMesh:
		for i := range n {
			for j := range n {
				if i != j {
					conns[i] = append(conns[i], ids[j])
				}
			}
		}

	case domain.TopologyStar:
		if n == 0 {
			break
		}
		hub := slices.Index(ids, coordinatorID)
		if hub < 0 {
			hub = 0
		}
		for i := range n {
			if i == hub {
				continue
			}
			conns[hub] = append(conns[hub], ids[i])
			conns[i] = append(conns[i], ids[hub])
		}

	case domain.TopologyHierarchical:
		for i := range n {
			if i > 0 {
				conns[i] = append(conns[i], ids[(i-1)/2])
			}
			for _, child := range []int{2*i + 1, 2*i + 2} {
				if child < n {
					conns[i] = append(conns[i], ids[child])
				}
			}
		}

	case domain.TopologyRing:
		for i := range n {
			for _, j := range []int{(i - 1 + n) % n, (i + 1) % n} {
				if j != i && !slices.Contains(conns[i], ids[j]) {
					conns[i] = append(conns[i], ids[j])
				}
			}
		}
	}

	return conns
}
