package engine

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/shaiso/Colony/internal/domain"
)

// ParseGraphSpec разбирает GraphSpec из JSON или YAML.
//
// JSON является подмножеством YAML, поэтому используется один декодер.
func ParseGraphSpec(data []byte) (*domain.GraphSpec, error) {
	var spec domain.GraphSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSpec, err)
	}
	return &spec, nil
}

// Validate выполняет валидацию GraphSpec.
//
// Проверяет:
// - Наличие узлов
// - Непустые и уникальные ID узлов
// - Что handler'ы зарегистрированы
// - Что оба конца каждого ребра объявлены
//
// Циклы здесь не ищутся.
func Validate(spec *domain.GraphSpec, handlers *Registry) error {
	if spec == nil || len(spec.Nodes) == 0 {
		return NewValidationError("", "nodes", "graph has no nodes", ErrEmptyGraph)
	}

	nodeIDs := make(map[string]bool, len(spec.Nodes))
	for i := range spec.Nodes {
		node := &spec.Nodes[i]

		if node.ID == "" {
			return NewValidationError("", "id",
				fmt.Sprintf("node %d has empty ID", i), ErrEmptyNodeID)
		}

		if nodeIDs[node.ID] {
			return NewValidationError(node.ID, "id",
				fmt.Sprintf("duplicate node ID: %s", node.ID), ErrDuplicateNodeID)
		}
		nodeIDs[node.ID] = true

		if node.Handler != "" && (handlers == nil || !handlers.Has(node.Handler)) {
			return NewValidationError(node.ID, "handler",
				fmt.Sprintf("unknown handler: %s", node.Handler), ErrUnknownHandler)
		}
	}

	for i, edge := range spec.Edges {
		if !nodeIDs[edge.From] {
			return NewValidationError(edge.To, "edges",
				fmt.Sprintf("edge %d references unknown node: %q", i, edge.From), ErrUnknownNode)
		}
		if !nodeIDs[edge.To] {
			return NewValidationError(edge.From, "edges",
				fmt.Sprintf("edge %d references unknown node: %q", i, edge.To), ErrUnknownNode)
		}
	}

	return nil
}
