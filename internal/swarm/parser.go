package swarm

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/shaiso/Colony/internal/domain"
)

// ParseSwarmSpec разбирает SwarmSpec из JSON или YAML.
func ParseSwarmSpec(data []byte) (*domain.SwarmSpec, error) {
	var spec domain.SwarmSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSpec, err)
	}
	return &spec, nil
}
