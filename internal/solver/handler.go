package solver

import (
	"context"
	"fmt"
	"maps"

	"github.com/shaiso/Colony/internal/engine"
)

// HandlerName — имя, под которым NodeHandler регистрируется по умолчанию.
const HandlerName = "solver"

// NodeHandler возвращает handler узла, вызывающий алгоритм по имени.
//
// Config узла:
//
//	{"algorithm": "shortest_path", "params": {...}}
//
// Если params отсутствует, параметрами считается сам config без ключа algorithm.
// Если params не содержит ключ inputs, в него подставляются результаты зависимостей.
func NodeHandler() engine.Handler {
	return engine.HandlerFunc(func(ctx context.Context, inputs, config map[string]any) (any, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := engine.ConfigString(config, "algorithm")
		if name == "" {
			return nil, fmt.Errorf("%w: config.algorithm is required", ErrInvalidParams)
		}

		params := engine.ConfigMap(config, "params")
		if params == nil {
			params = maps.Clone(config)
			delete(params, "algorithm")
		} else {
			params = maps.Clone(params)
		}
		if _, ok := params["inputs"]; !ok && len(inputs) > 0 {
			params["inputs"] = inputs
		}

		return Run(name, params)
	})
}
