package domain

// GraphSpec — входная спецификация графа задач.
//
// Пример (JSON):
//
//	{
//	    "name": "report",
//	    "nodes": [
//	        {"id": "fetch", "handler": "solver", "config": {"algorithm": "binary_search"}},
//	        {"id": "join"}
//	    ],
//	    "edges": [{"from": "fetch", "to": "join"}]
//	}
type GraphSpec struct {
	// ID — идентификатор графа. Если пустой, генерируется при создании.
	ID string `json:"id,omitempty" yaml:"id,omitempty"`

	// Name — человекочитаемое имя графа.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Nodes — узлы графа. ID узлов должны быть уникальны.
	Nodes []NodeSpec `json:"nodes" yaml:"nodes"`

	// Edges — рёбра "from должен завершиться до to".
	Edges []EdgeSpec `json:"edges,omitempty" yaml:"edges,omitempty"`
}

// NodeSpec — определение узла в GraphSpec.
type NodeSpec struct {
	// ID — уникальный идентификатор узла в рамках графа.
	ID string `json:"id" yaml:"id"`

	// Name — имя узла (по умолчанию совпадает с ID).
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Type — произвольная метка типа узла (передаётся в executor'ы как kind).
	Type string `json:"type,omitempty" yaml:"type,omitempty"`

	// Handler — имя зарегистрированного handler'а.
	// Пустое значение означает pass-through узел (join данных).
	Handler string `json:"handler,omitempty" yaml:"handler,omitempty"`

	// Config — конфигурация, передаваемая handler'у как есть.
	Config map[string]any `json:"config,omitempty" yaml:"config,omitempty"`
}

// EdgeSpec — ребро графа.
type EdgeSpec struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}
