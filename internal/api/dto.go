package api

// ConsensusRequest — запрос на голосование по готовым результатам.
type ConsensusRequest struct {
	Results   []any   `json:"results"`
	Threshold float64 `json:"threshold,omitempty"`
}

// GraphOrderResponse — топологический порядок узлов.
type GraphOrderResponse struct {
	GraphID string   `json:"graph_id"`
	Order   []string `json:"order"`
}

// SolveResponse — результат алгоритма.
type SolveResponse struct {
	Algorithm string `json:"algorithm"`
	Result    any    `json:"result"`
}
