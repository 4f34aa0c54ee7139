package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	chain := Chain(
		Recovery(h.logger),
		RequestID(h.logger),
		Logging(),
	)

	// Graphs
	mux.Handle("POST /api/v1/graphs", chain(http.HandlerFunc(h.CreateGraph)))
	mux.Handle("GET /api/v1/graphs/{id}", chain(http.HandlerFunc(h.GetGraph)))
	mux.Handle("GET /api/v1/graphs/{id}/order", chain(http.HandlerFunc(h.GetGraphOrder)))

	// Swarms
	mux.Handle("POST /api/v1/swarms", chain(http.HandlerFunc(h.CreateSwarm)))
	mux.Handle("GET /api/v1/swarms/{id}", chain(http.HandlerFunc(h.GetSwarm)))
	mux.Handle("DELETE /api/v1/swarms/{id}", chain(http.HandlerFunc(h.DeleteSwarm)))
	mux.Handle("POST /api/v1/swarms/{id}/agents", chain(http.HandlerFunc(h.AddAgent)))
	mux.Handle("DELETE /api/v1/swarms/{id}/agents/{agentId}", chain(http.HandlerFunc(h.RemoveAgent)))
	mux.Handle("POST /api/v1/swarms/{id}/tasks", chain(http.HandlerFunc(h.DispatchTask)))

	// Consensus & solver
	mux.Handle("POST /api/v1/consensus", chain(http.HandlerFunc(h.Consensus)))
	mux.Handle("GET /api/v1/solve", chain(http.HandlerFunc(h.ListAlgorithms)))
	mux.Handle("POST /api/v1/solve/{algorithm}", chain(http.HandlerFunc(h.Solve)))

	// Events (SSE)
	mux.Handle("GET /api/v1/events", chain(http.HandlerFunc(h.StreamEvents)))
}
