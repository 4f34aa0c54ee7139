package api

import (
	"io"
	"net/http"

	"github.com/shaiso/Colony/internal/engine"
)

// maxBodyBytes — предельный размер тела запроса.
const maxBodyBytes = 4 << 20

// CreateGraph создаёт и выполняет граф. Тело — GraphSpec в JSON или YAML.
// POST /api/v1/graphs
func (h *Handler) CreateGraph(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	spec, err := engine.ParseGraphSpec(body)
	if err != nil {
		HandleError(w, h.logger, err)
		return
	}

	snap, err := h.orch.SubmitGraph(r.Context(), spec)
	if err != nil {
		HandleError(w, h.logger, err)
		return
	}

	Created(w, snap)
}

// GetGraph возвращает снимок графа.
// GET /api/v1/graphs/{id}
func (h *Handler) GetGraph(w http.ResponseWriter, r *http.Request) {
	snap, err := h.orch.GetGraph(r.PathValue("id"))
	if err != nil {
		HandleError(w, h.logger, err)
		return
	}
	Success(w, snap)
}

// GetGraphOrder возвращает топологический порядок узлов.
// GET /api/v1/graphs/{id}/order
func (h *Handler) GetGraphOrder(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	order, err := h.orch.GraphOrder(id)
	if err != nil {
		HandleError(w, h.logger, err)
		return
	}
	Success(w, GraphOrderResponse{GraphID: id, Order: order})
}
