package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/shaiso/Colony/internal/solver"
)

// ListAlgorithms возвращает имена алгоритмов solver'а.
// GET /api/v1/solve
func (h *Handler) ListAlgorithms(w http.ResponseWriter, r *http.Request) {
	Success(w, solver.Algorithms())
}

// Solve выполняет алгоритм. Тело — параметры алгоритма (JSON).
// POST /api/v1/solve/{algorithm}
func (h *Handler) Solve(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		BadRequest(w, "invalid request body")
		return
	}
	if len(body) == 0 {
		body = []byte("{}")
	}

	name := r.PathValue("algorithm")
	result, err := solver.Run(name, json.RawMessage(body))
	if err != nil {
		HandleError(w, h.logger, err)
		return
	}

	Success(w, SolveResponse{Algorithm: name, Result: result})
}
