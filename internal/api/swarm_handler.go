package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/shaiso/Colony/internal/domain"
	"github.com/shaiso/Colony/internal/swarm"
)

// CreateSwarm создаёт swarm. Тело — SwarmSpec в JSON или YAML.
// POST /api/v1/swarms
func (h *Handler) CreateSwarm(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	spec, err := swarm.ParseSwarmSpec(body)
	if err != nil {
		HandleError(w, h.logger, err)
		return
	}

	snap, err := h.orch.CreateSwarm(r.Context(), spec)
	if err != nil {
		HandleError(w, h.logger, err)
		return
	}

	Created(w, snap)
}

// GetSwarm возвращает снимок swarm.
// GET /api/v1/swarms/{id}
func (h *Handler) GetSwarm(w http.ResponseWriter, r *http.Request) {
	snap, err := h.orch.GetSwarm(r.PathValue("id"))
	if err != nil {
		HandleError(w, h.logger, err)
		return
	}
	Success(w, snap)
}

// DeleteSwarm удаляет swarm.
// DELETE /api/v1/swarms/{id}
func (h *Handler) DeleteSwarm(w http.ResponseWriter, r *http.Request) {
	if err := h.orch.DeleteSwarm(r.Context(), r.PathValue("id")); err != nil {
		HandleError(w, h.logger, err)
		return
	}
	NoContent(w)
}

// AddAgent добавляет агента. Тело — RoleSpec.
// POST /api/v1/swarms/{id}/agents
func (h *Handler) AddAgent(w http.ResponseWriter, r *http.Request) {
	var role domain.RoleSpec
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&role); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	agent, err := h.orch.AddAgent(r.Context(), r.PathValue("id"), role)
	if err != nil {
		HandleError(w, h.logger, err)
		return
	}
	Created(w, agent)
}

// RemoveAgent удаляет агента.
// DELETE /api/v1/swarms/{id}/agents/{agentId}
func (h *Handler) RemoveAgent(w http.ResponseWriter, r *http.Request) {
	if err := h.orch.RemoveAgent(r.Context(), r.PathValue("id"), r.PathValue("agentId")); err != nil {
		HandleError(w, h.logger, err)
		return
	}
	NoContent(w)
}

// DispatchTask выполняет задачу в swarm. Тело — Task.
// POST /api/v1/swarms/{id}/tasks
func (h *Handler) DispatchTask(w http.ResponseWriter, r *http.Request) {
	var task domain.Task
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&task); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	res, err := h.orch.DispatchTask(r.Context(), r.PathValue("id"), task)
	if err != nil {
		HandleError(w, h.logger, err)
		return
	}
	Success(w, res)
}

// Consensus голосует по переданным результатам.
// POST /api/v1/consensus
func (h *Handler) Consensus(w http.ResponseWriter, r *http.Request) {
	var req ConsensusRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	threshold := req.Threshold
	if threshold == 0 {
		threshold = swarm.DefaultConsensusThreshold
	}
	if threshold < 0 || threshold > 1 {
		BadRequest(w, swarm.ErrInvalidThreshold.Error())
		return
	}

	Success(w, swarm.AchieveConsensus(req.Results, threshold))
}
