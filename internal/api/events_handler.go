package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shaiso/Colony/internal/events"
)

// eventsBuffer — буфер канала одного подписчика.
const eventsBuffer = 64

// StreamEvents отдаёт события как Server-Sent Events.
// Фильтры: ?graph_id=, ?swarm_id=.
// GET /api/v1/events
func (h *Handler) StreamEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		Error(w, http.StatusInternalServerError, ErrCodeInternalError, "streaming not supported")
		return
	}

	graphID := r.URL.Query().Get("graph_id")
	swarmID := r.URL.Query().Get("swarm_id")

	ch, unsubscribe := h.orch.Events().Channel(eventsBuffer)
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			if !matchEvent(e, graphID, swarmID) {
				continue
			}
			data, err := json.Marshal(e)
			if err != nil {
				h.logger.Warn("failed to marshal event", "type", e.Type, "error", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Type, data)
			flusher.Flush()
		}
	}
}

func matchEvent(e events.Event, graphID, swarmID string) bool {
	if graphID != "" && e.GraphID != graphID {
		return false
	}
	if swarmID != "" && e.SwarmID != swarmID {
		return false
	}
	return true
}
