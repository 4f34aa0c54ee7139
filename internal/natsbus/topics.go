package natsbus

import (
	"fmt"

	"github.com/shaiso/Colony/internal/events"
)

// Шаблоны для подписки на все графы или все swarm.
const (
	AllGraphEvents = "events.graph.>"
	AllSwarmEvents = "events.swarm.>"
)

func TopicGraph(graphID string) string {
	return fmt.Sprintf("events.graph.%s", graphID)
}

func TopicSwarm(swarmID string) string {
	return fmt.Sprintf("events.swarm.%s", swarmID)
}

// TopicFor возвращает subject события. Пустая строка — событие
// не относится ни к графу, ни к swarm.
func TopicFor(e events.Event) string {
	switch {
	case e.SwarmID != "":
		return TopicSwarm(e.SwarmID)
	case e.GraphID != "":
		return TopicGraph(e.GraphID)
	}
	return ""
}
