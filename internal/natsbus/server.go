// Package natsbus публикует события Colony в NATS.
//
// Subjects:
//   - events.graph.<graph_id> — события графа и его узлов
//   - events.swarm.<swarm_id> — события swarm, агентов и задач
//
// Для локального запуска и тестов есть встроенный сервер (Server).
package natsbus

import (
	"fmt"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
)

// RandomPort — выбрать свободный порт.
const RandomPort = natsserver.RANDOM_PORT

// Server — встроенный NATS сервер.
type Server struct {
	server *natsserver.Server
}

// StartServer запускает встроенный сервер на порту port.
func StartServer(port int) (*Server, error) {
	opts := &natsserver.Options{
		Host:   "127.0.0.1",
		Port:   port,
		NoLog:  true,
		NoSigs: true,
	}

	ns, err := natsserver.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("create nats server: %w", err)
	}

	go ns.Start()

	if !ns.ReadyForConnections(5 * time.Second) {
		ns.Shutdown()
		return nil, fmt.Errorf("nats server not ready")
	}

	return &Server{server: ns}, nil
}

// ClientURL возвращает адрес для подключения клиентов.
func (s *Server) ClientURL() string {
	return s.server.ClientURL()
}

// Close останавливает сервер.
func (s *Server) Close() {
	s.server.Shutdown()
	s.server.WaitForShutdown()
}
