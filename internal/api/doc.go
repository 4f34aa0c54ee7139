// Package api содержит HTTP API сервер Colony.
//
// Структура:
//   - handler.go        — Handler с DI (orchestrator, logger)
//   - routes.go         — регистрация маршрутов
//   - middleware.go     — middleware (request id, logging, recovery)
//   - response.go       — унифицированные JSON-ответы и отображение ошибок в HTTP-коды
//   - dto.go            — Data Transfer Objects
//   - graph_handler.go  — /graphs
//   - swarm_handler.go  — /swarms и /consensus
//   - solve_handler.go  — /solve
//   - events_handler.go — /events (Server-Sent Events)
package api
