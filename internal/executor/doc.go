// Package executor содержит реализации swarm.TaskExecutor.
//
// # Обзор
//
// Coordinator не знает, кто выполняет работу агента: он вызывает
// TaskExecutor, переданный при создании. Этот пакет даёт стандартные
// реализации и реестр, выбирающий executor по виду задачи (task.Kind).
//
// Реализации:
//   - GatewayExecutor — POST задачи во внешний gateway (например, LLM-шлюз)
//   - HTTPExecutor    — HTTP-запрос, описанный в payload (method, url, headers, body)
//   - SolverExecutor  — вызов алгоритма solver.Run по имени
//   - EchoExecutor    — возвращает payload как результат
//   - DelayExecutor   — ожидание с поддержкой отмены
//
// # Registry
//
//	reg := executor.NewRegistry(executor.EchoExecutor{})
//	reg.Register("solve", executor.SolverExecutor{})
//	reg.Register(domain.TaskKindAggregate, executor.EchoExecutor{})
//
// Для вида без зарегистрированного executor'а используется fallback.
//
// # Узлы графа
//
// AsNodeHandler превращает executor в engine.Handler: узел графа
// выполняет задачу с payload {"inputs": ..., "config": ...}.
package executor
