// Package engine содержит модель графа задач и его выполнение.
//
// Включает:
//   - parser.go    — разбор GraphSpec (JSON/YAML) и валидация
//   - dag.go       — Graph, Node, топологический порядок, снимки
//   - handler.go   — Handler, реестр handler'ов по имени, WithTimeout
//   - scheduler.go — последовательное и волновое выполнение
//
// CreateGraph проверяет ссылки, но не циклы: цикл обнаруживается
// при выполнении (CyclicDependencyError) или явно через Graph.CheckAcyclic.
package engine
