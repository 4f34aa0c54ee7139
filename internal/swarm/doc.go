// Package swarm реализует swarm агентов: ростер, топологии связей,
// распределение задачи и голосование.
//
// Включает:
//   - swarm.go       — Swarm и Agent, изменение ростера
//   - topology.go    — вычисление связей для mesh, star, hierarchical, ring
//   - coordinator.go — Coordinator.ExecuteTask, маршрутизация по топологии
//   - consensus.go   — AchieveConsensus (плюральность, первое вхождение при равенстве)
//
// # Маршрутизация
//
//   - mesh, ring     — все агенты выполняют задачу, результаты голосуют
//   - star           — spokes выполняют задачу, hub выполняет aggregate над их результатами
//   - hierarchical   — координатор выполняет decompose, подзадачи раздаются
//     исполнителям по кругу, координатор выполняет synthesize
//
// # Ошибки агентов
//
// FailurePolicy swarm определяет реакцию на ошибку агента:
// fail_fast отменяет остальных и возвращает AgentTaskError,
// tolerate исключает упавших из голосования. Ошибка hub'а или
// координатора фатальна при любой политике.
//
// Работу агента выполняет TaskExecutor, переданный в NewCoordinator.
package swarm
