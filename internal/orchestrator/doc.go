// Package orchestrator связывает компоненты Colony в один сервис.
//
// Orchestrator отвечает за:
//   - Приём спецификаций графов, проверку на циклы и выполнение через Scheduler
//   - Жизненный цикл swarm: создание, агенты, удаление
//   - Передачу задач swarm в Coordinator
//   - Реестры графов и swarm с TTL и лимитом записей
//   - Периодическую очистку реестров (cron)
//   - Рассылку событий и запись журнала выполнений
//
// Графы и swarm живут только в памяти процесса.
package orchestrator
