// Package mq публикует события Colony в RabbitMQ.
//
// Структура:
//   - connection.go — соединение с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — объявление exchange и служебных очередей
//   - publisher.go  — Publisher и EventPublisher (events.Notifier)
//
// Все события уходят в topic exchange colony.events; routing key равен
// типу события (graph.completed, swarm.task.failed, ...). Потребители
// подписываются шаблонами, например "swarm.#" или "#.failed".
package mq
