// Package events описывает уведомления о ходе выполнения графов и swarm.
//
// Scheduler и Coordinator получают Notifier при создании и вызывают
// Notify явно; глобального состояния подписчиков нет.
//
// Реализации Notifier:
//   - Bus     — in-process observer: callback'и и каналы подписчиков
//   - Multi   — fan-out в несколько Notifier
//   - mq.EventPublisher      — RabbitMQ exchange colony.events
//   - natsbus.EventPublisher — NATS subjects events.graph.<id> / events.swarm.<id>
package events
