// Package cli реализует команды colony.
//
// # Backend
//
// Команды работают через интерфейс Backend. Две реализации:
//   - Client — HTTP-клиент Colony API (флаг --api-url)
//   - Local — orchestrator в текущем процессе
//
// Client разбирает обёртки ответов (DataResponse, ErrorResponse) и
// возвращает ошибки сервера как *APIError.
//
//	client := cli.NewClient("http://localhost:8080")
//	snap, err := client.SubmitGraph(ctx, spec)
//
// # Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: colony graph run flow.yaml --json | jq .
//
// # Commands
//
//   - graph: run, show, order
//   - swarm: run, create, show, delete, add-agent, remove-agent, task
//   - solve: список алгоритмов или запуск одного
//   - consensus: голосование по значениям из аргументов
//
// Каждая группа создаётся фабрикой (NewGraphCmd и т.д.), принимающей
// backendFn и outputFn — замыкания для ленивого создания Backend и
// Output после парсинга PersistentFlags.
package cli
