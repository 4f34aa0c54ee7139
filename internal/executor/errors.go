package executor

import "errors"

// Ошибки executor'ов.
var (
	// ErrUnknownKind — нет executor'а для вида задачи и не задан fallback.
	ErrUnknownKind = errors.New("no executor for task kind")

	// ErrInvalidPayload — payload задачи не подходит executor'у.
	ErrInvalidPayload = errors.New("invalid task payload")

	// ErrHTTPRequest — HTTP-запрос завершился ошибкой.
	ErrHTTPRequest = errors.New("http request failed")

	// ErrGateway — gateway вернул ошибку.
	ErrGateway = errors.New("gateway request failed")
)
