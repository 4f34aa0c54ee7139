package solver

import "errors"

var (
	// ErrUnknownAlgorithm — алгоритм с таким именем не зарегистрирован.
	ErrUnknownAlgorithm = errors.New("unknown solver algorithm")

	// ErrInvalidParams — параметры алгоритма невалидны.
	ErrInvalidParams = errors.New("invalid solver params")

	// ErrEmptyInput — алгоритму передан пустой набор данных.
	ErrEmptyInput = errors.New("empty input")
)
