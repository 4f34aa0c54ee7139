package orchestrator

import "errors"

// Ошибки оркестратора.
var (
	// ErrGraphNotFound — граф не найден в реестре (не создавался или вытеснен).
	ErrGraphNotFound = errors.New("graph not found")

	// ErrInvalidSweepSchedule — некорректное расписание очистки реестров.
	ErrInvalidSweepSchedule = errors.New("invalid sweep schedule")

	// ErrOrchestratorStopped — оркестратор остановлен.
	ErrOrchestratorStopped = errors.New("orchestrator stopped")
)
