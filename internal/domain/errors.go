package domain

// ValidationError — ошибка валидации спецификации графа или swarm.
//
// Возвращается при построении, до любых изменений состояния.
type ValidationError struct {
	Subject string // ID узла/агента/swarm, где произошла ошибка
	Field   string // поле, вызвавшее ошибку
	Message string // описание ошибки
	Err     error  // базовая ошибка (sentinel пакета)
}

// Error реализует интерфейс error.
func (e *ValidationError) Error() string {
	if e.Subject != "" {
		return e.Subject + ": " + e.Message
	}
	return e.Message
}

// Unwrap возвращает базовую ошибку.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError создаёт новую ошибку валидации.
func NewValidationError(subject, field, message string, err error) *ValidationError {
	return &ValidationError{
		Subject: subject,
		Field:   field,
		Message: message,
		Err:     err,
	}
}
