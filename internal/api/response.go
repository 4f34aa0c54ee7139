package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shaiso/Colony/internal/domain"
	"github.com/shaiso/Colony/internal/engine"
	"github.com/shaiso/Colony/internal/orchestrator"
	"github.com/shaiso/Colony/internal/solver"
	"github.com/shaiso/Colony/internal/swarm"
)

// ErrorCode — код ошибки API.
type ErrorCode string

const (
	ErrCodeBadRequest    ErrorCode = "BAD_REQUEST"
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeConflict      ErrorCode = "CONFLICT"
	ErrCodeUnprocessable ErrorCode = "UNPROCESSABLE"
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
)

// ErrorResponse — структура ответа с ошибкой.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail — детали ошибки.
type ErrorDetail struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// DataResponse — структура успешного ответа.
type DataResponse struct {
	Data any `json:"data"`
}

// JSON отправляет JSON ответ.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Success отправляет успешный ответ с данными.
func Success(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, DataResponse{Data: data})
}

// Created отправляет ответ о создании ресурса.
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, DataResponse{Data: data})
}

// NoContent отправляет ответ без тела (204).
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Error отправляет ответ с ошибкой.
func Error(w http.ResponseWriter, status int, code ErrorCode, message string) {
	JSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// BadRequest отправляет ошибку 400.
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// HandleError преобразует ошибку домена в HTTP ответ.
//
//	validation        → 400
//	not found         → 404
//	capacity          → 409
//	cycle / execution → 422
func HandleError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status, code := classify(err)
	if status == http.StatusInternalServerError {
		logger.Error("internal error", "error", err)
		Error(w, status, code, "internal server error")
		return
	}
	Error(w, status, code, err.Error())
}

func classify(err error) (int, ErrorCode) {
	var validation *domain.ValidationError

	// Ошибки выполнения первыми: они оборачивают ошибки handler'ов
	switch {
	case errors.Is(err, engine.ErrCyclicDependency),
		errors.Is(err, engine.ErrNodeExecution),
		errors.Is(err, engine.ErrGraphState),
		errors.Is(err, swarm.ErrAgentTask),
		errors.Is(err, swarm.ErrAllAgentsFailed),
		errors.Is(err, swarm.ErrInvalidDecomposition):
		return http.StatusUnprocessableEntity, ErrCodeUnprocessable

	case orchestrator.IsNotFound(err), errors.Is(err, solver.ErrUnknownAlgorithm):
		return http.StatusNotFound, ErrCodeNotFound

	case errors.Is(err, swarm.ErrCapacityExceeded):
		return http.StatusConflict, ErrCodeConflict

	case errors.As(err, &validation),
		errors.Is(err, engine.ErrInvalidSpec),
		errors.Is(err, swarm.ErrInvalidSpec),
		errors.Is(err, solver.ErrInvalidParams),
		errors.Is(err, solver.ErrEmptyInput):
		return http.StatusBadRequest, ErrCodeBadRequest
	}
	return http.StatusInternalServerError, ErrCodeInternalError
}
