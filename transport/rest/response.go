package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/rocketscienceinc/arcade/internal/apperror"
)

type errorResponse struct {
	Error string `json:"error"`
}

func decode[T any](body io.Reader) (*T, error) {
	var payload T
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode request: %w", err)
	}

	return &payload, nil
}

func writeJSON(log *slog.Logger, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error("failed to write response", "error", err)
	}
}

func writeError(log *slog.Logger, w http.ResponseWriter, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		log.Error("request failed", "error", err)
	}

	writeJSON(log, w, status, errorResponse{Error: err.Error()})
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, apperror.ErrTableNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrUnknownGame):
		return http.StatusBadRequest
	case apperror.IsRejected(err):
		return http.StatusConflict
	case apperror.IsInvariantViolation(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
