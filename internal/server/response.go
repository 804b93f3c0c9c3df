package server

import (
	"errors"
	"net/http"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"

	"github.com/naka-gawa/namespace-stats/internal/cache"
	"github.com/naka-gawa/namespace-stats/internal/usecase"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrorResponse is the error format returned by every endpoint.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, logger zerolog.Logger, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error().Err(err).Msg("failed to encode JSON response")
	}
}

// writeError maps aggregation errors onto HTTP statuses.
// Upstream failures keep their message so the caller can see what went wrong.
func writeError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	switch {
	case errors.Is(err, usecase.ErrUserRequired):
		writeJSON(w, logger, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: err.Error()})
	case errors.Is(err, usecase.ErrNoRepositories):
		writeJSON(w, logger, http.StatusNotFound, ErrorResponse{Error: "not_found", Message: err.Error()})
	case errors.Is(err, cache.ErrMiss):
		writeJSON(w, logger, http.StatusNotFound, ErrorResponse{Error: "cache_miss", Message: "no cached data available"})
	default:
		logger.Error().Err(err).Msg("request failed")
		writeJSON(w, logger, http.StatusBadGateway, ErrorResponse{Error: "upstream_error", Message: err.Error()})
	}
}
