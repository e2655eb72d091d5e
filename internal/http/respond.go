package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"finpulse/internal/core"
	"finpulse/internal/storage"
)

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.ErrorContext(ctx, "Failed to encode response", "error", err)
	}
}

func respondError(ctx context.Context, w http.ResponseWriter, status int, msg string) {
	respondJSON(ctx, w, status, errorBody{Error: msg})
}

// respondDomainError maps domain and storage errors onto HTTP statuses.
// Validation failures become 422 with the offending field named so the
// client can show a field-level message.
func respondDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errMalformedCategoryID):
		respondJSON(ctx, w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, storage.ErrNotFound):
		respondJSON(ctx, w, http.StatusNotFound, errorBody{Error: "not found"})
	case errors.Is(err, core.ErrNothingToExport):
		respondJSON(ctx, w, http.StatusUnprocessableEntity, errorBody{Error: "nothing to export"})
	case errors.Is(err, core.ErrInvalidDate):
		respondValidation(ctx, w, err, "date")
	case errors.Is(err, core.ErrInvalidAmount):
		respondValidation(ctx, w, err, "amount")
	case errors.Is(err, core.ErrEmptyDescription), errors.Is(err, core.ErrDescriptionTooLong):
		respondValidation(ctx, w, err, "description")
	case errors.Is(err, core.ErrEmptyName):
		respondValidation(ctx, w, err, "name")
	case errors.Is(err, core.ErrInvalidBudget):
		respondValidation(ctx, w, err, "budgetAmount")
	default:
		slog.ErrorContext(ctx, "Request failed", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

func respondValidation(ctx context.Context, w http.ResponseWriter, err error, field string) {
	respondJSON(ctx, w, http.StatusUnprocessableEntity, errorBody{Error: err.Error(), Field: field})
}
