package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/lemma-social/lemma-engine/pkg/apperrors"
)

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// WriteServiceError maps a service error onto the response status taxonomy:
// validation 400, unauthenticated 401, not found 404, forbidden and banned
// 403, conflict and already-decided 409, everything else 500. Validation
// responses carry the offending field name as the error code.
func WriteServiceError(w http.ResponseWriter, logger *zap.Logger, err error, fallbackCode string) {
	if err == nil {
		return
	}

	var writeErr error
	if verr, ok := apperrors.AsValidation(err); ok {
		writeErr = ErrorResponse(w, http.StatusBadRequest, "invalid_"+verr.Field, verr.Error())
	} else {
		switch {
		case errors.Is(err, apperrors.ErrUnauthenticated):
			writeErr = ErrorResponse(w, http.StatusUnauthorized, "unauthenticated", err.Error())
		case errors.Is(err, apperrors.ErrNotFound):
			writeErr = ErrorResponse(w, http.StatusNotFound, "not_found", err.Error())
		case errors.Is(err, apperrors.ErrBanned):
			writeErr = ErrorResponse(w, http.StatusForbidden, "banned", err.Error())
		case errors.Is(err, apperrors.ErrForbidden):
			writeErr = ErrorResponse(w, http.StatusForbidden, "forbidden", err.Error())
		case errors.Is(err, apperrors.ErrFlagDecided):
			writeErr = ErrorResponse(w, http.StatusConflict, "flag_already_decided", err.Error())
		case errors.Is(err, apperrors.ErrConflict):
			writeErr = ErrorResponse(w, http.StatusConflict, "conflict", err.Error())
		default:
			logger.Error("Request failed", zap.Error(err))
			writeErr = ErrorResponse(w, http.StatusInternalServerError, fallbackCode, err.Error())
		}
	}
	if writeErr != nil {
		logger.Error("Failed to write error response", zap.Error(writeErr))
	}
}
