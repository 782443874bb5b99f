package util

import (
	"encoding/json"
	"errors"
	"net/http"

	"fleettrack/internal/domain"
)

func ResponseInJson(w http.ResponseWriter, statusCode int, object interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(object)
}

func ErrResponseInJson(w http.ResponseWriter, err error) {
	statusCode := statusFor(err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrStateConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrAuthDenied):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrInvalidReading):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
