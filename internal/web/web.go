// Package web holds shared JSON response helpers for the API handlers.
package web

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/dreslan/tapfi/internal/models"
	"github.com/dreslan/tapfi/internal/services/statement"
	"github.com/dreslan/tapfi/internal/services/tracker"
)

// JSON writes v as a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// Error maps an error to a JSON error response. Validation and statement
// format problems are client errors, missing references are 404s, and
// everything else is a 500 with the detail kept in the server log.
func Error(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "internal error"

	var vErr *models.ValidationError
	var fErr *statement.FormatError
	var eErr *statement.EmptyResultError
	switch {
	case errors.As(err, &vErr), errors.As(err, &fErr), errors.As(err, &eErr):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, tracker.ErrNotFound):
		status = http.StatusNotFound
		message = err.Error()
	}

	log.Printf("Error: %v (status %d)", err, status)
	JSON(w, status, map[string]string{"error": message})
}

// Decode reads a JSON request body into v, rejecting unknown fields.
func Decode(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &models.ValidationError{Field: "body", Message: "invalid JSON request body"}
	}
	return nil
}
