package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/capitalize-ai/hotel-ops-console/internal/analytics"
	"github.com/capitalize-ai/hotel-ops-console/internal/model"
	"github.com/capitalize-ai/hotel-ops-console/internal/session"
	"github.com/capitalize-ai/hotel-ops-console/internal/vision"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

// decodeJSON decodes a bounded request body. An empty body leaves v as is.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrAlreadyActive),
		errors.Is(err, session.ErrNoActiveSession),
		errors.Is(err, session.ErrSessionEnded),
		errors.Is(err, analytics.ErrDuplicateCustomer):
		return http.StatusConflict
	case errors.Is(err, analytics.ErrCustomerNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrInvalidSatisfaction),
		errors.Is(err, model.ErrInvalidSpend),
		errors.Is(err, model.ErrInvalidSatisfaction),
		errors.Is(err, model.ErrInvalidChurn),
		errors.Is(err, model.ErrMissingCustomerID),
		errors.Is(err, vision.ErrEmptyImage),
		errors.Is(err, vision.ErrNotAnImage):
		return http.StatusBadRequest
	case errors.Is(err, vision.ErrImageTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}
