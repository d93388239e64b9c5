package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/wildtrails/tours-api/internal/domain"
	"github.com/wildtrails/tours-api/internal/service"
)

// envelope is the uniform response shape across all resource types:
// success carries data (and a result count on lists), fail carries an
// operational message, error is the generic unexpected-failure response.
type envelope struct {
	Status  string `json:"status"`
	Results *int   `json:"results,omitempty"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("ERROR [handlers] encode response: %v", err)
	}
}

func respondData(w http.ResponseWriter, code int, data any) {
	writeJSON(w, code, envelope{Status: "success", Data: data})
}

func respondList(w http.ResponseWriter, results int, data any) {
	writeJSON(w, http.StatusOK, envelope{Status: "success", Results: &results, Data: data})
}

func respondMessage(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, envelope{Status: "success", Message: message})
}

func fail(w http.ResponseWriter, code int, message string) {
	status := "fail"
	if code >= http.StatusInternalServerError {
		status = "error"
	}
	writeJSON(w, code, envelope{Status: status, Message: message})
}

// respondError maps an error onto the envelope. Operational errors are
// surfaced verbatim with their stable status; everything else is logged
// and turned into a generic 500 so internal detail never leaks.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var opErr *domain.Error
	switch {
	case errors.As(err, &opErr):
		fail(w, opErr.Code, opErr.Message)
	case errors.Is(err, domain.ErrNotFound):
		fail(w, http.StatusNotFound, "no document found with that id")
	case errors.Is(err, domain.ErrDuplicate):
		fail(w, http.StatusConflict, "duplicate field value, please use another value")
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidSession),
		errors.Is(err, service.ErrWrongPassword):
		fail(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrEmailExists):
		fail(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrUserNotFound):
		fail(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrResetTokenInvalid):
		fail(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("ERROR [handlers] %s %s: %v", r.Method, r.URL.Path, err)
		fail(w, http.StatusInternalServerError, "something went very wrong")
	}
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domain.BadRequest("invalid request body")
	}
	return nil
}
