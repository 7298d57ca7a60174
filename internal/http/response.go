package http

import (
	"encoding/json"
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"rentroll/internal/log"
	"rentroll/internal/records"
)

type errorBody struct {
	Error  string            `json:"error"`
	Fields validation.Errors `json:"fields,omitempty"`
}

// badRequest marks errors caused by malformed query parameters or bodies.
type badRequest struct {
	msg string
	err error
}

func (e *badRequest) Error() string {
	if e.err != nil {
		return e.msg + ": " + e.err.Error()
	}
	return e.msg
}

func (e *badRequest) Unwrap() error { return e.err }

func newBadRequest(msg string, err error) error {
	return &badRequest{msg: msg, err: err}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to a status: 400 for bad input, 422 for validation
// failures, 404 for missing records and 500 otherwise.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var br *badRequest
	var verrs validation.Errors
	switch {
	case errors.As(err, &br):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: br.Error()})
	case errors.As(err, &verrs):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: "validation failed", Fields: verrs})
	case errors.Is(err, records.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
	default:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldPath, r.URL.Path,
			log.FieldError, err.Error())
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}
