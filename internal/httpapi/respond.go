package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"venue-crm/internal/apperror"
)

type errorResponse struct {
	OK      bool                `json:"ok"`
	Error   string              `json:"error"`
	Details []map[string]string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError maps err onto its status code. Internal errors are not echoed to the client.
func writeError(w http.ResponseWriter, err error) {
	status := apperror.StatusCode(err)
	resp := errorResponse{Error: err.Error()}

	var validationErr *apperror.ValidationError
	if errors.As(err, &validationErr) {
		resp.Details = validationErr.Details
	}
	if status == http.StatusInternalServerError {
		resp.Error = "internal error"
	}
	writeJSON(w, status, resp)
}

// decodeJSON reads an optional JSON body into dst. An empty body leaves dst untouched.
func decodeJSON(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return apperror.Validation("invalid request payload")
}
