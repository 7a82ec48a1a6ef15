package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"mpijobctl/internal/mpijob"
	"mpijobctl/internal/store"
	"mpijobctl/pkg/types"
)

// statusFor maps a client error to an HTTP status code.
func statusFor(err error) int {
	switch {
	case mpijob.IsValidation(err), mpijob.IsParse(err):
		return http.StatusBadRequest
	case mpijob.IsNotFound(err), store.IsNotFound(err):
		return http.StatusNotFound
	}
	var re *store.RemoteError
	if errors.As(err, &re) {
		// status 0 means the request never got an answer
		if re.Status == 0 {
			return http.StatusBadGateway
		}
		return re.Status
	}
	return http.StatusInternalServerError
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: status})
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
