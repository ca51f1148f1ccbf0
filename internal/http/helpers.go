package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"emipilot/internal/core"
	emilog "emipilot/internal/log"
)

const maxBodyBytes = 1 << 20

const (
	msgEMINotFound    = "EMI not found"
	msgInvalidJSON    = "Invalid JSON body."
	msgInternalError  = "Internal server error"
	msgRouteNotFound  = "Not found"
	msgNotAllowed     = "Method not allowed"
	msgTooManyWrites  = "Too many requests, please try again later."
	fieldNonFieldErrs = "non_field_errors"
)

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors to status codes. Unknown errors are logged
// and reported as 500 without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *core.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, verr.Fields)
	case errors.Is(err, core.ErrInvalidBody):
		writeJSON(w, http.StatusBadRequest, map[string][]string{fieldNonFieldErrs: {msgInvalidJSON}})
	case errors.Is(err, core.ErrNotFound):
		writeJSON(w, http.StatusNotFound, messageResponse{Message: msgEMINotFound})
	default:
		emilog.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			emilog.FieldError, err,
			emilog.FieldMethod, r.Method,
			emilog.FieldPath, r.URL.Path)
		writeJSON(w, http.StatusInternalServerError, messageResponse{Message: msgInternalError})
	}
}

// decodeBody reads a JSON request body into dst. Syntax errors and bodies
// that are not a JSON object are reported as core.ErrInvalidBody.
func decodeBody(w http.ResponseWriter, r *http.Request, dst json.Unmarshaler) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrInvalidBody, err)
	}
	if !json.Valid(body) {
		return core.ErrInvalidBody
	}
	return dst.UnmarshalJSON(body)
}

// pathID parses the {id} route variable. Values outside int64 cannot name a
// stored row and are reported as not found.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("emi %q: %w", mux.Vars(r)["id"], core.ErrNotFound)
	}
	return id, nil
}

func handleRouteNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, messageResponse{Message: msgRouteNotFound})
}

func handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, messageResponse{Message: msgNotAllowed})
}

func handleRateLimited(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusTooManyRequests, messageResponse{Message: msgTooManyWrites})
}

func handleInternalError(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusInternalServerError, messageResponse{Message: msgInternalError})
}
