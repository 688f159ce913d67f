package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"quizzie-service/internal/domain"
)

type envelope struct {
	Status  int    `json:"status"`
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Status  int      `json:"status"`
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Errors  []string `json:"errors"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeSuccess(w http.ResponseWriter, status int, data any, message string) {
	writeJSON(w, status, envelope{Status: status, Success: status < 400, Data: data, Message: message})
}

// writeError is the single place errors become HTTP responses.
func writeError(w http.ResponseWriter, err error) {
	var derr *domain.Error
	if !errors.As(err, &derr) || derr.Kind == domain.KindInternal {
		log.Printf("internal error: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorEnvelope{
			Status:  http.StatusInternalServerError,
			Message: "Something went wrong",
			Errors:  []string{},
		})
		return
	}
	status := statusFor(derr.Kind)
	details := derr.Details
	if details == nil {
		details = []string{}
	}
	writeJSON(w, status, errorEnvelope{Status: status, Message: derr.Message, Errors: details})
}

func statusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindBadRequest:
		return http.StatusBadRequest
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

const maxBodySize = 1 << 20

var (
	errInvalidBody  = domain.BadRequest("Invalid request body")
	errBodyTooLarge = domain.BadRequest("Request body too large")
)

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errBodyTooLarge
		}
		return errInvalidBody
	}
	return nil
}
