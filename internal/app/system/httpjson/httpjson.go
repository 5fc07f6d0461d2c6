// Package httpjson standardizes JSON responses and the mapping from the
// domain error taxonomy to HTTP status codes, so every feature answers
// errors the same way.
package httpjson

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/melodykit/melodyshare/internal/domain/apperr"
)

// Write encodes v as JSON with the given status.
func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ErrorBody is the uniform error payload.
type ErrorBody struct {
	Error             string `json:"error"`
	Field             string `json:"field,omitempty"`
	RetryAfterSeconds int64  `json:"retry_after_seconds,omitempty"`
}

// Error maps err onto a status code and writes the uniform payload.
// Unexpected errors are logged and answered as a bare 500 so internals never
// leak to the client.
func Error(w http.ResponseWriter, log *zap.Logger, err error) {
	var ve *apperr.ValidationError
	if errors.As(err, &ve) {
		Write(w, http.StatusBadRequest, ErrorBody{Error: ve.Reason, Field: ve.Field})
		return
	}

	var nf *apperr.NotFoundError
	if errors.As(err, &nf) {
		Write(w, http.StatusNotFound, ErrorBody{Error: nf.Error()})
		return
	}

	if retry, ok := apperr.IsRateLimited(err); ok {
		secs := int64(retry.Seconds())
		if secs < 1 {
			secs = 1
		}
		Write(w, http.StatusTooManyRequests, ErrorBody{
			Error:             "you can share one song per day",
			RetryAfterSeconds: secs,
		})
		return
	}

	if errors.Is(err, apperr.ErrNotInCommunity) {
		Write(w, http.StatusConflict, ErrorBody{Error: "join a community first"})
		return
	}
	if errors.Is(err, apperr.ErrMoodRequired) {
		Write(w, http.StatusBadRequest, ErrorBody{Error: "a mood selection is required", Field: "mood"})
		return
	}

	if apperr.IsStoreUnavailable(err) {
		log.Error("store unavailable", zap.Error(err))
		Write(w, http.StatusServiceUnavailable, ErrorBody{Error: "temporarily unavailable, try again"})
		return
	}

	log.Error("unhandled error", zap.Error(err))
	Write(w, http.StatusInternalServerError, ErrorBody{Error: "internal error"})
}
