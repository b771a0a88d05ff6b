// Package jsonapi writes the single response envelope used by every endpoint:
//
//	{"ok": true,  "data": ...}
//	{"ok": false, "error": {"code": "...", "message": "..."}}
package jsonapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dalemusser/studentportal/internal/app/system/apperr"
	"github.com/dalemusser/studentportal/internal/app/system/metrics"
	"github.com/dalemusser/studentportal/internal/app/system/observability"
	"go.uber.org/zap"
)

// MaxBodyBytes caps request bodies read by Decode.
const MaxBodyBytes = 1 << 20

type envelope struct {
	OK    bool       `json:"ok"`
	Data  any        `json:"data,omitempty"`
	Error *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteOK writes a success envelope with the given status.
func WriteOK(w http.ResponseWriter, status int, data any) {
	write(w, status, envelope{OK: true, Data: data})
}

// WriteError classifies err and writes the error envelope. Server errors are
// logged with the request path and reported to Sentry; the client only sees
// a generic message.
func WriteError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	kind := apperr.KindOf(err)
	if kind == "" {
		kind = apperr.ServerError
	}
	if kind == apperr.ServerError {
		if logger != nil {
			logger.Error("request failed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Error(err))
		}
		observability.CaptureErr(err)
	}
	metrics.HTTPErrors.WithLabelValues(string(kind)).Inc()
	write(w, kind.Status(), envelope{
		OK:    false,
		Error: &errorBody{Code: string(kind), Message: apperr.MessageOf(err)},
	})
}

// Fail is shorthand for WriteError with a freshly classified error.
func Fail(w http.ResponseWriter, r *http.Request, kind apperr.Kind, msg string) {
	WriteError(w, r, nil, apperr.E(kind, msg))
}

// Decode reads a JSON body into dst. Malformed or oversized bodies are BadRequest.
func Decode(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.Body == nil {
		return apperr.E(apperr.BadRequest, "request body is required")
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.E(apperr.BadRequest, "request body is required")
		}
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return apperr.E(apperr.BadRequest, "request body too large")
		}
		return apperr.Wrap(apperr.BadRequest, "invalid JSON body", err)
	}
	return nil
}

func write(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
