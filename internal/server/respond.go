package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/forPelevin/hookscan/internal/apperr"
)

type errorResponse struct {
	Status    string `json:"status"`
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

const encodeFailureBody = `{"status":"error","error":"internal server error"}` + "\n"

// writeJSON encodes payload before writing the header, so an unencodable
// payload becomes a 500 instead of a truncated 200.
func writeJSON(w http.ResponseWriter, code int, payload any) error {
	b, err := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, encodeFailureBody)
		return fmt.Errorf("encode response: %w", err)
	}
	w.WriteHeader(code)
	if _, err := w.Write(append(b, '\n')); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	return nil
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, code int, payload any) {
	if err := writeJSON(w, code, payload); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": RequestIDFrom(r.Context()),
			"path":       r.URL.Path,
		}).WithError(err).Error("failed to write response")
	}
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	code := apperr.HTTPStatus(err)
	entry := s.log.WithFields(logrus.Fields{
		"request_id": RequestIDFrom(r.Context()),
		"path":       r.URL.Path,
		"status":     code,
		"kind":       apperr.KindOf(err).String(),
	}).WithError(err)
	if code >= 500 {
		entry.Error("request error")
	} else {
		entry.Info("request error")
	}
	s.respond(w, r, code, errorResponse{
		Status:    "error",
		Error:     apperr.PublicMessage(err),
		RequestID: RequestIDFrom(r.Context()),
	})
}

func (s *Server) respondUnavailable(w http.ResponseWriter, r *http.Request, msg string) {
	s.respond(w, r, http.StatusServiceUnavailable, errorResponse{
		Status:    "error",
		Error:     msg,
		RequestID: RequestIDFrom(r.Context()),
	})
}

// readJSON decodes one JSON object from a size-limited body.
func (s *Server) readJSON(w http.ResponseWriter, r *http.Request, op string, v any) error {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		return apperr.Validation(op, "content type must be application/json")
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return apperr.Validation(op, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
		case errors.Is(err, io.EOF):
			return apperr.Validation(op, "request body is empty")
		default:
			return apperr.Validation(op, "invalid JSON body")
		}
	}
	if dec.More() {
		return apperr.Validation(op, "request body must contain a single JSON object")
	}
	return nil
}
