package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dd0wney/cluso-storymap/pkg/logging"
	"github.com/dd0wney/cluso-storymap/pkg/validation"
)

// sanitizeError logs err in full and returns a message safe for clients
func (s *Server) sanitizeError(err error, operation string) string {
	if err == nil {
		return ""
	}
	s.logger.Error("request failed", logging.Operation(operation), logging.Error(err))
	return fmt.Sprintf("%s failed", operation)
}

// statusForError maps layout errors to HTTP statuses
func statusForError(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, validation.ErrInvalidRequest),
		errors.Is(err, validation.ErrTooManyNodes),
		errors.Is(err, validation.ErrTooManyLinks):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// requestDecoder decodes and validates request bodies.
// It provides a fluent interface for common request handling patterns.
type requestDecoder struct {
	r          *http.Request
	w          http.ResponseWriter
	server     *Server
	err        error
	statusCode int
}

// NewRequestDecoder creates a new request decoder for the given request.
func (s *Server) NewRequestDecoder(w http.ResponseWriter, r *http.Request) *requestDecoder {
	return &requestDecoder{r: r, w: w, server: s}
}

func (rd *requestDecoder) fail(err error) *requestDecoder {
	rd.err = err
	rd.statusCode = statusForError(err)
	if rd.statusCode >= http.StatusInternalServerError {
		rd.statusCode = http.StatusBadRequest
	}
	return rd
}

// DecodeJSON decodes the request body into v
func (rd *requestDecoder) DecodeJSON(v any) *requestDecoder {
	if rd.err != nil {
		return rd
	}
	if err := json.NewDecoder(rd.r.Body).Decode(v); err != nil {
		return rd.fail(fmt.Errorf("invalid request body: %w", err))
	}
	return rd
}

// ValidateLayout checks a layout request's graph and viewport
func (rd *requestDecoder) ValidateLayout(req *LayoutRequest) *requestDecoder {
	if rd.err != nil {
		return rd
	}
	if err := rd.server.validateLayout(req); err != nil {
		return rd.fail(err)
	}
	return rd
}

// ValidateBatch checks the batch size and every entry, naming the first
// bad entry by index
func (rd *requestDecoder) ValidateBatch(req *BatchLayoutRequest) *requestDecoder {
	if rd.err != nil {
		return rd
	}
	if err := validation.ValidateBatchSize(len(req.Requests)); err != nil {
		return rd.fail(err)
	}
	for i := range req.Requests {
		if err := rd.server.validateLayout(&req.Requests[i]); err != nil {
			return rd.fail(fmt.Errorf("requests[%d]: %w", i, err))
		}
	}
	return rd
}

// RespondError sends the error response and returns true if there was an error.
func (rd *requestDecoder) RespondError() bool {
	if rd.err == nil {
		return false
	}
	rd.server.respondError(rd.w, rd.statusCode, rd.err.Error())
	return true
}

// methodRouter routes requests based on HTTP method.
type methodRouter struct {
	w       http.ResponseWriter
	r       *http.Request
	server  *Server
	handled bool
}

// NewMethodRouter creates a new method router.
func (s *Server) NewMethodRouter(w http.ResponseWriter, r *http.Request) *methodRouter {
	return &methodRouter{w: w, r: r, server: s}
}

// Get handles GET requests with the provided handler.
func (mr *methodRouter) Get(handler func()) *methodRouter {
	if !mr.handled && mr.r.Method == http.MethodGet {
		handler()
		mr.handled = true
	}
	return mr
}

// Post handles POST requests with the provided handler.
func (mr *methodRouter) Post(handler func()) *methodRouter {
	if !mr.handled && mr.r.Method == http.MethodPost {
		handler()
		mr.handled = true
	}
	return mr
}

// NotAllowed sends a 405 response if no method matched.
func (mr *methodRouter) NotAllowed() {
	if !mr.handled {
		mr.server.respondError(mr.w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("encoding JSON response", logging.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	})
}
