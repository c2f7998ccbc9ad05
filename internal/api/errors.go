package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jbweber/homelab/reel/internal/service"
)

const internalErrorMessage = "the server encountered a problem and could not process your request"

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Path      string    `json:"path"`
	Status    int       `json:"status"`
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	RequestID string    `json:"requestId"`
	Trace     string    `json:"trace,omitempty"`
}

// httpError is a failure raised by the HTTP layer itself: bad input, unknown
// routes, rate limiting.
type httpError struct {
	status  int
	message string
}

func (e *httpError) Error() string {
	return e.message
}

func badRequest(format string, args ...any) error {
	return &httpError{status: http.StatusBadRequest, message: fmt.Sprintf(format, args...)}
}

// classify picks the status and client-facing message for err.
func classify(err error) (int, string) {
	var he *httpError
	if errors.As(err, &he) {
		return he.status, he.message
	}

	var se *service.Error
	if errors.As(err, &se) {
		switch se.Kind {
		case service.NotFound:
			return http.StatusNotFound, se.Message
		case service.InvalidInput:
			return http.StatusBadRequest, se.Message
		}
	}
	return http.StatusInternalServerError, internalErrorMessage
}

// writeError renders err as an ErrorResponse. Server errors are logged with
// their cause and never echoed to the client.
func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := classify(err)
	requestID := RequestIDFrom(r.Context())

	if status >= http.StatusInternalServerError {
		a.logger.Error("request failed",
			slog.String("request_id", requestID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
	}

	resp := ErrorResponse{
		Timestamp: time.Now().UTC(),
		Path:      r.URL.Path,
		Status:    status,
		Error:     http.StatusText(status),
		Message:   message,
		RequestID: requestID,
	}
	if traceRequested(r) {
		resp.Trace = traceOf(err)
	}

	a.writeJSON(w, status, resp)
}

// traceRequested reports whether the query string asks for trace=true.
func traceRequested(r *http.Request) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get("trace"))
	return err == nil && v
}

// traceOf renders the error chain followed by the stack captured where the
// failure was raised, when there is one.
func traceOf(err error) string {
	var b strings.Builder
	for e := err; e != nil; e = errors.Unwrap(e) {
		fmt.Fprintf(&b, "%T: %s\n", e, e)
	}

	var se *service.Error
	if errors.As(err, &se) {
		if st := se.StackTrace(); st != "" {
			b.WriteString("\n")
			b.WriteString(st)
		}
	}
	return b.String()
}
