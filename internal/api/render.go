package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jbweber/homelab/reel/internal/domain"
)

const maxBodyBytes = 1_048_576

func (a *API) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.logger.Error("failed to encode response", slog.Any("error", err))
	}
}

// writeMovieStream writes movies as a JSON array while they are pulled from
// the stream. A failure before the first movie is rendered by the error
// mapper; a failure after the header went out can only abort the response.
func (a *API) writeMovieStream(w http.ResponseWriter, r *http.Request, status int, movies iter.Seq2[domain.Movie, error]) {
	next, stop := iter.Pull2(movies)
	defer stop()

	movie, err, ok := next()
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if !ok {
		if _, err := io.WriteString(w, "[]\n"); err != nil {
			a.logger.Error("failed to write empty movie list", slog.Any("error", err))
		}
		return
	}

	if _, err := io.WriteString(w, "["); err != nil {
		a.logger.Error("failed to write movie list", slog.Any("error", err))
		return
	}
	for first := true; ok; first = false {
		if !first {
			if _, err := io.WriteString(w, ","); err != nil {
				a.logger.Error("failed to write movie list", slog.Any("error", err))
				return
			}
		}
		b, err := json.Marshal(toMovieResponse(movie))
		if err != nil {
			a.logger.Error("failed to encode movie", slog.Any("error", err))
			return
		}
		if _, err := w.Write(b); err != nil {
			a.logger.Error("failed to write movie list", slog.Any("error", err))
			return
		}

		movie, err, ok = next()
		if err != nil {
			a.logger.Error("movie stream failed mid-response",
				slog.String("request_id", RequestIDFrom(r.Context())),
				slog.Any("error", err),
			)
			return
		}
	}
	if _, err := io.WriteString(w, "]\n"); err != nil {
		a.logger.Error("failed to write movie list", slog.Any("error", err))
	}
}

// readJSON decodes exactly one JSON value from the body into dst. Unknown
// fields and bodies over 1MB are rejected.
func readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var maxBytesError *http.MaxBytesError

		switch {
		case errors.As(err, &syntaxError):
			return badRequest("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return badRequest("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return badRequest("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return badRequest("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return badRequest("body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			return badRequest("body contains unknown key %s", strings.TrimPrefix(err.Error(), "json: unknown field "))
		case errors.As(err, &maxBytesError):
			return &httpError{
				status:  http.StatusRequestEntityTooLarge,
				message: fmt.Sprintf("body must not be larger than %d bytes", maxBytesError.Limit),
			}
		default:
			return err
		}
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return badRequest("body must only contain a single JSON value")
	}
	return nil
}
