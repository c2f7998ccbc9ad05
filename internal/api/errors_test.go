package api

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jbweber/homelab/reel/internal/domain"
	"github.com/jbweber/homelab/reel/internal/service"
)

func notFoundService() *mockMovieService {
	return &mockMovieService{
		findByID: func(_ context.Context, id int64) (domain.Movie, error) {
			return domain.Movie{}, service.Errorf(service.NotFound, "Movie with id %d not found", id)
		},
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"not found", service.Errorf(service.NotFound, "gone"), http.StatusNotFound, "gone"},
		{"invalid input", service.Errorf(service.InvalidInput, "bad"), http.StatusBadRequest, "bad"},
		{"store failure", service.Wrap(service.StoreFailure, errors.New("disk full"), "failed"), http.StatusInternalServerError, internalErrorMessage},
		{"unclassified", errors.New("boom"), http.StatusInternalServerError, internalErrorMessage},
		{"wrapped not found", fmt.Errorf("lookup: %w", service.Errorf(service.NotFound, "gone")), http.StatusNotFound, "gone"},
		{"http error", &httpError{status: http.StatusTooManyRequests, message: "slow down"}, http.StatusTooManyRequests, "slow down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, message := classify(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.message, message)
		})
	}
}

func TestErrorResponse_Body(t *testing.T) {
	before := time.Now().UTC().Add(-time.Second)
	w := doRequest(t, setupTestRouter(t, notFoundService()), http.MethodGet, "/movies/4", nil)

	resp := decodeError(t, w)
	assert.Equal(t, "/movies/4", resp.Path)
	assert.Equal(t, http.StatusNotFound, resp.Status)
	assert.Equal(t, "Not Found", resp.Error)
	assert.Equal(t, w.Header().Get(RequestIDHeader), resp.RequestID)
	assert.True(t, resp.Timestamp.After(before))
	assert.Empty(t, resp.Trace)
}

func TestErrorResponse_Trace(t *testing.T) {
	tests := []struct {
		query string
		trace bool
	}{
		{"?trace=true", true},
		{"?trace=1", true},
		{"?trace=false", false},
		{"?trace=yes", false},
		{"?strace=true", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := doRequest(t, setupTestRouter(t, notFoundService()), http.MethodGet, "/movies/4"+tt.query, nil)

			resp := decodeError(t, w)
			if tt.trace {
				assert.Contains(t, resp.Trace, "*service.Error: Movie with id 4 not found")
				assert.Contains(t, resp.Trace, "notFoundService")
			} else {
				assert.Empty(t, resp.Trace)
			}
		})
	}
}

func TestTraceOf_Chain(t *testing.T) {
	cause := errors.New("no such table: movies")
	err := fmt.Errorf("handler: %w", service.Wrap(service.StoreFailure, cause, "failed to list movies"))

	trace := traceOf(err)
	assert.Contains(t, trace, "handler: failed to list movies: no such table: movies")
	assert.Contains(t, trace, "*errors.errorString: no such table: movies")
	assert.Contains(t, trace, "TestTraceOf_Chain")
}

func TestUnknownRoute(t *testing.T) {
	w := doRequest(t, setupTestRouter(t, &mockMovieService{}), http.MethodGet, "/actors", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, http.StatusNotFound, resp.Status)
	assert.Equal(t, "the requested resource could not be found", resp.Message)
}

func TestMethodNotAllowed(t *testing.T) {
	w := doRequest(t, setupTestRouter(t, &mockMovieService{}), http.MethodPatch, "/movies/1", nil)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "the PATCH method is not supported for this resource", decodeError(t, w).Message)
}

func TestRecoverPanic(t *testing.T) {
	svc := &mockMovieService{
		findByID: func(context.Context, int64) (domain.Movie, error) {
			panic("nil map write")
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/movies/1", nil)
	w := httptest.NewRecorder()
	setupTestRouter(t, svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "close", w.Header().Get("Connection"))
	resp := decodeError(t, w)
	assert.Equal(t, internalErrorMessage, resp.Message)
	_, err := uuid.Parse(resp.RequestID)
	require.NoError(t, err)
}

func TestRecoverPanic_AfterResponseStarted(t *testing.T) {
	svc := &mockMovieService{
		findAll: func(context.Context) iter.Seq2[domain.Movie, error] {
			return func(yield func(domain.Movie, error) bool) {
				if !yield(domain.Movie{ID: 1, Name: "Alien"}, nil) {
					return
				}
				panic("cursor exploded")
			}
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/movies", nil)
	w := httptest.NewRecorder()
	h := setupTestRouter(t, svc)
	assert.PanicsWithValue(t, http.ErrAbortHandler, func() { h.ServeHTTP(w, req) })

	// The 200 already sent is not followed by an error document.
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Connection"))
	assert.Equal(t, `[{"id":1,"name":"Alien"}`, w.Body.String())
}
