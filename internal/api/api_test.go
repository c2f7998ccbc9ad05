package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"iter"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jbweber/homelab/reel/internal/domain"
)

// mockMovieService delegates to whichever func fields a test sets.
type mockMovieService struct {
	findAll  func(ctx context.Context) iter.Seq2[domain.Movie, error]
	findByID func(ctx context.Context, id int64) (domain.Movie, error)
	save     func(ctx context.Context, movie domain.Movie) (domain.Movie, error)
	update   func(ctx context.Context, id int64, movie domain.Movie) error
	delete   func(ctx context.Context, id int64) error
	saveAll  func(ctx context.Context, movies []domain.Movie) iter.Seq2[domain.Movie, error]
}

func (m *mockMovieService) FindAll(ctx context.Context) iter.Seq2[domain.Movie, error] {
	return m.findAll(ctx)
}

func (m *mockMovieService) FindByID(ctx context.Context, id int64) (domain.Movie, error) {
	return m.findByID(ctx, id)
}

func (m *mockMovieService) Save(ctx context.Context, movie domain.Movie) (domain.Movie, error) {
	return m.save(ctx, movie)
}

func (m *mockMovieService) Update(ctx context.Context, id int64, movie domain.Movie) error {
	return m.update(ctx, id, movie)
}

func (m *mockMovieService) Delete(ctx context.Context, id int64) error {
	return m.delete(ctx, id)
}

func (m *mockMovieService) SaveAll(ctx context.Context, movies []domain.Movie) iter.Seq2[domain.Movie, error] {
	return m.saveAll(ctx, movies)
}

type mockPinger struct {
	err error
}

func (p *mockPinger) Ping(context.Context) error {
	return p.err
}

// streamOf yields movies in order, then err if it is not nil.
func streamOf(err error, movies ...domain.Movie) iter.Seq2[domain.Movie, error] {
	return func(yield func(domain.Movie, error) bool) {
		for _, m := range movies {
			if !yield(m, nil) {
				return
			}
		}
		if err != nil {
			yield(domain.Movie{}, err)
		}
	}
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func setupTestRouter(t *testing.T, svc MovieService) http.Handler {
	t.Helper()
	return NewAPI(svc, &mockPinger{}, Options{Logger: discardLogger}).Handler()
}

func doRequest(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, target, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "body: %s", w.Body.String())
	return resp
}
