package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jbweber/homelab/reel/internal/domain"
	"github.com/jbweber/homelab/reel/internal/validator"
)

// MovieRequest is the JSON body accepted when creating or updating a movie.
type MovieRequest struct {
	ID   *int64 `json:"id"`
	Name string `json:"name"`
}

// MovieResponse is the JSON representation of a movie. ID is null for a
// movie that was never persisted.
type MovieResponse struct {
	ID   *int64 `json:"id"`
	Name string `json:"name"`
}

func (m MovieRequest) toDomain() domain.Movie {
	movie := domain.Movie{Name: m.Name}
	if m.ID != nil {
		movie.ID = *m.ID
	}
	return movie
}

func toMovieResponse(m domain.Movie) MovieResponse {
	resp := MovieResponse{Name: m.Name}
	if !m.IsNew() {
		id := m.ID
		resp.ID = &id
	}
	return resp
}

// Movies groups the movie handlers for testability
type Movies struct {
	svc MovieService
}

func NewMovies(svc MovieService) *Movies {
	return &Movies{svc: svc}
}

// Routes is the movie route table.
func (m *Movies) Routes() []Route {
	return []Route{
		{Method: http.MethodGet, Pattern: "/movies", Status: http.StatusOK, Handle: m.list},
		{Method: http.MethodGet, Pattern: "/movies/{id}", Status: http.StatusOK, Bind: []Binder{bindID}, Handle: m.get},
		{Method: http.MethodPost, Pattern: "/movies", Status: http.StatusCreated, Bind: []Binder{bindMovie}, Handle: m.create},
		{Method: http.MethodPost, Pattern: "/movies/batch", Status: http.StatusCreated, Bind: []Binder{bindMovies}, Handle: m.createBatch},
		{Method: http.MethodPut, Pattern: "/movies/{id}", Status: http.StatusOK, Bind: []Binder{bindID, bindMovie}, Handle: m.update},
		{Method: http.MethodDelete, Pattern: "/movies/{id}", Status: http.StatusNoContent, Bind: []Binder{bindID}, Handle: m.delete},
	}
}

func (m *Movies) list(ctx context.Context, _ request) (any, error) {
	return m.svc.FindAll(ctx), nil
}

func (m *Movies) get(ctx context.Context, req request) (any, error) {
	movie, err := m.svc.FindByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	return toMovieResponse(movie), nil
}

func (m *Movies) create(ctx context.Context, req request) (any, error) {
	saved, err := m.svc.Save(ctx, req.Movie)
	if err != nil {
		return nil, err
	}
	return toMovieResponse(saved), nil
}

// createBatch buffers the saved movies so a failure part way through is still
// reported with its own status.
func (m *Movies) createBatch(ctx context.Context, req request) (any, error) {
	saved := make([]MovieResponse, 0, len(req.Movies))
	for movie, err := range m.svc.SaveAll(ctx, req.Movies) {
		if err != nil {
			return nil, err
		}
		saved = append(saved, toMovieResponse(movie))
	}
	return saved, nil
}

func (m *Movies) update(ctx context.Context, req request) (any, error) {
	return nil, m.svc.Update(ctx, req.ID, req.Movie)
}

func (m *Movies) delete(ctx context.Context, req request) (any, error) {
	return nil, m.svc.Delete(ctx, req.ID)
}

func bindID(_ http.ResponseWriter, r *http.Request, req *request) error {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return badRequest("invalid movie id %q", idStr)
	}
	req.ID = id
	return nil
}

func bindMovie(w http.ResponseWriter, r *http.Request, req *request) error {
	var body MovieRequest
	if err := readJSON(w, r, &body); err != nil {
		return err
	}

	v := validator.New()
	v.Check(validator.NotBlank(body.Name), "name", "the name of the movie cannot be blank")
	v.Check(validator.MaxChars(body.Name, domain.MaxNameLength), "name",
		fmt.Sprintf("must not be more than %d characters long", domain.MaxNameLength))
	if !v.Valid() {
		return badRequest("%s", v.Summary())
	}

	req.Movie = body.toDomain()
	return nil
}

// bindMovies only decodes the batch; names are checked by the service as the
// batch is saved, with the same rules bindMovie applies.
func bindMovies(w http.ResponseWriter, r *http.Request, req *request) error {
	var body []MovieRequest
	if err := readJSON(w, r, &body); err != nil {
		return err
	}

	req.Movies = make([]domain.Movie, 0, len(body))
	for _, m := range body {
		req.Movies = append(req.Movies, m.toDomain())
	}
	return nil
}
