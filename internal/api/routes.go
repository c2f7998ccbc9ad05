package api

import (
	"context"
	"iter"
	"net/http"

	"github.com/jbweber/homelab/reel/internal/domain"
)

// request carries the bound and validated input of a route.
type request struct {
	ID     int64
	Movie  domain.Movie
	Movies []domain.Movie
}

// Binder decodes and validates one part of the request before the endpoint
// runs.
type Binder func(w http.ResponseWriter, r *http.Request, req *request) error

// Endpoint runs the operation behind a route. A nil result renders no body;
// a movie stream is written as a JSON array; anything else is encoded as JSON.
type Endpoint func(ctx context.Context, req request) (any, error)

// Route is one row of the route table.
type Route struct {
	Method  string
	Pattern string
	Status  int
	Bind    []Binder
	Handle  Endpoint
}

// handle adapts a route to an http.HandlerFunc. Failures from binding or the
// endpoint are rendered once by the error mapper.
func (a *API) handle(rt Route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		for _, bind := range rt.Bind {
			if err := bind(w, r, &req); err != nil {
				a.writeError(w, r, err)
				return
			}
		}

		result, err := rt.Handle(r.Context(), req)
		if err != nil {
			a.writeError(w, r, err)
			return
		}

		switch v := result.(type) {
		case nil:
			w.WriteHeader(rt.Status)
		case iter.Seq2[domain.Movie, error]:
			a.writeMovieStream(w, r, rt.Status, v)
		default:
			a.writeJSON(w, rt.Status, v)
		}
	}
}
