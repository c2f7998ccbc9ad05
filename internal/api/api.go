package api

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jbweber/homelab/reel/internal/domain"
)

// MovieService is what the movie endpoints need from the service layer.
type MovieService interface {
	FindAll(ctx context.Context) iter.Seq2[domain.Movie, error]
	FindByID(ctx context.Context, id int64) (domain.Movie, error)
	Save(ctx context.Context, movie domain.Movie) (domain.Movie, error)
	Update(ctx context.Context, id int64, movie domain.Movie) error
	Delete(ctx context.Context, id int64) error
	SaveAll(ctx context.Context, movies []domain.Movie) iter.Seq2[domain.Movie, error]
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RateLimitOptions configures per-client token bucket limiting.
type RateLimitOptions struct {
	Enabled bool
	RPS     float64
	Burst   int
}

// Options tunes the HTTP surface.
type Options struct {
	Logger    *slog.Logger
	RateLimit RateLimitOptions

	// TrustProxyHeaders takes the client address from X-Forwarded-For and
	// X-Real-IP. Enable it only behind a proxy that overwrites them.
	TrustProxyHeaders bool
}

// API serves the movie endpoints
type API struct {
	movies  *Movies
	health  *Health
	logger  *slog.Logger
	limiter *rateLimiter

	trustProxyHeaders bool
}

// NewAPI creates a new API instance around the movie service
func NewAPI(svc MovieService, pinger Pinger, opts Options) *API {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	a := &API{
		movies: NewMovies(svc),
		health: NewHealth(pinger),
		logger: logger,

		trustProxyHeaders: opts.TrustProxyHeaders,
	}
	if opts.RateLimit.Enabled {
		a.limiter = newRateLimiter(opts.RateLimit.RPS, opts.RateLimit.Burst)
	}
	return a
}

// Handler builds the complete router with middleware and error handlers.
func (a *API) Handler() http.Handler {
	r := chi.NewRouter()

	if a.trustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(a.requestID)
	r.Use(a.logRequests)
	r.Use(a.recoverPanic)
	r.Use(middleware.CleanPath)
	if a.limiter != nil {
		r.Use(a.rateLimit)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		a.writeError(w, r, &httpError{status: http.StatusNotFound, message: "the requested resource could not be found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		a.writeError(w, r, &httpError{
			status:  http.StatusMethodNotAllowed,
			message: fmt.Sprintf("the %s method is not supported for this resource", r.Method),
		})
	})

	a.RegisterRoutes(r)
	return r
}

// RegisterRoutes registers all API endpoints to the given chi router.
func (a *API) RegisterRoutes(r chi.Router) {
	for _, rt := range a.movies.Routes() {
		r.Method(rt.Method, rt.Pattern, a.handle(rt))
	}
	for _, rt := range a.health.Routes() {
		r.Method(rt.Method, rt.Pattern, a.handle(rt))
	}
}
