package service

import (
	"context"
	"errors"
	"iter"
	"log/slog"

	"github.com/jbweber/homelab/reel/internal/domain"
	"github.com/jbweber/homelab/reel/internal/events"
	"github.com/jbweber/homelab/reel/internal/repository"
	"github.com/jbweber/homelab/reel/internal/validator"
)

// MovieService holds the business rules for movies.
type MovieService struct {
	repo      repository.MovieRepository
	publisher events.Publisher
	logger    *slog.Logger
}

// NewMovieService wires a service to its collaborators. A nil publisher
// discards events and a nil logger falls back to slog.Default().
func NewMovieService(repo repository.MovieRepository, publisher events.Publisher, logger *slog.Logger) *MovieService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MovieService{repo: repo, publisher: publisher, logger: logger}
}

// FindAll streams every movie in store order. Store errors end the stream as
// StoreFailure.
func (s *MovieService) FindAll(ctx context.Context) iter.Seq2[domain.Movie, error] {
	return func(yield func(domain.Movie, error) bool) {
		for movie, err := range s.repo.FindAll(ctx) {
			if err != nil {
				yield(domain.Movie{}, Wrap(StoreFailure, err, "failed to list movies"))
				return
			}
			if !yield(movie, nil) {
				return
			}
		}
	}
}

// FindByID returns the movie with id, or a NotFound failure.
func (s *MovieService) FindByID(ctx context.Context, id int64) (domain.Movie, error) {
	movie, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Movie{}, Wrap(NotFound, err, "Movie with id %d not found", id)
		}
		return domain.Movie{}, Wrap(StoreFailure, err, "failed to find movie %d", id)
	}
	return movie, nil
}

// Save persists a movie. The name must already be validated by the caller.
func (s *MovieService) Save(ctx context.Context, movie domain.Movie) (domain.Movie, error) {
	created := movie.IsNew()

	saved, err := s.repo.Save(ctx, movie)
	if err != nil {
		return domain.Movie{}, Wrap(StoreFailure, err, "failed to save movie")
	}

	if created {
		s.publish(ctx, events.MovieCreated, saved)
	} else {
		s.publish(ctx, events.MovieUpdated, saved)
	}
	return saved, nil
}

// Update renames the stored movie with id. Only the name is taken from movie;
// the stored ID is kept. Nothing is written when id does not exist.
func (s *MovieService) Update(ctx context.Context, id int64, movie domain.Movie) error {
	existing, err := s.FindByID(ctx, id)
	if err != nil {
		return err
	}

	saved, err := s.repo.Save(ctx, existing.WithName(movie.Name))
	if err != nil {
		return Wrap(StoreFailure, err, "failed to update movie %d", id)
	}

	s.publish(ctx, events.MovieUpdated, saved)
	return nil
}

// Delete removes the movie with id. Nothing is written when id does not exist.
func (s *MovieService) Delete(ctx context.Context, id int64) error {
	existing, err := s.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, existing); err != nil {
		return Wrap(StoreFailure, err, "failed to delete movie %d", id)
	}

	s.publish(ctx, events.MovieDeleted, existing)
	return nil
}

// SaveAll saves movies in one transaction and streams each saved movie. The
// first blank name ends the stream with InvalidInput: movies emitted before it
// are not retracted from the stream, but the transaction is rolled back so none
// of them is stored. Events are published only once the batch is committed.
func (s *MovieService) SaveAll(ctx context.Context, movies []domain.Movie) iter.Seq2[domain.Movie, error] {
	return func(yield func(domain.Movie, error) bool) {
		saved := make([]domain.Movie, 0, len(movies))

		for movie, err := range s.repo.SaveAll(ctx, withValidNames(movies)) {
			if err != nil {
				var failure *Error
				if !errors.As(err, &failure) {
					err = Wrap(StoreFailure, err, "failed to save movies")
				}
				yield(domain.Movie{}, err)
				return
			}

			saved = append(saved, movie)
			if !yield(movie, nil) {
				return
			}
		}

		for _, movie := range saved {
			s.publish(ctx, events.MovieCreated, movie)
		}
	}
}

// withValidNames yields movies in order and stops with InvalidInput at the
// first blank or overlong name.
func withValidNames(movies []domain.Movie) iter.Seq2[domain.Movie, error] {
	return func(yield func(domain.Movie, error) bool) {
		for i, movie := range movies {
			if !validator.NotBlank(movie.Name) {
				yield(domain.Movie{}, Errorf(InvalidInput, "Invalid name for movie at index %d", i))
				return
			}
			if !validator.MaxChars(movie.Name, domain.MaxNameLength) {
				yield(domain.Movie{}, Errorf(InvalidInput,
					"Name of movie at index %d must not be more than %d characters long", i, domain.MaxNameLength))
				return
			}
			if !yield(movie, nil) {
				return
			}
		}
	}
}

func (s *MovieService) publish(ctx context.Context, t events.Type, movie domain.Movie) {
	if err := s.publisher.Publish(ctx, events.NewMovieEvent(t, movie)); err != nil {
		s.logger.Warn("failed to publish movie event",
			slog.String("event", string(t)),
			slog.Int64("movie_id", movie.ID),
			slog.Any("error", err),
		)
	}
}
