// Package events publishes movie change notifications to interested
// consumers. Publishing is best effort: callers log failures and carry on.
package events

import (
	"context"
	"time"

	"github.com/jbweber/homelab/reel/internal/domain"
)

// Type identifies what happened to a movie. It doubles as the routing key.
type Type string

const (
	MovieCreated Type = "movie.created"
	MovieUpdated Type = "movie.updated"
	MovieDeleted Type = "movie.deleted"
)

// MovieEvent is the message payload sent for every movie change.
type MovieEvent struct {
	Type       Type      `json:"type"`
	MovieID    int64     `json:"movieId"`
	Name       string    `json:"name"`
	OccurredAt time.Time `json:"occurredAt"`
}

// NewMovieEvent builds an event for movie stamped with the current UTC time.
func NewMovieEvent(t Type, movie domain.Movie) MovieEvent {
	return MovieEvent{
		Type:       t,
		MovieID:    movie.ID,
		Name:       movie.Name,
		OccurredAt: time.Now().UTC(),
	}
}

// Publisher delivers movie events.
type Publisher interface {
	Publish(ctx context.Context, event MovieEvent) error
	Close() error
}

// Noop discards every event. It is used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, MovieEvent) error { return nil }

func (Noop) Close() error { return nil }
