package repository

import (
	"context"
	"iter"
)

// Repository defines the basic CRUD operations for any entity type.
// Multi-row results are streams: finite sequences that end after the last row
// or after yielding a non-nil error.
type Repository[T any, ID comparable] interface {
	// Save creates the entity when it has no ID yet, otherwise upserts it
	Save(ctx context.Context, entity T) (T, error)

	// SaveAll saves every entity pulled from entities inside one transaction.
	// An error pulled from entities, or raised by the store, is yielded and the
	// transaction is rolled back. Entities already yielded are not retracted.
	SaveAll(ctx context.Context, entities iter.Seq2[T, error]) iter.Seq2[T, error]

	// FindByID retrieves an entity by its ID
	// Returns ErrNotFound if the entity doesn't exist
	FindByID(ctx context.Context, id ID) (T, error)

	// FindAll streams all entities
	FindAll(ctx context.Context) iter.Seq2[T, error]

	// Delete removes the entity; deleting an absent entity is not an error
	Delete(ctx context.Context, entity T) error

	// DeleteByID removes an entity by its ID; absent IDs are not an error
	DeleteByID(ctx context.Context, id ID) error

	// ExistsByID checks if an entity exists by its ID
	ExistsByID(ctx context.Context, id ID) (bool, error)
}
