package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"

	"github.com/jbweber/homelab/reel/internal/datastore"
	"github.com/jbweber/homelab/reel/internal/domain"
)

// MovieRepository is the storage gateway for movies
type MovieRepository interface {
	Repository[domain.Movie, int64]

	// Close releases the prepared statements. The datastore stays open.
	Close() error
}

type movieQueries struct {
	findAll  string
	findByID string
	exists   string
	insert   string
	upsert   string
	delete   string
}

// movieRepositoryImpl implements MovieRepository on top of database/sql
type movieRepositoryImpl struct {
	ds      *datastore.Datastore
	stmts   *PreparedStatementCache
	queries movieQueries
}

// NewMovieRepository creates a new movie repository
func NewMovieRepository(ds *datastore.Datastore) MovieRepository {
	d := ds.Dialect
	return &movieRepositoryImpl{
		ds:    ds,
		stmts: NewPreparedStatementCache(ds.DB),
		queries: movieQueries{
			findAll:  "SELECT id, name FROM movies ORDER BY id ASC",
			findByID: d.Rebind("SELECT id, name FROM movies WHERE id = ?"),
			exists:   d.Rebind("SELECT COUNT(*) FROM movies WHERE id = ?"),
			insert:   d.Insert("movies", "id", "name"),
			upsert:   d.Upsert("movies", "id", "name"),
			delete:   d.Rebind("DELETE FROM movies WHERE id = ?"),
		},
	}
}

// Save inserts a new movie or upserts one that already carries an ID
func (r *movieRepositoryImpl) Save(ctx context.Context, movie domain.Movie) (domain.Movie, error) {
	return r.save(ctx, nil, movie)
}

// SaveAll saves movies pulled from the source inside a single transaction
func (r *movieRepositoryImpl) SaveAll(ctx context.Context, movies iter.Seq2[domain.Movie, error]) iter.Seq2[domain.Movie, error] {
	return func(yield func(domain.Movie, error) bool) {
		// Prepare outside the transaction so a single-connection pool never
		// waits on itself.
		for _, q := range []string{r.queries.insert, r.queries.upsert} {
			if _, err := r.stmts.Get(ctx, q); err != nil {
				yield(domain.Movie{}, fmt.Errorf("failed to prepare movie statement: %w", err))
				return
			}
		}

		tx, err := r.ds.DB.BeginTx(ctx, nil)
		if err != nil {
			yield(domain.Movie{}, fmt.Errorf("failed to begin transaction: %w", err))
			return
		}
		committed := false
		defer func() {
			if !committed {
				_ = tx.Rollback()
			}
		}()

		for movie, err := range movies {
			if err != nil {
				yield(domain.Movie{}, err)
				return
			}

			saved, err := r.save(ctx, tx, movie)
			if err != nil {
				yield(domain.Movie{}, err)
				return
			}

			if !yield(saved, nil) {
				return
			}
		}

		if err := tx.Commit(); err != nil {
			yield(domain.Movie{}, fmt.Errorf("failed to commit movies: %w", err))
			return
		}
		committed = true
	}
}

// FindByID retrieves a movie by its ID
func (r *movieRepositoryImpl) FindByID(ctx context.Context, id int64) (domain.Movie, error) {
	stmt, err := r.stmts.Get(ctx, r.queries.findByID)
	if err != nil {
		return domain.Movie{}, fmt.Errorf("failed to prepare movie lookup: %w", err)
	}

	var m domain.Movie
	err = stmt.QueryRowContext(ctx, id).Scan(&m.ID, &m.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Movie{}, fmt.Errorf("movie with ID %d: %w", id, ErrNotFound)
		}
		return domain.Movie{}, fmt.Errorf("failed to find movie: %w", err)
	}
	return m, nil
}

// FindAll streams all movies ordered by ID
func (r *movieRepositoryImpl) FindAll(ctx context.Context) iter.Seq2[domain.Movie, error] {
	return func(yield func(domain.Movie, error) bool) {
		rows, err := r.ds.DB.QueryContext(ctx, r.queries.findAll)
		if err != nil {
			yield(domain.Movie{}, fmt.Errorf("failed to list movies: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var m domain.Movie
			if err := rows.Scan(&m.ID, &m.Name); err != nil {
				yield(domain.Movie{}, fmt.Errorf("failed to scan movie: %w", err))
				return
			}
			if !yield(m, nil) {
				return
			}
		}

		if err := rows.Err(); err != nil {
			yield(domain.Movie{}, fmt.Errorf("failed to list movies: %w", err))
		}
	}
}

// Delete removes the given movie
func (r *movieRepositoryImpl) Delete(ctx context.Context, movie domain.Movie) error {
	return r.DeleteByID(ctx, movie.ID)
}

// DeleteByID removes a movie by its ID
func (r *movieRepositoryImpl) DeleteByID(ctx context.Context, id int64) error {
	stmt, err := r.stmts.Get(ctx, r.queries.delete)
	if err != nil {
		return fmt.Errorf("failed to prepare movie delete: %w", err)
	}
	if _, err := stmt.ExecContext(ctx, id); err != nil {
		return fmt.Errorf("failed to delete movie: %w", err)
	}
	return nil
}

// ExistsByID checks if a movie exists by its ID
func (r *movieRepositoryImpl) ExistsByID(ctx context.Context, id int64) (bool, error) {
	stmt, err := r.stmts.Get(ctx, r.queries.exists)
	if err != nil {
		return false, fmt.Errorf("failed to prepare movie existence check: %w", err)
	}

	var count int
	if err := stmt.QueryRowContext(ctx, id).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check movie existence: %w", err)
	}
	return count > 0, nil
}

func (r *movieRepositoryImpl) Close() error {
	return r.stmts.Close()
}

// save writes one movie, on tx when it is not nil
func (r *movieRepositoryImpl) save(ctx context.Context, tx *sql.Tx, movie domain.Movie) (domain.Movie, error) {
	if !movie.IsNew() {
		stmt, err := r.statement(ctx, tx, r.queries.upsert)
		if err != nil {
			return domain.Movie{}, err
		}
		if _, err := stmt.ExecContext(ctx, movie.ID, movie.Name); err != nil {
			return domain.Movie{}, fmt.Errorf("failed to update movie %d: %w", movie.ID, err)
		}
		return movie, nil
	}

	stmt, err := r.statement(ctx, tx, r.queries.insert)
	if err != nil {
		return domain.Movie{}, err
	}

	if r.ds.Dialect.SupportsReturning() {
		if err := stmt.QueryRowContext(ctx, movie.Name).Scan(&movie.ID); err != nil {
			return domain.Movie{}, fmt.Errorf("failed to create movie: %w", err)
		}
		return movie, nil
	}

	res, err := stmt.ExecContext(ctx, movie.Name)
	if err != nil {
		return domain.Movie{}, fmt.Errorf("failed to create movie: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Movie{}, fmt.Errorf("failed to get last insert ID: %w", err)
	}
	movie.ID = id
	return movie, nil
}

// statement returns the cached statement for query, bound to tx when given.
// Statements bound to a transaction are closed when it ends.
func (r *movieRepositoryImpl) statement(ctx context.Context, tx *sql.Tx, query string) (*sql.Stmt, error) {
	stmt, err := r.stmts.Get(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare movie statement: %w", err)
	}
	if tx == nil {
		return stmt, nil
	}
	return tx.StmtContext(ctx, stmt), nil
}
