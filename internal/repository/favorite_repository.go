package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/streaming-catalog/internal/model"
)

// FavoriteRepo manages the account↔movie favorites relation.  The composite
// primary key (account_id, movie_id) makes every write idempotent.
type FavoriteRepo struct{ db *sqlx.DB }

func NewFavoriteRepo(db *sqlx.DB) *FavoriteRepo { return &FavoriteRepo{db: db} }

// Add inserts the pair unless it already exists.  created reports whether
// this call inserted it; concurrent duplicate adds leave exactly one row.
func (r *FavoriteRepo) Add(ctx context.Context, accountID, movieID uint64, at time.Time) (created bool, err error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT IGNORE INTO favorites (account_id, movie_id, created_at) VALUES (?,?,?)",
		accountID, movieID, at.UTC())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Remove deletes the pair.  Removing a pair that does not exist is not an error.
func (r *FavoriteRepo) Remove(ctx context.Context, accountID, movieID uint64) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM favorites WHERE account_id=? AND movie_id=?", accountID, movieID)
	return err
}

// ListIDs returns the favorited movie ids, newest first.  Ids of deleted
// movies are included.
func (r *FavoriteRepo) ListIDs(ctx context.Context, accountID uint64) ([]uint64, error) {
	ids := []uint64{}
	err := r.db.SelectContext(ctx, &ids,
		"SELECT movie_id FROM favorites WHERE account_id=? ORDER BY created_at DESC, movie_id DESC", accountID)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// ListActiveMovies joins favorites with movies, keeping only active ones.
// Favorites of deleted movies drop out of the join.
func (r *FavoriteRepo) ListActiveMovies(ctx context.Context, accountID uint64) ([]model.Movie, error) {
	var rows []movieRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT m.id, m.name, m.description, m.category, m.genre, m.trailer_link, m.movie_link, m.episodes,
			m.main_poster_url, m.main_poster_id, m.background_poster_url, m.background_poster_id,
			m.mobile_poster_url, m.mobile_poster_id, m.status, m.created_at, m.updated_at
		   FROM favorites f
		   JOIN movies m ON m.id = f.movie_id
		  WHERE f.account_id = ? AND m.status = ?
		  ORDER BY f.created_at DESC, m.id DESC`,
		accountID, model.StatusActive)
	if err != nil {
		return nil, err
	}
	return movieModels(rows), nil
}
