package service

import (
	"context"
	"time"

	"github.com/iliyamo/streaming-catalog/internal/errs"
	"github.com/iliyamo/streaming-catalog/internal/model"
)

// FavoritesService manages each account's favorite movies.  Add and Remove
// are idempotent: repeating either has the same outcome as doing it once.
type FavoritesService struct {
	favorites FavoriteStore
	movies    MovieStore
	now       func() time.Time
}

func NewFavoritesService(favorites FavoriteStore, movies MovieStore) *FavoritesService {
	return &FavoritesService{
		favorites: favorites,
		movies:    movies,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Add favorites a movie.  created is false when it already was a favorite.
func (s *FavoritesService) Add(ctx context.Context, accountID, movieID uint64) (created bool, err error) {
	ok, err := s.movies.Exists(ctx, movieID)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, errs.NotFound("Movie not found")
	}
	return s.favorites.Add(ctx, accountID, movieID, s.now())
}

// Remove unfavorites a movie.  Removing a movie that was never a favorite
// succeeds.
func (s *FavoritesService) Remove(ctx context.Context, accountID, movieID uint64) error {
	return s.favorites.Remove(ctx, accountID, movieID)
}

// ListIDs returns every favorited movie id, including ids of movies that
// have since been deleted.
func (s *FavoritesService) ListIDs(ctx context.Context, accountID uint64) ([]uint64, error) {
	ids, err := s.favorites.ListIDs(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []uint64{}
	}
	return ids, nil
}

// ListDetailed returns the favorited movies that still exist and are active.
func (s *FavoritesService) ListDetailed(ctx context.Context, accountID uint64) ([]model.Movie, error) {
	items, err := s.favorites.ListActiveMovies(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.Movie{}
	}
	return items, nil
}
