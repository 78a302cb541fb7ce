// Package service holds the business rules of the catalog: accounts and
// sessions, password reset, catalog queries, favorites and admin content
// management.  Services depend on the narrow store interfaces below; the
// MySQL repositories satisfy them in production and in-memory fakes in tests.
package service

import (
	"context"
	"io"
	"time"

	"github.com/iliyamo/streaming-catalog/internal/model"
	"github.com/iliyamo/streaming-catalog/internal/repository"
)

// AccountStore is the credential store.
type AccountStore interface {
	Create(ctx context.Context, a *model.Account) error
	GetByEmail(ctx context.Context, email string) (model.Account, error)
	GetByID(ctx context.Context, id uint64) (model.Account, error)
	UpdateRole(ctx context.Context, id uint64, role model.Role) error
	SetResetTicket(ctx context.Context, id uint64, hash string, expiresAt time.Time) error
	ResetTicketLive(ctx context.Context, hash string, now time.Time) (bool, error)
	RedeemResetTicket(ctx context.Context, hash, passwordHash string, now time.Time) (bool, error)
	Search(ctx context.Context, q repository.AccountQuery) ([]model.Account, int64, error)
	Recent(ctx context.Context, limit int) ([]model.Account, error)
}

// MovieStore persists catalog content.
type MovieStore interface {
	Create(ctx context.Context, m *model.Movie) error
	GetByID(ctx context.Context, id uint64) (model.Movie, error)
	Update(ctx context.Context, m *model.Movie) error
	Delete(ctx context.Context, id uint64) error
	Exists(ctx context.Context, id uint64) (bool, error)
	Search(ctx context.Context, q repository.MovieQuery) ([]model.Movie, int64, error)
	Latest(ctx context.Context, category model.Category, status string, limit int) ([]model.Movie, error)
}

// FavoriteStore persists the account↔movie relation.
type FavoriteStore interface {
	Add(ctx context.Context, accountID, movieID uint64, at time.Time) (bool, error)
	Remove(ctx context.Context, accountID, movieID uint64) error
	ListIDs(ctx context.Context, accountID uint64) ([]uint64, error)
	ListActiveMovies(ctx context.Context, accountID uint64) ([]model.Movie, error)
}

// ImageStore keeps poster images.  Save returns the public URL and an
// opaque id that Delete accepts.
type ImageStore interface {
	Save(ctx context.Context, folder string, body io.Reader, ext string) (model.Image, error)
	Delete(ctx context.Context, id string) error
}

// ResetNotifier delivers a password reset link to the account holder.
type ResetNotifier interface {
	NotifyPasswordReset(ctx context.Context, n model.ResetNotice) error
}
