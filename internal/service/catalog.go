package service

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/streaming-catalog/internal/errs"
	"github.com/iliyamo/streaming-catalog/internal/model"
	"github.com/iliyamo/streaming-catalog/internal/repository"
)

// CatalogService answers the read side of the catalog and the admin user
// listing.
type CatalogService struct {
	movies   MovieStore
	accounts AccountStore
}

func NewCatalogService(movies MovieStore, accounts AccountStore) *CatalogService {
	return &CatalogService{movies: movies, accounts: accounts}
}

// MovieFilter narrows a catalog listing.  Empty fields do not filter.
type MovieFilter struct {
	Category model.Category
	Text     string
	Status   string
}

func (f MovieFilter) validate() error {
	if f.Category != "" && !f.Category.Valid() {
		return errs.Validation("Invalid type")
	}
	if f.Status != "" && !model.ValidStatus(f.Status) {
		return errs.Validation("Invalid status")
	}
	return nil
}

// List returns one page of movies.  page and limit are clamped, never rejected.
func (s *CatalogService) List(ctx context.Context, f MovieFilter, page, limit int, sort Sort) (Page[model.Movie], error) {
	if err := f.validate(); err != nil {
		return Page[model.Movie]{}, err
	}
	page, limit = ClampPage(page), ClampLimit(limit)
	items, total, err := s.movies.Search(ctx, repository.MovieQuery{
		Category: f.Category,
		Text:     f.Text,
		Status:   f.Status,
		Offset:   (page - 1) * limit,
		Limit:    limit,
		SortBy:   sort.Field,
		SortDesc: sort.Desc,
	})
	if err != nil {
		return Page[model.Movie]{}, err
	}
	return newPage(items, total, page, limit), nil
}

// Latest returns the newest movies for the home slider.
func (s *CatalogService) Latest(ctx context.Context, category model.Category, status string, limit int) ([]model.Movie, error) {
	f := MovieFilter{Category: category, Status: status}
	if err := f.validate(); err != nil {
		return nil, err
	}
	items, err := s.movies.Latest(ctx, category, status, ClampLimit(limit))
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.Movie{}
	}
	return items, nil
}

// BucketLimits caps each category bucket on the home page.
type BucketLimits struct {
	Bollywood        int
	SouthHindiDubbed int
	Hollywood        int
	WebSeries        int
}

// Buckets holds the newest movies per category.
type Buckets struct {
	Bollywood        []model.Movie
	SouthHindiDubbed []model.Movie
	Hollywood        []model.Movie
	WebSeries        []model.Movie
}

// Categories loads the four category buckets concurrently.  Any failing
// query fails the whole call.
func (s *CatalogService) Categories(ctx context.Context, limits BucketLimits, status string) (Buckets, error) {
	if status != "" && !model.ValidStatus(status) {
		return Buckets{}, errs.Validation("Invalid status")
	}
	var out Buckets
	g, gctx := errgroup.WithContext(ctx)
	load := func(dst *[]model.Movie, c model.Category, limit int) {
		g.Go(func() error {
			items, err := s.movies.Latest(gctx, c, status, ClampLimit(limit))
			if err != nil {
				return err
			}
			if items == nil {
				items = []model.Movie{}
			}
			*dst = items
			return nil
		})
	}
	load(&out.Bollywood, model.CategoryBollywood, limits.Bollywood)
	load(&out.SouthHindiDubbed, model.CategorySouthHindiDubbed, limits.SouthHindiDubbed)
	load(&out.Hollywood, model.CategoryHollywood, limits.Hollywood)
	load(&out.WebSeries, model.CategoryWebSeries, limits.WebSeries)
	if err := g.Wait(); err != nil {
		return Buckets{}, err
	}
	return out, nil
}

// Get returns a single movie in any status.
func (s *CatalogService) Get(ctx context.Context, id uint64) (model.Movie, error) {
	m, err := s.movies.GetByID(ctx, id)
	if errors.Is(err, errs.ErrNotFound) {
		return model.Movie{}, errs.NotFound("Not found")
	}
	return m, err
}

// AccountFilter narrows the admin user listing.
type AccountFilter struct {
	Text string
	Role model.Role
}

// SearchAccounts pages through accounts matching f.
func (s *CatalogService) SearchAccounts(ctx context.Context, f AccountFilter, page, limit int, sort Sort) (Page[model.Account], error) {
	if f.Role != "" && !f.Role.Valid() {
		return Page[model.Account]{}, errs.Validation("Invalid role")
	}
	page, limit = ClampPage(page), ClampLimit(limit)
	items, total, err := s.accounts.Search(ctx, repository.AccountQuery{
		Text:     f.Text,
		Role:     f.Role,
		Offset:   (page - 1) * limit,
		Limit:    limit,
		SortBy:   sort.Field,
		SortDesc: sort.Desc,
	})
	if err != nil {
		return Page[model.Account]{}, err
	}
	return newPage(items, total, page, limit), nil
}

// MaxRecentAccounts caps the dashboard "recent users" widget.
const MaxRecentAccounts = 20

// RecentAccounts returns the newest accounts, at most MaxRecentAccounts.
func (s *CatalogService) RecentAccounts(ctx context.Context, limit int) ([]model.Account, error) {
	if limit < 1 {
		limit = 1
	}
	if limit > MaxRecentAccounts {
		limit = MaxRecentAccounts
	}
	items, err := s.accounts.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.Account{}
	}
	return items, nil
}
