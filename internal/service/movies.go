package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/streaming-catalog/internal/errs"
	"github.com/iliyamo/streaming-catalog/internal/model"
)

// MovieService is the admin write side of the catalog.  Poster images live
// in an ImageStore; the movie row only references them.
type MovieService struct {
	movies MovieStore
	images ImageStore
	now    func() time.Time
	log    *zap.Logger
}

func NewMovieService(movies MovieStore, images ImageStore, log *zap.Logger) *MovieService {
	if log == nil {
		log = zap.NewNop()
	}
	return &MovieService{
		movies: movies,
		images: images,
		now:    func() time.Time { return time.Now().UTC().Truncate(time.Second) },
		log:    log,
	}
}

// PosterUpload is one uploaded image destined for a poster slot.
type PosterUpload struct {
	Slot model.PosterSlot
	Body io.Reader
	Ext  string // file extension including the dot, e.g. ".jpg"
}

// MovieInput is the payload for creating a movie.
type MovieInput struct {
	Name        string
	Description string
	Category    model.Category
	Genre       string
	TrailerLink string
	MovieLink   string
	Episodes    []model.Episode
	Status      string
}

// MovieUpdate is a partial update; nil fields are left unchanged.
type MovieUpdate struct {
	Name        *string
	Description *string
	Category    *model.Category
	Genre       *string
	TrailerLink *string
	MovieLink   *string
	Episodes    *[]model.Episode
	Status      *string
}

// Create validates in, stores the posters and inserts the movie.  Posters
// stored before a failed insert are removed again.
func (s *MovieService) Create(ctx context.Context, in MovieInput, posters []PosterUpload) (model.Movie, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Description) == "" ||
		in.Category == "" || strings.TrimSpace(in.Genre) == "" {
		return model.Movie{}, errs.Validation("Missing required fields")
	}
	if !in.Category.Valid() {
		return model.Movie{}, errs.Validation("Invalid type")
	}
	if in.Status != "" && !model.ValidStatus(in.Status) {
		return model.Movie{}, errs.Validation("Invalid status")
	}

	now := s.now()
	m := model.Movie{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Category:    in.Category,
		Genre:       strings.TrimSpace(in.Genre),
		TrailerLink: strings.TrimSpace(in.TrailerLink),
		MovieLink:   strings.TrimSpace(in.MovieLink),
		Episodes:    in.Episodes,
		Status:      in.Status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.Normalize()

	stored, err := s.storePosters(ctx, &m.Posters, posters)
	if err != nil {
		return model.Movie{}, err
	}
	if err := s.movies.Create(ctx, &m); err != nil {
		s.deleteImages(ctx, stored)
		return model.Movie{}, err
	}
	s.log.Info("movie created", zap.Uint64("movie_id", m.ID), zap.String("category", string(m.Category)))
	return m, nil
}

// Update applies upd and any new posters to movie id.  Replaced posters are
// deleted from the image store only after the row was updated.
func (s *MovieService) Update(ctx context.Context, id uint64, upd MovieUpdate, posters []PosterUpload) (model.Movie, error) {
	m, err := s.movies.GetByID(ctx, id)
	if errors.Is(err, errs.ErrNotFound) {
		return model.Movie{}, errs.NotFound("Not found")
	}
	if err != nil {
		return model.Movie{}, err
	}

	if upd.Category != nil {
		if !upd.Category.Valid() {
			return model.Movie{}, errs.Validation("Invalid type")
		}
		m.Category = *upd.Category
	}
	if upd.Status != nil {
		if !model.ValidStatus(*upd.Status) {
			return model.Movie{}, errs.Validation("Invalid status")
		}
		m.Status = *upd.Status
	}
	if upd.Name != nil {
		if strings.TrimSpace(*upd.Name) == "" {
			return model.Movie{}, errs.Validation("Name cannot be empty")
		}
		m.Name = strings.TrimSpace(*upd.Name)
	}
	if upd.Description != nil {
		m.Description = *upd.Description
	}
	if upd.Genre != nil {
		m.Genre = strings.TrimSpace(*upd.Genre)
	}
	if upd.TrailerLink != nil {
		m.TrailerLink = strings.TrimSpace(*upd.TrailerLink)
	}
	if upd.MovieLink != nil {
		m.MovieLink = strings.TrimSpace(*upd.MovieLink)
	}
	if upd.Episodes != nil {
		m.Episodes = *upd.Episodes
	}
	m.Normalize()
	m.UpdatedAt = s.now()

	old := m.Posters
	stored, err := s.storePosters(ctx, &m.Posters, posters)
	if err != nil {
		return model.Movie{}, err
	}
	if err := s.movies.Update(ctx, &m); err != nil {
		s.deleteImages(ctx, stored)
		return model.Movie{}, err
	}

	var replaced []string
	for _, p := range posters {
		if pid := old.Get(p.Slot).ID; pid != "" && pid != m.Posters.Get(p.Slot).ID {
			replaced = append(replaced, pid)
		}
	}
	s.deleteImages(ctx, replaced)
	return m, nil
}

// Delete removes the movie and then its posters.  Poster cleanup failures
// are logged; favorites referencing the movie are kept.
func (s *MovieService) Delete(ctx context.Context, id uint64) error {
	m, err := s.movies.GetByID(ctx, id)
	if errors.Is(err, errs.ErrNotFound) {
		return errs.NotFound("Not found")
	}
	if err != nil {
		return err
	}
	if err := s.movies.Delete(ctx, id); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return errs.NotFound("Not found")
		}
		return err
	}
	s.deleteImages(ctx, m.Posters.IDs())
	s.log.Info("movie deleted", zap.Uint64("movie_id", id))
	return nil
}

// storePosters saves each upload into its slot.  On failure everything saved
// so far is removed and an upstream error is returned.
func (s *MovieService) storePosters(ctx context.Context, dst *model.Posters, uploads []PosterUpload) ([]string, error) {
	var stored []string
	for _, up := range uploads {
		img, err := s.images.Save(ctx, up.Slot.Folder(), up.Body, up.Ext)
		if err != nil {
			s.deleteImages(ctx, stored)
			return nil, errs.Upstream("image upload failed", err)
		}
		stored = append(stored, img.ID)
		dst.Set(up.Slot, img)
	}
	return stored, nil
}

func (s *MovieService) deleteImages(ctx context.Context, ids []string) {
	for _, id := range ids {
		if err := s.images.Delete(ctx, id); err != nil {
			s.log.Warn("poster cleanup failed", zap.String("image_id", id), zap.Error(err))
		}
	}
}
