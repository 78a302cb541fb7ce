package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/streaming-catalog/internal/errs"
	"github.com/iliyamo/streaming-catalog/internal/model"
	"github.com/iliyamo/streaming-catalog/internal/storetest"
)

func poster(slot model.PosterSlot, body string) PosterUpload {
	return PosterUpload{Slot: slot, Body: strings.NewReader(body), Ext: ".jpg"}
}

func strPtr(s string) *string { return &s }

func TestMovies_CreateSeries(t *testing.T) {
	movies, images := storetest.NewMovies(), storetest.NewImages()
	svc := NewMovieService(movies, images, nil)

	m, err := svc.Create(context.Background(), MovieInput{
		Name: "Sacred Games", Description: "d", Category: model.CategoryWebSeries, Genre: "thriller",
		MovieLink: "https://ignored", Episodes: []model.Episode{{Title: "Ep 1", Link: "https://v/1"}},
	}, []PosterUpload{poster(model.PosterMain, "main"), poster(model.PosterMobile, "mobile")})
	require.NoError(t, err)
	require.NotZero(t, m.ID)
	require.Empty(t, m.MovieLink)
	require.Len(t, m.Episodes, 1)
	require.Equal(t, model.StatusActive, m.Status)
	require.Equal(t, "main-posters/img-1.jpg", m.Posters.Main.ID)
	require.True(t, m.Posters.Background.Empty())
	require.Len(t, images.Files, 2)
}

func TestMovies_CreateValidation(t *testing.T) {
	svc := NewMovieService(storetest.NewMovies(), storetest.NewImages(), nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, MovieInput{Name: "x"}, nil)
	require.Equal(t, "Missing required fields", errs.PublicMessage(err))

	_, err = svc.Create(ctx, MovieInput{Name: "x", Description: "d", Category: "anime", Genre: "g"}, nil)
	require.Equal(t, "Invalid type", errs.PublicMessage(err))

	_, err = svc.Create(ctx, MovieInput{Name: "x", Description: "d", Category: model.CategoryHollywood, Genre: "g", Status: "Draft"}, nil)
	require.Equal(t, errs.KindValidation, errs.KindOf(err))
}

func TestMovies_CreateCleansUpOnInsertFailure(t *testing.T) {
	movies, images := storetest.NewMovies(), storetest.NewImages()
	movies.Err = errors.New("db down")
	svc := NewMovieService(movies, images, nil)

	_, err := svc.Create(context.Background(), MovieInput{
		Name: "Dune", Description: "d", Category: model.CategoryHollywood, Genre: "sci-fi",
	}, []PosterUpload{poster(model.PosterMain, "img")})
	require.Error(t, err)
	require.Empty(t, images.Files)
	require.Len(t, images.Deleted, 1)
}

func TestMovies_CreateUploadFailureIsUpstream(t *testing.T) {
	images := storetest.NewImages()
	images.FailSave = errors.New("disk full")
	svc := NewMovieService(storetest.NewMovies(), images, nil)

	_, err := svc.Create(context.Background(), MovieInput{
		Name: "Dune", Description: "d", Category: model.CategoryHollywood, Genre: "sci-fi",
	}, []PosterUpload{poster(model.PosterMain, "img")})
	require.Equal(t, errs.KindUpstream, errs.KindOf(err))
	require.Equal(t, "Server error", errs.PublicMessage(err))
}

func TestMovies_UpdateReplacesPosterAndKeepsEpisodes(t *testing.T) {
	movies, images := storetest.NewMovies(), storetest.NewImages()
	svc := NewMovieService(movies, images, nil)
	ctx := context.Background()

	m, err := svc.Create(ctx, MovieInput{
		Name: "Series", Description: "d", Category: model.CategoryWebSeries, Genre: "g",
		Episodes: []model.Episode{{Title: "Ep 1", Link: "l1"}},
	}, []PosterUpload{poster(model.PosterMain, "v1"), poster(model.PosterBackground, "bg")})
	require.NoError(t, err)
	oldMain := m.Posters.Main.ID

	updated, err := svc.Update(ctx, m.ID, MovieUpdate{Name: strPtr("Series S2")},
		[]PosterUpload{poster(model.PosterMain, "v2")})
	require.NoError(t, err)
	require.Equal(t, "Series S2", updated.Name)
	require.Len(t, updated.Episodes, 1, "episodes survive an update that omits the category")
	require.NotEqual(t, oldMain, updated.Posters.Main.ID)
	require.Equal(t, m.Posters.Background, updated.Posters.Background)
	require.Equal(t, []string{oldMain}, images.Deleted)

	stored, err := movies.GetByID(ctx, m.ID)
	require.NoError(t, err)
	require.Equal(t, updated.Posters.Main, stored.Posters.Main)
}

func TestMovies_UpdateCategorySwitch(t *testing.T) {
	movies := storetest.NewMovies()
	svc := NewMovieService(movies, storetest.NewImages(), nil)
	ctx := context.Background()

	m, err := svc.Create(ctx, MovieInput{
		Name: "Pilot", Description: "d", Category: model.CategoryWebSeries, Genre: "g",
		Episodes: []model.Episode{{Title: "Ep 1"}},
	}, nil)
	require.NoError(t, err)

	c := model.CategoryHollywood
	updated, err := svc.Update(ctx, m.ID, MovieUpdate{Category: &c, MovieLink: strPtr("https://v/pilot"), Status: strPtr(model.StatusInactive)}, nil)
	require.NoError(t, err)
	require.Nil(t, updated.Episodes)
	require.Equal(t, "https://v/pilot", updated.MovieLink)
	require.Equal(t, model.StatusInactive, updated.Status)

	bad := model.Category("anime")
	_, err = svc.Update(ctx, m.ID, MovieUpdate{Category: &bad}, nil)
	require.Equal(t, errs.KindValidation, errs.KindOf(err))

	_, err = svc.Update(ctx, 999, MovieUpdate{}, nil)
	require.Equal(t, errs.KindNotFound, errs.KindOf(err))
}

func TestMovies_DeleteRemovesPosters(t *testing.T) {
	movies, images := storetest.NewMovies(), storetest.NewImages()
	svc := NewMovieService(movies, images, nil)
	ctx := context.Background()

	m, err := svc.Create(ctx, MovieInput{Name: "Dune", Description: "d", Category: model.CategoryHollywood, Genre: "g"},
		[]PosterUpload{poster(model.PosterMain, "a"), poster(model.PosterBackground, "b"), poster(model.PosterMobile, "c")})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, m.ID))
	require.Empty(t, images.Files)
	ok, err := movies.Exists(ctx, m.ID)
	require.NoError(t, err)
	require.False(t, ok)

	require.Equal(t, errs.KindNotFound, errs.KindOf(svc.Delete(ctx, m.ID)))
}
