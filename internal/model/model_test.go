package model

import (
    "testing"

    "github.com/stretchr/testify/require"
)

func TestMovieNormalize_ExclusiveLinks(t *testing.T) {
    series := Movie{Category: CategoryWebSeries, MovieLink: "http://x/1"}
    series.Normalize()
    require.Empty(t, series.MovieLink)
    require.NotNil(t, series.Episodes)
    require.Equal(t, StatusActive, series.Status)

    film := Movie{Category: CategoryHollywood, MovieLink: "http://x/2", Episodes: []Episode{{Title: "e1", Link: "l"}}, Status: StatusInactive}
    film.Normalize()
    require.Equal(t, "http://x/2", film.MovieLink)
    require.Nil(t, film.Episodes)
    require.Equal(t, StatusInactive, film.Status)
}

func TestCategory(t *testing.T) {
    require.True(t, CategorySouthHindiDubbed.Valid())
    require.False(t, Category("anime").Valid())
    require.Equal(t, "southindian-dubbed", CategorySouthHindiDubbed.Label())
    require.Equal(t, "movie", Category("x").Label())
}

func TestPosters(t *testing.T) {
    var p Posters
    p.Set(PosterMobile, Image{URL: "u", ID: "mobile-posters/a.png"})
    p.Set(PosterMain, Image{URL: "m", ID: "main-posters/b.png"})
    require.Equal(t, "u", p.Get(PosterMobile).URL)
    require.True(t, p.Get(PosterBackground).Empty())
    require.Equal(t, []string{"main-posters/b.png", "mobile-posters/a.png"}, p.IDs())
    require.Equal(t, "backgroundPoster", PosterBackground.FormField())
}

func TestNormalizeEmail(t *testing.T) {
    require.Equal(t, "a@x.com", NormalizeEmail("  A@X.com "))
}
