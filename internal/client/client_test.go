package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/streaming-catalog/internal/handler"
	"github.com/iliyamo/streaming-catalog/internal/middleware"
	"github.com/iliyamo/streaming-catalog/internal/model"
	"github.com/iliyamo/streaming-catalog/internal/router"
	"github.com/iliyamo/streaming-catalog/internal/service"
	"github.com/iliyamo/streaming-catalog/internal/storetest"
)

func newServer(t *testing.T) (*httptest.Server, *storetest.Movies) {
	t.Helper()
	accounts := storetest.NewAccounts()
	movies := storetest.NewMovies()
	tokens := service.NewTokenService("client-test-secret-0123456789", 15*time.Minute, 7*24*time.Hour)
	auth := service.NewAuthService(accounts, tokens, 4, nil)
	reset := service.NewPasswordResetService(accounts, &storetest.Notifier{}, 15*time.Minute, "http://client", 4, nil)
	catalog := service.NewCatalogService(movies, accounts)
	cookie := handler.CookieSettings{Name: "token"}

	e := echo.New()
	e.HTTPErrorHandler = handler.NewErrorHandler(zap.NewNop(), true)
	router.RegisterAPI(e, router.Handlers{
		Auth:      handler.NewAuthHandler(auth, reset, cookie),
		OIDC:      handler.NewOIDCHandler(nil, auth, cookie, "http://client"),
		Admin:     handler.NewAdminHandler(auth, cookie),
		Movies:    handler.NewMovieHandler(catalog, service.NewMovieService(movies, storetest.NewImages(), nil)),
		Favorites: handler.NewFavoriteHandler(service.NewFavoritesService(storetest.NewFavorites(movies), movies)),
		Users:     handler.NewUserHandler(catalog),
	}, router.Guards{
		Session: middleware.RequireSession(tokens, cookie.Name),
		Admin:   middleware.RestrictTo(model.RoleAdmin),
	})
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv, movies
}

func TestClient_SessionIsReadPerRequest(t *testing.T) {
	srv, movies := newServer(t)
	m := model.Movie{Name: "Jawan", Category: model.CategoryBollywood, Genre: "action", Status: model.StatusActive}
	require.NoError(t, movies.Create(context.Background(), &m))

	ctx := context.Background()
	c := New(srv.URL+"/api", NewMemorySession(), nil)

	_, err := c.FavoriteIDs(ctx)
	require.True(t, IsStatus(err, http.StatusUnauthorized), err)

	_, err = c.Register(ctx, RegisterRequest{Email: "cli@example.com", Password: "cli-pass"})
	require.NoError(t, err)
	require.NotEmpty(t, c.Session().Token())

	u, err := c.Login(ctx, "cli@example.com", "cli-pass", true)
	require.NoError(t, err)
	require.Equal(t, "cli@example.com", u.Email)

	ids, err := c.FavoriteIDs(ctx)
	require.NoError(t, err)
	require.Empty(t, ids)

	require.NoError(t, c.AddFavorite(ctx, "1"))
	ids, err = c.FavoriteIDs(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"1"}, ids)

	cards, err := c.Favorites(ctx)
	require.NoError(t, err)
	require.Len(t, cards, 1)
	require.Equal(t, "Jawan", cards[0].Title)

	page, err := c.Movies(ctx, MovieQuery{Q: "jaw", Limit: 5})
	require.NoError(t, err)
	require.EqualValues(t, 1, page.Total)
	require.Equal(t, "1", page.Items[0].ID)

	require.NoError(t, c.Logout(ctx))
	require.Empty(t, c.Session().Token())
	_, err = c.Me(ctx)
	require.True(t, IsStatus(err, http.StatusUnauthorized))
}

func TestClient_ErrorMessage(t *testing.T) {
	srv, _ := newServer(t)
	c := New(srv.URL+"/api", nil, nil)
	_, err := c.Login(context.Background(), "nobody@example.com", "whatever", false)
	var ae *APIError
	require.ErrorAs(t, err, &ae)
	require.Equal(t, http.StatusUnauthorized, ae.Status)
	require.Equal(t, "Invalid credentials", ae.Message)
}

type flakyRemote struct {
	mu    sync.Mutex
	fail  error
	calls []string
}

func (r *flakyRemote) record(op, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, op+":"+id)
	return r.fail
}

func (r *flakyRemote) AddFavorite(_ context.Context, id string) error    { return r.record("add", id) }
func (r *flakyRemote) RemoveFavorite(_ context.Context, id string) error { return r.record("remove", id) }

func TestFavoriteToggler(t *testing.T) {
	ctx := context.Background()
	remote := &flakyRemote{}
	set := NewFavoriteSet("2")
	tg := NewFavoriteToggler(remote, set)

	on, err := tg.Toggle(ctx, "1")
	require.NoError(t, err)
	require.True(t, on)
	require.Equal(t, []string{"1", "2"}, set.IDs())

	on, err = tg.Toggle(ctx, "2")
	require.NoError(t, err)
	require.False(t, on)
	require.Equal(t, []string{"1"}, set.IDs())
	require.Equal(t, []string{"add:1", "remove:2"}, remote.calls)

	// failures roll the local set back
	remote.fail = errors.New("offline")
	on, err = tg.Toggle(ctx, "3")
	require.Error(t, err)
	require.False(t, on)
	require.False(t, set.Has("3"))

	on, err = tg.Toggle(ctx, "1")
	require.Error(t, err)
	require.True(t, on)
	require.True(t, set.Has("1"))
}

func TestFileSession(t *testing.T) {
	s := NewFileSession(filepath.Join(t.TempDir(), "nested", "token.json"))
	require.Empty(t, s.Token())

	require.NoError(t, s.Save("tok", time.Now().Add(time.Hour)))
	require.Equal(t, "tok", s.Token())

	require.NoError(t, s.Save("old", time.Now().Add(-time.Minute)))
	require.Empty(t, s.Token())

	require.NoError(t, s.Clear())
	require.NoError(t, s.Clear())
	require.Empty(t, s.Token())
}

func TestMemorySession_Expiry(t *testing.T) {
	s := NewMemorySession()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	require.NoError(t, s.Save("t", now.Add(time.Minute)))
	require.Equal(t, "t", s.Token())
	now = now.Add(2 * time.Minute)
	require.Empty(t, s.Token())
}
