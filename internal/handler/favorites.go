package handler

import (
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/streaming-catalog/internal/service"
)

// FavoriteHandler serves the per-user favorites list.  Every route runs
// behind RequireSession.
type FavoriteHandler struct {
    Favorites *service.FavoritesService
}

func NewFavoriteHandler(f *service.FavoritesService) *FavoriteHandler {
    return &FavoriteHandler{Favorites: f}
}

// List returns the active favorited items as cards.
func (h *FavoriteHandler) List(c echo.Context) error {
    id, err := currentIdentity(c)
    if err != nil {
        return err
    }
    ctx, cancel := requestCtx(c)
    defer cancel()

    items, err := h.Favorites.ListDetailed(ctx, id.ID)
    if err != nil {
        return err
    }
    data := toCards(items)
    return c.JSON(http.StatusOK, echo.Map{"data": data, "meta": echo.Map{"count": len(data)}})
}

// IDs returns every favorited id as a string, including ids whose item was
// deleted since.
func (h *FavoriteHandler) IDs(c echo.Context) error {
    id, err := currentIdentity(c)
    if err != nil {
        return err
    }
    ctx, cancel := requestCtx(c)
    defer cancel()

    ids, err := h.Favorites.ListIDs(ctx, id.ID)
    if err != nil {
        return err
    }
    out := make([]string, 0, len(ids))
    for _, v := range ids {
        out = append(out, strconv.FormatUint(v, 10))
    }
    return c.JSON(http.StatusOK, echo.Map{"data": out})
}

// Add is idempotent: repeating it answers 201 again.
func (h *FavoriteHandler) Add(c echo.Context) error {
    id, err := currentIdentity(c)
    if err != nil {
        return err
    }
    movieID, err := pathID(c, "movieId", "Invalid movieId")
    if err != nil {
        return err
    }
    ctx, cancel := requestCtx(c)
    defer cancel()

    created, err := h.Favorites.Add(ctx, id.ID, movieID)
    if err != nil {
        return err
    }
    msg := "Added to favorites"
    if !created {
        msg = "Already in favorites"
    }
    return c.JSON(http.StatusCreated, echo.Map{"message": msg, "movieId": strconv.FormatUint(movieID, 10)})
}

// Remove succeeds whether or not the relation existed.
func (h *FavoriteHandler) Remove(c echo.Context) error {
    id, err := currentIdentity(c)
    if err != nil {
        return err
    }
    movieID, err := pathID(c, "movieId", "Invalid movieId")
    if err != nil {
        return err
    }
    ctx, cancel := requestCtx(c)
    defer cancel()

    if err := h.Favorites.Remove(ctx, id.ID, movieID); err != nil {
        return err
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "Removed from favorites", "movieId": strconv.FormatUint(movieID, 10)})
}
