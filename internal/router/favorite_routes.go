package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/streaming-catalog/internal/handler"
)

// RegisterFavorites registers the per-user favorites routes.  All of them
// require a session; any role may keep favorites.
func RegisterFavorites(api *echo.Group, f *handler.FavoriteHandler, g Guards) {
	fav := api.Group("/favorites", g.Session)
	fav.GET("", f.List)
	fav.GET("/ids", f.IDs)
	fav.POST("/:movieId", f.Add)
	fav.DELETE("/:movieId", f.Remove)
}
