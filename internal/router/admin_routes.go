package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/streaming-catalog/internal/handler"
)

// RegisterAdmin registers admin login, admin creation and the user
// listing.  Only login is reachable without an admin session.
func RegisterAdmin(api *echo.Group, a *handler.AdminHandler, u *handler.UserHandler, g Guards) {
	api.POST("/admin/login", a.Login, g.RateLimit)
	api.POST("/admin/register", a.Register, g.admin()...)

	users := api.Group("/users/admin/users", g.admin()...)
	users.GET("", u.List)
	users.GET("/recent", u.Recent)
}
