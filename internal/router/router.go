package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/streaming-catalog/internal/handler"
)

// Guards are the middleware chains shared by the route groups.
type Guards struct {
	// Session requires a valid session token (RequireSession).
	Session echo.MiddlewareFunc
	// Admin must run after Session; typically RestrictTo(admin).
	Admin echo.MiddlewareFunc
	// RateLimit sits in front of the credential endpoints.
	RateLimit echo.MiddlewareFunc
	// Cache fronts anonymous catalog reads.
	Cache echo.MiddlewareFunc
}

func passThrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

// normalized fills the optional guards with pass-through middleware.  The
// auth guards are mandatory.
func (g Guards) normalized() Guards {
	if g.Session == nil || g.Admin == nil {
		panic("router: Session and Admin guards are required")
	}
	if g.RateLimit == nil {
		g.RateLimit = passThrough
	}
	if g.Cache == nil {
		g.Cache = passThrough
	}
	return g
}

func (g Guards) admin() []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{g.Session, g.Admin}
}

// Handlers groups every handler the API exposes.
type Handlers struct {
	Auth      *handler.AuthHandler
	OIDC      *handler.OIDCHandler
	Admin     *handler.AdminHandler
	Movies    *handler.MovieHandler
	Favorites *handler.FavoriteHandler
	Users     *handler.UserHandler
}

// RegisterRoutes registers routes that do not belong to the API: the health
// check and the stored poster files.
func RegisterRoutes(e *echo.Echo, uploadDir string) {
	e.GET("/health", handler.Health)
	if uploadDir != "" {
		e.Static("/uploads", uploadDir)
	}
}

// RegisterAPI mounts every API group under /api.
func RegisterAPI(e *echo.Echo, h Handlers, g Guards) {
	g = g.normalized()
	api := e.Group("/api")
	RegisterAuth(api, h.Auth, h.OIDC, g)
	RegisterCatalog(api, h.Movies, g)
	RegisterFavorites(api, h.Favorites, g)
	RegisterAdmin(api, h.Admin, h.Users, g)
}

// RegisterAuth registers the authentication routes.  Endpoints that take
// credentials are rate limited; /me requires a session.
func RegisterAuth(api *echo.Group, a *handler.AuthHandler, o *handler.OIDCHandler, g Guards) {
	auth := api.Group("/auth")
	auth.POST("/register", a.Register, g.RateLimit)
	auth.POST("/login", a.Login, g.RateLimit)
	auth.POST("/logout", a.Logout)
	auth.GET("/me", a.Me, g.Session)
	auth.POST("/forgot-password", a.ForgotPassword, g.RateLimit)
	auth.POST("/reset-password/:token", a.ResetPassword, g.RateLimit)

	if o != nil {
		auth.GET("/google", o.Start)
		auth.GET("/google/callback", o.Callback)
	}
}

// movieBodyLimit leaves room for three full-size posters plus text fields.
const movieBodyLimit = "26M"

// RegisterCatalog registers the public catalog reads and the admin writes.
// The static segments (latest, categories) are matched before :id.
func RegisterCatalog(api *echo.Group, m *handler.MovieHandler, g Guards) {
	movies := api.Group("/movies")
	movies.GET("", m.List, g.Cache)
	movies.GET("/latest", m.Latest, g.Cache)
	movies.GET("/categories", m.Categories, g.Cache)
	movies.GET("/:id", m.Get, g.Cache)

	write := append(g.admin(), echomw.BodyLimit(movieBodyLimit))
	movies.POST("", m.Create, write...)
	movies.PUT("/:id", m.Update, write...)
	movies.DELETE("/:id", m.Delete, g.admin()...)
}
