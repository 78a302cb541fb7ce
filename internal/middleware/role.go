package middleware // middleware provides shared request processing for handlers

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/streaming-catalog/internal/errs"
    "github.com/iliyamo/streaming-catalog/internal/model"
)

// RestrictTo returns a middleware function that enforces that the
// authenticated user has one of the specified roles.  It must run after
// RequireSession.  A missing identity is treated as unauthenticated; a role
// outside the allowed set is errs.ErrForbidden (403).
func RestrictTo(roles ...model.Role) echo.MiddlewareFunc {
    allowed := make(map[model.Role]bool, len(roles))
    for _, r := range roles {
        allowed[r] = true
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            id, ok := IdentityFrom(c)
            if !ok {
                return errs.ErrUnauthenticated
            }
            if !allowed[id.Role] {
                return errs.ErrForbidden
            }
            return next(c)
        }
    }
}
