package middleware

// identity.go defines how the authenticated subject travels through the Echo
// context.  RequireSession stores it; handlers, RestrictTo and the rate
// limiter read it back.

import (
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/streaming-catalog/internal/model"
)

const identityKey = "identity"

// SetIdentity binds id to the request.  "user_id" and "role" are stored as
// strings as well for key builders and logs.
func SetIdentity(c echo.Context, id model.Identity) {
    c.Set(identityKey, id)
    c.Set("user_id", strconv.FormatUint(id.ID, 10))
    c.Set("role", string(id.Role))
}

// IdentityFrom returns the identity bound by RequireSession.
func IdentityFrom(c echo.Context) (model.Identity, bool) {
    id, ok := c.Get(identityKey).(model.Identity)
    return id, ok
}

// userID returns the authenticated user id, or "guest".
func userID(c echo.Context) string {
    if v, ok := c.Get("user_id").(string); ok && v != "" {
        return v
    }
    return "guest"
}
