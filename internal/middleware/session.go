package middleware

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/streaming-catalog/internal/errs"
    "github.com/iliyamo/streaming-catalog/internal/model"
)

// TokenVerifier validates a session token.
type TokenVerifier interface {
    Verify(token string) (model.Identity, error)
}

// TokenFromRequest returns the session token carried by r: a Bearer
// Authorization header wins over the session cookie.  Empty when neither is
// present.
func TokenFromRequest(r *http.Request, cookieName string) string {
    if auth := r.Header.Get("Authorization"); len(auth) > 7 && strings.EqualFold(auth[:7], "Bearer ") {
        if tok := strings.TrimSpace(auth[7:]); tok != "" {
            return tok
        }
    }
    if ck, err := r.Cookie(cookieName); err == nil && ck.Value != "" {
        return ck.Value
    }
    return ""
}

// RequireSession rejects requests without a valid session token.  A missing
// token is errs.ErrUnauthenticated, a bad one errs.ErrInvalidToken; both
// become 401 in the error handler.  On success the identity is bound with
// SetIdentity.
func RequireSession(v TokenVerifier, cookieName string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            raw := TokenFromRequest(c.Request(), cookieName)
            if raw == "" {
                return errs.ErrUnauthenticated
            }
            id, err := v.Verify(raw)
            if err != nil {
                return errs.ErrInvalidToken
            }
            SetIdentity(c, id)
            return next(c)
        }
    }
}
