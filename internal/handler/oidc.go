package handler

import (
    "context"
    "crypto/subtle"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/streaming-catalog/internal/errs"
    "github.com/iliyamo/streaming-catalog/internal/service"
    "github.com/iliyamo/streaming-catalog/internal/utils"
)

const oidcStateCookie = "oidc_state"

// ExternalLogin is the authorization-code flow of an OpenID Connect provider.
type ExternalLogin interface {
    AuthCodeURL(state string) string
    Exchange(ctx context.Context, code string) (service.ExternalIdentity, error)
}

// OIDCHandler implements "sign in with Google".  With no provider
// configured both endpoints answer 501.
type OIDCHandler struct {
    Provider  ExternalLogin
    Auth      *service.AuthService
    Cookie    CookieSettings
    ClientURL string
}

func NewOIDCHandler(p ExternalLogin, auth *service.AuthService, cookie CookieSettings, clientURL string) *OIDCHandler {
    return &OIDCHandler{Provider: p, Auth: auth, Cookie: cookie, ClientURL: strings.TrimRight(clientURL, "/")}
}

func notConfigured(c echo.Context) error {
    return c.JSON(http.StatusNotImplemented, echo.Map{"message": "Google sign-in is not configured"})
}

// Start redirects the browser to the provider with a fresh state value.
func (h *OIDCHandler) Start(c echo.Context) error {
    if h.Provider == nil {
        return notConfigured(c)
    }
    state, err := utils.NewSecret(16)
    if err != nil {
        return err
    }
    c.SetCookie(&http.Cookie{
        Name:     oidcStateCookie,
        Value:    state,
        Path:     "/",
        HttpOnly: true,
        Secure:   h.Cookie.Secure,
        SameSite: http.SameSiteLaxMode,
        MaxAge:   600,
    })
    return c.Redirect(http.StatusFound, h.Provider.AuthCodeURL(state))
}

// Callback checks state, exchanges the code and opens a session.
func (h *OIDCHandler) Callback(c echo.Context) error {
    if h.Provider == nil {
        return notConfigured(c)
    }
    ck, err := c.Cookie(oidcStateCookie)
    state := c.QueryParam("state")
    if err != nil || state == "" || subtle.ConstantTimeCompare([]byte(ck.Value), []byte(state)) != 1 {
        return errs.Validation("Invalid OAuth state")
    }
    c.SetCookie(&http.Cookie{Name: oidcStateCookie, Path: "/", MaxAge: -1})

    code := c.QueryParam("code")
    if code == "" {
        return errs.Validation("Missing authorization code")
    }
    ctx, cancel := requestCtx(c)
    defer cancel()

    ext, err := h.Provider.Exchange(ctx, code)
    if err != nil {
        return err
    }
    sess, err := h.Auth.LoginExternal(ctx, ext)
    if err != nil {
        return err
    }
    h.Cookie.set(c, sess.Token)
    return c.Redirect(http.StatusFound, h.ClientURL+"/")
}
