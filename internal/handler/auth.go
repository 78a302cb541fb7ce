package handler

import (
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/streaming-catalog/internal/service"
)

// CookieSettings describes the session cookie.
type CookieSettings struct {
    Name   string
    Secure bool
}

func (s CookieSettings) set(c echo.Context, tok service.IssuedToken) {
    c.SetCookie(&http.Cookie{
        Name:     s.Name,
        Value:    tok.Token,
        Path:     "/",
        HttpOnly: true,
        Secure:   s.Secure,
        SameSite: http.SameSiteLaxMode,
        MaxAge:   int(tok.TTL / time.Second),
        Expires:  tok.ExpiresAt,
    })
}

func (s CookieSettings) clear(c echo.Context) {
    c.SetCookie(&http.Cookie{
        Name:     s.Name,
        Value:    "",
        Path:     "/",
        HttpOnly: true,
        Secure:   s.Secure,
        SameSite: http.SameSiteLaxMode,
        MaxAge:   -1,
        Expires:  time.Unix(0, 0),
    })
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
    Auth   *service.AuthService
    Reset  *service.PasswordResetService
    Cookie CookieSettings
}

func NewAuthHandler(auth *service.AuthService, reset *service.PasswordResetService, cookie CookieSettings) *AuthHandler {
    return &AuthHandler{Auth: auth, Reset: reset, Cookie: cookie}
}

// ----- DTOs -----

type registerReq struct {
    FirstName string `json:"firstName"`
    LastName  string `json:"lastName"`
    Email     string `json:"email"`
    Password  string `json:"password"`
}
type loginReq struct {
    Email      string `json:"email"`
    Password   string `json:"password"`
    RememberMe bool   `json:"rememberMe"`
}
type forgotReq struct {
    Email string `json:"email"`
}
type resetReq struct {
    Password string `json:"password"`
}

type authResp struct {
    User      userPart  `json:"user"`
    Token     string    `json:"token"`
    ExpiresAt time.Time `json:"expiresAt"`
}

func sessionResp(s service.Session) authResp {
    return authResp{User: toUser(s.Account), Token: s.Token.Token, ExpiresAt: s.Token.ExpiresAt}
}

// Register: create a user account and open a default-length session.
func (h *AuthHandler) Register(c echo.Context) error {
    var req registerReq
    if err := bind(c, &req); err != nil {
        return err
    }
    ctx, cancel := requestCtx(c)
    defer cancel()

    sess, err := h.Auth.Register(ctx, service.RegisterInput{
        FirstName: req.FirstName,
        LastName:  req.LastName,
        Email:     req.Email,
        Password:  req.Password,
    })
    if err != nil {
        return err
    }
    h.Cookie.set(c, sess.Token)
    return c.JSON(http.StatusCreated, sessionResp(sess))
}

// Login: verify credentials; rememberMe selects the long session.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := bind(c, &req); err != nil {
        return err
    }
    ctx, cancel := requestCtx(c)
    defer cancel()

    sess, err := h.Auth.Login(ctx, req.Email, req.Password, req.RememberMe)
    if err != nil {
        return err
    }
    h.Cookie.set(c, sess.Token)
    return c.JSON(http.StatusOK, sessionResp(sess))
}

// Logout clears the session cookie.  Tokens are stateless, so a copy held
// elsewhere stays valid until it expires.
func (h *AuthHandler) Logout(c echo.Context) error {
    h.Cookie.clear(c)
    return c.JSON(http.StatusOK, echo.Map{"message": "Logged out"})
}

// Me returns the account behind the session.
func (h *AuthHandler) Me(c echo.Context) error {
    id, err := currentIdentity(c)
    if err != nil {
        return err
    }
    ctx, cancel := requestCtx(c)
    defer cancel()

    a, err := h.Auth.Me(ctx, id.ID)
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, echo.Map{"user": toUser(a)})
}

// ForgotPassword answers identically for known and unknown emails.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
    var req forgotReq
    if err := bind(c, &req); err != nil {
        return err
    }
    ctx, cancel := requestCtx(c)
    defer cancel()

    if err := h.Reset.Request(ctx, req.Email); err != nil {
        return err
    }
    return c.JSON(http.StatusOK, echo.Map{"message": service.ResetRequestedMessage})
}

// ResetPassword redeems the secret from the reset link.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
    var req resetReq
    if err := bind(c, &req); err != nil {
        return err
    }
    ctx, cancel := requestCtx(c)
    defer cancel()

    if err := h.Reset.Redeem(ctx, c.Param("token"), req.Password); err != nil {
        return err
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "Password reset successful"})
}
