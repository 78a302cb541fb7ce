package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/streaming-catalog/internal/service"
)

// AdminHandler serves the admin console's own login and admin creation.
type AdminHandler struct {
    Auth   *service.AuthService
    Cookie CookieSettings
}

func NewAdminHandler(auth *service.AuthService, cookie CookieSettings) *AdminHandler {
    return &AdminHandler{Auth: auth, Cookie: cookie}
}

// Login accepts admin accounts only.
func (h *AdminHandler) Login(c echo.Context) error {
    var req loginReq
    if err := bind(c, &req); err != nil {
        return err
    }
    ctx, cancel := requestCtx(c)
    defer cancel()

    sess, err := h.Auth.LoginAdmin(ctx, req.Email, req.Password)
    if err != nil {
        return err
    }
    h.Cookie.set(c, sess.Token)
    return c.JSON(http.StatusOK, sessionResp(sess))
}

// Register creates another admin.  Mounted behind RestrictTo(admin).
func (h *AdminHandler) Register(c echo.Context) error {
    var req registerReq
    if err := bind(c, &req); err != nil {
        return err
    }
    ctx, cancel := requestCtx(c)
    defer cancel()

    a, err := h.Auth.CreateAdmin(ctx, service.RegisterInput{
        FirstName: req.FirstName,
        LastName:  req.LastName,
        Email:     req.Email,
        Password:  req.Password,
    })
    if err != nil {
        return err
    }
    return c.JSON(http.StatusCreated, echo.Map{"user": toUser(a)})
}
