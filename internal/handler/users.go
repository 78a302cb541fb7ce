package handler

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/streaming-catalog/internal/model"
    "github.com/iliyamo/streaming-catalog/internal/service"
)

// UserHandler serves the admin user listing.
type UserHandler struct {
    Catalog *service.CatalogService
}

func NewUserHandler(catalog *service.CatalogService) *UserHandler {
    return &UserHandler{Catalog: catalog}
}

// List: GET /users/admin/users?q&role&page&limit&sort
func (h *UserHandler) List(c echo.Context) error {
    ctx, cancel := requestCtx(c)
    defer cancel()

    p, err := h.Catalog.SearchAccounts(ctx, service.AccountFilter{
        Text: strings.TrimSpace(c.QueryParam("q")),
        Role: model.Role(strings.ToLower(strings.TrimSpace(c.QueryParam("role")))),
    },
        queryInt(c, "page", 1),
        queryInt(c, "limit", service.DefaultPageLimit),
        service.ParseSort(c.QueryParam("sort"), service.AccountSortFields, service.DefaultSort),
    )
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, mapPage(p, toUser))
}

// Recent: dashboard widget, newest accounts first.
func (h *UserHandler) Recent(c echo.Context) error {
    ctx, cancel := requestCtx(c)
    defer cancel()

    items, err := h.Catalog.RecentAccounts(ctx, queryInt(c, "limit", 5))
    if err != nil {
        return err
    }
    out := make([]userPart, 0, len(items))
    for _, a := range items {
        out = append(out, toUser(a))
    }
    return c.JSON(http.StatusOK, echo.Map{"items": out, "total": len(out)})
}
