package handler

import (
    "errors"
    "fmt"
    "net/http"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/streaming-catalog/internal/errs"
)

// statusByKind maps error kinds to HTTP status codes.
var statusByKind = map[errs.Kind]int{
    errs.KindValidation:     http.StatusBadRequest,
    errs.KindAuthentication: http.StatusUnauthorized,
    errs.KindAuthorization:  http.StatusForbidden,
    errs.KindNotFound:       http.StatusNotFound,
    errs.KindConflict:       http.StatusConflict,
    errs.KindRateLimited:    http.StatusTooManyRequests,
    errs.KindUpstream:       http.StatusInternalServerError,
    errs.KindInternal:       http.StatusInternalServerError,
}

// NewErrorHandler returns the echo HTTPErrorHandler.  It is the only place
// errors become status codes.  Outside production a 5xx body also carries
// the internal error text under "detail".
func NewErrorHandler(log *zap.Logger, production bool) echo.HTTPErrorHandler {
    if log == nil {
        log = zap.NewNop()
    }
    return func(err error, c echo.Context) {
        if c.Response().Committed {
            return
        }
        status, body := translate(err)
        if status >= http.StatusInternalServerError {
            log.Error("request failed",
                zap.String("method", c.Request().Method),
                zap.String("path", c.Request().URL.Path),
                zap.Error(err),
            )
            if !production {
                body["detail"] = err.Error()
            }
        }
        if c.Request().Method == http.MethodHead {
            err = c.NoContent(status)
        } else {
            err = c.JSON(status, body)
        }
        if err != nil {
            log.Warn("writing error response failed", zap.Error(err))
        }
    }
}

func translate(err error) (int, echo.Map) {
    var he *echo.HTTPError
    if errors.As(err, &he) {
        return he.Code, echo.Map{"message": httpErrorMessage(he)}
    }
    return statusByKind[errs.KindOf(err)], echo.Map{"message": errs.PublicMessage(err)}
}

// httpErrorMessage covers errors raised by echo itself: unknown routes,
// wrong methods, oversized bodies and bind failures.
func httpErrorMessage(he *echo.HTTPError) string {
    switch he.Code {
    case http.StatusNotFound:
        return "Route not found"
    case http.StatusMethodNotAllowed:
        return "Method not allowed"
    case http.StatusRequestEntityTooLarge:
        return "Payload too large"
    case http.StatusBadRequest:
        return "Invalid body"
    }
    if he.Code >= http.StatusInternalServerError {
        return "Server error"
    }
    if s, ok := he.Message.(string); ok {
        return s
    }
    return fmt.Sprint(he.Message)
}
