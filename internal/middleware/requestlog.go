package middleware

import (
    "fmt"
    "net/http"
    "runtime"
    "time"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"
)

// RequestLogger logs one line per request with method, path, status and
// latency.  Errors are handed to Echo's error handler first so the logged
// status is the one the client sees.
func RequestLogger(log *zap.Logger) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            err := next(c)
            if err != nil {
                c.Error(err)
            }
            req := c.Request()
            status := c.Response().Status
            fields := []zap.Field{
                zap.String("method", req.Method),
                zap.String("path", req.URL.Path),
                zap.String("route", c.Path()),
                zap.Int("status", status),
                zap.Duration("latency", time.Since(start)),
                zap.String("ip", c.RealIP()),
                zap.String("user", userID(c)),
            }
            switch {
            case status >= 500:
                log.Error("request", append(fields, zap.Error(err))...)
            case status >= 400:
                log.Warn("request", fields...)
            default:
                log.Info("request", fields...)
            }
            return nil
        }
    }
}

// Recover turns a panic into an error for the error handler and logs the
// stack.
func Recover(log *zap.Logger) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) (err error) {
            defer func() {
                if r := recover(); r != nil {
                    if r == http.ErrAbortHandler {
                        panic(r)
                    }
                    buf := make([]byte, 4<<10)
                    buf = buf[:runtime.Stack(buf, false)]
                    log.Error("panic recovered",
                        zap.Any("panic", r),
                        zap.String("path", c.Request().URL.Path),
                        zap.ByteString("stack", buf),
                    )
                    err = fmt.Errorf("panic: %v", r)
                }
            }()
            return next(c)
        }
    }
}
