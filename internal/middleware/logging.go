package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// リクエストごとに1行ログを出す
func RequestLogger(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				//ステータスを確定させるためにここでechoのエラーハンドラを通す
				c.Error(err)
			}

			req := c.Request()
			ev := logger.Info()
			if status := c.Response().Status; status >= http.StatusInternalServerError {
				ev = logger.Error()
			}
			ev.
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Str("route", c.Path()).
				Int("status", c.Response().Status).
				Dur("duration", time.Since(start)).
				Str("remote_addr", c.RealIP()).
				Msg("http request")
			return nil
		}
	}
}

// panicを500にする
func Recovery(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					if r == http.ErrAbortHandler {
						panic(r)
					}
					logger.Error().
						Interface("panic", r).
						Str("method", c.Request().Method).
						Str("path", c.Request().URL.Path).
						Msg("panic recovered")
					err = c.JSON(http.StatusInternalServerError, errorJSON("internal server error"))
					if err != nil {
						err = fmt.Errorf("write panic response: %w", err)
					}
				}
			}()
			return next(c)
		}
	}
}
