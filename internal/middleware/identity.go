package middleware

// identity.go provides a helper shared by the rate-limit middleware: a
// stable key identifying the caller.  Authenticated requests are keyed by
// user id so a user cannot dodge limits by rotating addresses; everything
// else falls back to the client IP.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// clientKey returns "u:<id>" for authenticated requests and "ip:<addr>"
// otherwise.
func clientKey(c echo.Context) string {
	if v := c.Get(CtxUserID); v != nil {
		if id, ok := v.(uint64); ok {
			return "u:" + strconv.FormatUint(id, 10)
		}
	}
	return "ip:" + c.RealIP()
}
