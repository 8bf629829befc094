package middleware

import (
	"github.com/labstack/echo/v4"
)

// Context keys set by JWTAuth.
const (
	ctxUserID = "user_id"
	ctxRole   = "role"
)

// currentUserID returns the authenticated operator's user id, or "anon"
// when the request carried no token.
func currentUserID(c echo.Context) string {
	if s, ok := c.Get(ctxUserID).(string); ok && s != "" {
		return s
	}
	return "anon"
}

// CurrentRole returns the role claim stored by JWTAuth.
func CurrentRole(c echo.Context) string {
	s, _ := c.Get(ctxRole).(string)
	return s
}

// CurrentUserID returns the subject claim stored by JWTAuth, or "" for
// unauthenticated requests.
func CurrentUserID(c echo.Context) string {
	s, _ := c.Get(ctxUserID).(string)
	return s
}
