package middleware

// identity.go holds the request-identity helper shared by the
// middleware in this package.  JWTAuth stores the token subject under
// "user_id"; anything running before (or without) it sees "anon".

import (
	"github.com/labstack/echo/v4"
)

// currentUserID extracts the authenticated user's ID from context, or
// "anon" for unauthenticated requests.  Rate-limit keys use it so
// authenticated traffic is bucketed per user rather than per IP alone.
func currentUserID(c echo.Context) string {
	if v := c.Get("user_id"); v != nil {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return "anon"
}
