package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// getUserID pulls the authenticated user's ID from context.  The JWT
// middleware stores the token's subject under "user_id"; a missing or
// non-string value means the route was wired without the middleware.
func getUserID(c echo.Context) (string, error) {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return uid, nil
}

// isAdmin reports whether the current request carries the ADMIN role.
func isAdmin(c echo.Context) bool {
	role, _ := c.Get("role").(string)
	return role == "ADMIN"
}
