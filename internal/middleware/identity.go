package middleware

// identity.go defines helper functions shared across middleware files.
// Currently it provides a userID extraction function used for building
// per-user rate-limit keys. When no session user is attached to the
// context, "guest" is returned so anonymous traffic shares one bucket
// per IP.

import (
    "strconv"

    "github.com/labstack/echo/v4"
)

// userID returns the authenticated user's ID as a string, or "guest"
// when the request carries no resolved session user.
func userID(c echo.Context) string {
    if u, ok := CurrentUser(c); ok {
        return strconv.FormatUint(u.ID, 10)
    }
    return "guest"
}
