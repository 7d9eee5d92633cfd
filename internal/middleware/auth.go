package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "context"  // context with timeout bounds the user lookup
    "errors"   // errors.Is distinguishes expiry for logging
    "log"      // log records the collapsed failure mode server-side
    "net/http" // HTTP status codes for responses
    "strings"  // string utilities for prefix checking and trimming
    "time"     // timeout duration for the lookup

    "github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

    "github.com/valelectronic/dera-backend/internal/model"      // resolved user attached to the context
    "github.com/valelectronic/dera-backend/internal/repository" // user lookup by token subject
    "github.com/valelectronic/dera-backend/internal/utils"      // token verification
)

// userKey is the context key under which the resolved user is stored.
const userKey = "user"

// UserLoader resolves a token subject to a full user record.  The MySQL
// UserRepo satisfies it in production; tests substitute an in-memory fake.
type UserLoader interface {
    GetByID(ctx context.Context, id uint64) (model.User, error)
}

// Protect returns an Echo middleware that validates the access token on
// every protected request and attaches the resolved user record to the
// request context.  The token is taken from the `accessToken` cookie or,
// failing that, from a Bearer Authorization header.  Every failure mode —
// missing token, bad signature, expiry, deleted account — collapses into
// the same 401 so clients cannot probe which one occurred; expiry is only
// distinguished in the server log.  This middleware never refreshes a
// token itself: an expired access token simply denies the request and the
// client is expected to call the refresh endpoint.
func Protect(accessSecret string, users UserLoader) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            raw := tokenFrom(c)
            if raw == "" {
                return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Unauthorized: no access token provided"})
            }
            uid, err := utils.ParseSubject(accessSecret, raw)
            if err != nil {
                if errors.Is(err, utils.ErrTokenExpired) {
                    log.Printf("auth: expired access token on %s", c.Path())
                }
                return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Unauthorized: invalid access token"})
            }

            ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
            defer cancel()

            u, err := users.GetByID(ctx, uid)
            if err != nil {
                // A valid token for a deleted account is still a 401.
                if errors.Is(err, repository.ErrNotFound) {
                    return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Unauthorized: user not found"})
                }
                return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error"})
            }
            c.Set(userKey, u)
            return next(c)
        }
    }
}

// RequireAdmin aborts with 403 unless the resolved user carries the admin
// role.  It assumes Protect ran earlier in the chain.
func RequireAdmin() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            u, ok := CurrentUser(c)
            if !ok || !u.IsAdmin() {
                return c.JSON(http.StatusForbidden, echo.Map{"message": "Access denied - Admin only"})
            }
            return next(c)
        }
    }
}

// CurrentUser returns the user attached by Protect, if any.
func CurrentUser(c echo.Context) (model.User, bool) {
    u, ok := c.Get(userKey).(model.User)
    return u, ok
}

// tokenFrom extracts the access token from the request, preferring the
// httpOnly cookie set by the auth flows and falling back to a Bearer
// header for non-browser clients.
func tokenFrom(c echo.Context) string {
    if ck, err := c.Cookie("accessToken"); err == nil && ck.Value != "" {
        return ck.Value
    }
    auth := c.Request().Header.Get("Authorization")
    if strings.HasPrefix(auth, "Bearer ") {
        return strings.TrimPrefix(auth, "Bearer ")
    }
    return ""
}
