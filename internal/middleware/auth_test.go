package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/valelectronic/dera-backend/internal/middleware"
	"github.com/valelectronic/dera-backend/internal/model"
	"github.com/valelectronic/dera-backend/internal/repository"
	"github.com/valelectronic/dera-backend/internal/utils"
)

const testSecret = "access-secret"

// loaderFunc adapts a function to middleware.UserLoader.
type loaderFunc func(ctx context.Context, id uint64) (model.User, error)

func (f loaderFunc) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return f(ctx, id)
}

func knownUser(u model.User) loaderFunc {
	return func(_ context.Context, id uint64) (model.User, error) {
		if id == u.ID {
			return u, nil
		}
		return model.User{}, repository.ErrNotFound
	}
}

// protectedEcho mounts a probe handler behind Protect that echoes back the
// resolved user's email.
func protectedEcho(users middleware.UserLoader, extra ...echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	mws := append([]echo.MiddlewareFunc{middleware.Protect(testSecret, users)}, extra...)
	e.GET("/probe", func(c echo.Context) error {
		u, _ := middleware.CurrentUser(c)
		return c.JSON(http.StatusOK, echo.Map{"email": u.Email})
	}, mws...)
	return e
}

func accessToken(t *testing.T, userID uint64) string {
	t.Helper()
	tok, err := utils.NewAccessToken(testSecret, userID, 15)
	require.NoError(t, err)
	return tok.Value
}

func get(e *echo.Echo, decorate func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	if decorate != nil {
		decorate(req)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestProtectMissingToken(t *testing.T) {
	e := protectedEcho(knownUser(model.User{ID: 1}))

	rec := get(e, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "no access token provided")
}

func TestProtectCookieToken(t *testing.T) {
	e := protectedEcho(knownUser(model.User{ID: 1, Email: "a@x.com"}))
	tok := accessToken(t, 1)

	rec := get(e, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "accessToken", Value: tok})
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "a@x.com")
}

func TestProtectBearerToken(t *testing.T) {
	e := protectedEcho(knownUser(model.User{ID: 1, Email: "a@x.com"}))
	tok := accessToken(t, 1)

	rec := get(e, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+tok)
	})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestProtectCookieWinsOverBearer(t *testing.T) {
	e := protectedEcho(knownUser(model.User{ID: 1, Email: "a@x.com"}))

	rec := get(e, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "accessToken", Value: accessToken(t, 1)})
		r.Header.Set("Authorization", "Bearer garbage")
	})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestProtectInvalidToken(t *testing.T) {
	e := protectedEcho(knownUser(model.User{ID: 1}))

	for _, tok := range []string{
		"not-a-jwt",
		accessToken(t, 1) + "tampered",
	} {
		rec := get(e, func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: "accessToken", Value: tok})
		})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Body.String(), "invalid access token")
	}
}

func TestProtectWrongSigningKey(t *testing.T) {
	e := protectedEcho(knownUser(model.User{ID: 1}))

	tok, err := utils.NewAccessToken("other-secret", 1, 15)
	require.NoError(t, err)
	rec := get(e, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "accessToken", Value: tok.Value})
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProtectDeletedAccount(t *testing.T) {
	// The loader knows user 1 only; a valid token for user 2 is denied.
	e := protectedEcho(knownUser(model.User{ID: 1}))

	rec := get(e, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "accessToken", Value: accessToken(t, 2)})
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "user not found")
}

func TestRequireAdmin(t *testing.T) {
	admin := model.User{ID: 1, Email: "admin@x.com", Role: "admin"}
	customer := model.User{ID: 2, Email: "c@x.com", Role: "customer"}

	load := loaderFunc(func(_ context.Context, id uint64) (model.User, error) {
		switch id {
		case admin.ID:
			return admin, nil
		case customer.ID:
			return customer, nil
		}
		return model.User{}, repository.ErrNotFound
	})
	e := protectedEcho(load, middleware.RequireAdmin())

	rec := get(e, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "accessToken", Value: accessToken(t, customer.ID)})
	})
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, rec.Body.String(), "Admin only")

	rec = get(e, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "accessToken", Value: accessToken(t, admin.ID)})
	})
	require.Equal(t, http.StatusOK, rec.Code)
}
