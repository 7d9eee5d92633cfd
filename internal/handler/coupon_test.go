package handler_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/valelectronic/dera-backend/internal/handler"
	"github.com/valelectronic/dera-backend/internal/model"
	"github.com/valelectronic/dera-backend/internal/repository"
)

func TestCouponGet(t *testing.T) {
	e := echo.New()
	coupons := newMemCouponStore()
	h := handler.NewCouponHandler(coupons)

	require.NoError(t, coupons.Create(context.Background(), model.Coupon{
		Code:               "SAVE10",
		UserID:             7,
		DiscountPercentage: 10,
		ExpirationDate:     farFuture(),
	}))

	c, rec := jsonCtx(e, http.MethodGet, "/api/coupons", "")
	c.Set("user", model.User{ID: 7})
	require.NoError(t, h.Get(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "SAVE10")

	// Another user has no active coupon.
	c, rec = jsonCtx(e, http.MethodGet, "/api/coupons", "")
	c.Set("user", model.User{ID: 8})
	require.NoError(t, h.Get(c))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "Coupon not found")
}

func TestCouponValidate(t *testing.T) {
	e := echo.New()
	coupons := newMemCouponStore()
	h := handler.NewCouponHandler(coupons)

	require.NoError(t, coupons.Create(context.Background(), model.Coupon{
		Code:               "SAVE10",
		UserID:             7,
		DiscountPercentage: 10,
		ExpirationDate:     farFuture(),
	}))

	c, rec := jsonCtx(e, http.MethodPost, "/api/coupons/validate", `{"code":"SAVE10"}`)
	c.Set("user", model.User{ID: 7})
	require.NoError(t, h.Validate(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Coupon is valid")

	// A coupon belongs to its user; someone else's code does not validate.
	c, rec = jsonCtx(e, http.MethodPost, "/api/coupons/validate", `{"code":"SAVE10"}`)
	c.Set("user", model.User{ID: 8})
	require.NoError(t, h.Validate(c))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCouponValidateRequiresCode(t *testing.T) {
	e := echo.New()
	h := handler.NewCouponHandler(newMemCouponStore())

	c, rec := jsonCtx(e, http.MethodPost, "/api/coupons/validate", `{}`)
	c.Set("user", model.User{ID: 7})
	require.NoError(t, h.Validate(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "Coupon code is required")
}

func TestCouponValidateExpiredDeactivates(t *testing.T) {
	e := echo.New()
	coupons := newMemCouponStore()
	h := handler.NewCouponHandler(coupons)

	require.NoError(t, coupons.Create(context.Background(), model.Coupon{
		Code:               "OLD10",
		UserID:             7,
		DiscountPercentage: 10,
		ExpirationDate:     time.Now().UTC().Add(-time.Hour),
	}))

	c, rec := jsonCtx(e, http.MethodPost, "/api/coupons/validate", `{"code":"OLD10"}`)
	c.Set("user", model.User{ID: 7})
	require.NoError(t, h.Validate(c))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "Coupon expired")

	// Deactivated on touch: the coupon is gone for subsequent lookups.
	_, err := coupons.GetActiveByCodeAndUser(context.Background(), "OLD10", 7)
	require.ErrorIs(t, err, repository.ErrNotFound)
}
