package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/valelectronic/dera-backend/internal/middleware"
	"github.com/valelectronic/dera-backend/internal/model"
	"github.com/valelectronic/dera-backend/internal/repository"
)

// CouponStore is the slice of the coupon repository the coupon endpoints
// and the checkout flow need.
type CouponStore interface {
	Create(ctx context.Context, c model.Coupon) error
	GetActiveForUser(ctx context.Context, userID uint64) (model.Coupon, error)
	GetActiveByCodeAndUser(ctx context.Context, code string, userID uint64) (model.Coupon, error)
	Deactivate(ctx context.Context, id uint64) error
}

// CouponHandler serves the per-user coupon endpoints.
type CouponHandler struct {
	Coupons CouponStore
}

func NewCouponHandler(coupons CouponStore) *CouponHandler { return &CouponHandler{Coupons: coupons} }

type validateCouponReq struct {
	Code string `json:"code"`
}

type couponResp struct {
	Code               string `json:"code"`
	DiscountPercentage int    `json:"discountPercentage"`
	ExpirationDate     string `json:"expirationDate"`
}

// Get returns the caller's active coupon, or 404 when none exists.
func (h *CouponHandler) Get(c echo.Context) error {
	u, _ := middleware.CurrentUser(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	cp, err := h.Coupons.GetActiveForUser(ctx, u.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Coupon not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error"})
	}
	return c.JSON(http.StatusOK, couponResp{
		Code:               cp.Code,
		DiscountPercentage: cp.DiscountPercentage,
		ExpirationDate:     cp.ExpirationDate.Format(time.RFC3339),
	})
}

// Validate checks a coupon code for the caller.  Expired coupons are
// deactivated on touch and reported as expired.
func (h *CouponHandler) Validate(c echo.Context) error {
	u, _ := middleware.CurrentUser(c)
	var req validateCouponReq
	if err := c.Bind(&req); err != nil || req.Code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Coupon code is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	cp, err := h.Coupons.GetActiveByCodeAndUser(ctx, req.Code, u.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Coupon not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error"})
	}
	if cp.Expired(time.Now().UTC()) {
		if err := h.Coupons.Deactivate(ctx, cp.ID); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error"})
		}
		return c.JSON(http.StatusNotFound, echo.Map{"message": "Coupon expired"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message":            "Coupon is valid",
		"code":               cp.Code,
		"discountPercentage": cp.DiscountPercentage,
	})
}
