package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/valelectronic/dera-backend/internal/middleware"
	"github.com/valelectronic/dera-backend/internal/model"
	"github.com/valelectronic/dera-backend/internal/repository"
)

// CartStore is the slice of the cart repository the cart endpoints need.
type CartStore interface {
	Add(ctx context.Context, userID, productID uint64) error
	SetQuantity(ctx context.Context, userID, productID uint64, quantity int64) error
	Remove(ctx context.Context, userID, productID uint64) error
	Clear(ctx context.Context, userID uint64) error
	List(ctx context.Context, userID uint64) ([]model.CartLine, error)
}

// CartHandler serves the per-user shopping cart.  Every route is behind
// the session middleware, so a resolved user is always on the context.
type CartHandler struct {
	Cart CartStore
}

func NewCartHandler(cart CartStore) *CartHandler { return &CartHandler{Cart: cart} }

type addToCartReq struct {
	ProductID uint64 `json:"productId"`
}
type quantityReq struct {
	Quantity int64 `json:"quantity"`
}

type cartLineResp struct {
	productResp
	Quantity int64 `json:"quantity"`
}

// Add puts one unit of a product in the cart (or bumps its quantity) and
// returns the updated cart.
func (h *CartHandler) Add(c echo.Context) error {
	u, _ := middleware.CurrentUser(c)
	var req addToCartReq
	if err := c.Bind(&req); err != nil || req.ProductID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Product ID is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Cart.Add(ctx, u.ID, req.ProductID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error"})
	}
	return h.respondCart(c, ctx, u.ID, http.StatusOK)
}

// List returns the cart joined with product data.
func (h *CartHandler) List(c echo.Context) error {
	u, _ := middleware.CurrentUser(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	return h.respondCart(c, ctx, u.ID, http.StatusOK)
}

// UpdateQuantity sets the quantity of one cart line; zero removes it.
func (h *CartHandler) UpdateQuantity(c echo.Context) error {
	u, _ := middleware.CurrentUser(c)
	productID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid product id"})
	}
	var req quantityReq
	if err := c.Bind(&req); err != nil || req.Quantity < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid quantity"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Cart.SetQuantity(ctx, u.ID, productID, req.Quantity); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Product not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error"})
	}
	return h.respondCart(c, ctx, u.ID, http.StatusOK)
}

// Remove drops one product from the cart.
func (h *CartHandler) Remove(c echo.Context) error {
	u, _ := middleware.CurrentUser(c)
	productID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid product id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Cart.Remove(ctx, u.ID, productID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error"})
	}
	return h.respondCart(c, ctx, u.ID, http.StatusOK)
}

// Clear empties the cart.
func (h *CartHandler) Clear(c echo.Context) error {
	u, _ := middleware.CurrentUser(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Cart.Clear(ctx, u.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error"})
	}
	return h.respondCart(c, ctx, u.ID, http.StatusOK)
}

func (h *CartHandler) respondCart(c echo.Context, ctx context.Context, userID uint64, status int) error {
	lines, err := h.Cart.List(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error"})
	}
	out := make([]cartLineResp, len(lines))
	for i, l := range lines {
		out[i] = cartLineResp{productResp: toProductResp(l.Product), Quantity: l.Quantity}
	}
	return c.JSON(status, out)
}
