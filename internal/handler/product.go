package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/valelectronic/dera-backend/internal/model"
	"github.com/valelectronic/dera-backend/internal/repository"
)

// ProductStore is the slice of the product repository the catalog
// endpoints need.
type ProductStore interface {
	Create(ctx context.Context, p model.Product) (uint64, error)
	List(ctx context.Context) ([]model.Product, error)
	ListFeatured(ctx context.Context) ([]model.Product, error)
	ListByCategory(ctx context.Context, category string) ([]model.Product, error)
	ToggleFeatured(ctx context.Context, id uint64) (model.Product, error)
	Delete(ctx context.Context, id uint64) error
}

// ProductHandler serves the catalog: public browse endpoints plus the
// admin-only mutations.
type ProductHandler struct {
	Products ProductStore
}

func NewProductHandler(p ProductStore) *ProductHandler { return &ProductHandler{Products: p} }

type productReq struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Category    string `json:"category"`
	Image       string `json:"image"`
	Stock       int64  `json:"stock"`
}

type productResp struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Category    string `json:"category"`
	Image       string `json:"image"`
	IsFeatured  bool   `json:"isFeatured"`
	Stock       int64  `json:"stock"`
}

func toProductResp(p model.Product) productResp {
	return productResp{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.StringFixed(2),
		Category:    p.Category,
		Image:       p.Image,
		IsFeatured:  p.IsFeatured,
		Stock:       p.Stock,
	}
}

func toProductResps(ps []model.Product) []productResp {
	out := make([]productResp, len(ps))
	for i, p := range ps {
		out[i] = toProductResp(p)
	}
	return out
}

// List returns every product (admin view).
func (h *ProductHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ps, err := h.Products.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"products": toProductResps(ps)})
}

// Featured returns the public featured carousel.  The route sits behind
// the redis response cache so repeat hits skip the database.
func (h *ProductHandler) Featured(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ps, err := h.Products.ListFeatured(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error"})
	}
	return c.JSON(http.StatusOK, toProductResps(ps))
}

// ByCategory lists products in one category (public).
func (h *ProductHandler) ByCategory(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ps, err := h.Products.ListByCategory(ctx, c.Param("category"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"products": toProductResps(ps)})
}

// Create inserts a new product (admin).
func (h *ProductHandler) Create(c echo.Context) error {
	var req productReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid body"})
	}
	if req.Name == "" || req.Description == "" || req.Price == "" || req.Category == "" || req.Image == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Please fill all fields"})
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid price"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p := model.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       price,
		Category:    req.Category,
		Image:       req.Image,
		Stock:       req.Stock,
	}
	id, err := h.Products.Create(ctx, p)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error"})
	}
	p.ID = id
	return c.JSON(http.StatusCreated, toProductResp(p))
}

// ToggleFeatured flips a product's featured flag (admin).
func (h *ProductHandler) ToggleFeatured(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid product id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Products.ToggleFeatured(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Product not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error"})
	}
	return c.JSON(http.StatusOK, toProductResp(p))
}

// Delete removes a product (admin).
func (h *ProductHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid product id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Products.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Product not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Product deleted successfully"})
}
