package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/valelectronic/dera-backend/internal/repository"
)

// Counter reports a record count; the user and product repos satisfy it.
type Counter interface {
	Count(ctx context.Context) (int64, error)
}

// SalesReader is the analytics repository surface the dashboard needs.
type SalesReader interface {
	Totals(ctx context.Context) (repository.SalesTotals, error)
	DailySales(ctx context.Context, from, to time.Time) ([]repository.DailySale, error)
}

// AnalyticsHandler serves the admin dashboard aggregates.
type AnalyticsHandler struct {
	Users    Counter
	Products Counter
	Sales    SalesReader
}

func NewAnalyticsHandler(users, products Counter, sales SalesReader) *AnalyticsHandler {
	return &AnalyticsHandler{Users: users, Products: products, Sales: sales}
}

type dailySaleResp struct {
	Date    string `json:"date"`
	Sales   int64  `json:"sales"`
	Revenue string `json:"revenue"`
}

// Summary returns lifetime totals plus a dense per-day series for the
// trailing week (days without sales appear with zeroes).
func (h *AnalyticsHandler) Summary(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	users, err := h.Users.Count(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error"})
	}
	products, err := h.Products.Count(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error"})
	}
	totals, err := h.Sales.Totals(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error"})
	}

	to := time.Now().UTC().Truncate(24 * time.Hour)
	from := to.AddDate(0, 0, -6)
	daily, err := h.Sales.DailySales(ctx, from, to)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error"})
	}
	byDate := make(map[string]repository.DailySale, len(daily))
	for _, d := range daily {
		byDate[d.Date] = d
	}
	series := make([]dailySaleResp, 0, 7)
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		key := day.Format("2006-01-02")
		entry := dailySaleResp{Date: key, Revenue: "0.00"}
		if d, ok := byDate[key]; ok {
			entry.Sales = d.Sales
			entry.Revenue = d.Revenue.StringFixed(2)
		}
		series = append(series, entry)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"analyticsData": echo.Map{
			"users":        users,
			"products":     products,
			"totalSales":   totals.TotalSales,
			"totalRevenue": totals.TotalRevenue.StringFixed(2),
		},
		"dailySalesData": series,
	})
}
