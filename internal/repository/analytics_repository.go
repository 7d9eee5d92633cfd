package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// AnalyticsRepo answers the aggregate queries behind the admin dashboard.
type AnalyticsRepo struct{ DB *sql.DB }

func NewAnalyticsRepo(db *sql.DB) *AnalyticsRepo { return &AnalyticsRepo{DB: db} }

// SalesTotals holds the count of paid orders and their summed revenue.
type SalesTotals struct {
	TotalSales   int64
	TotalRevenue decimal.Decimal
}

// DailySale is one day's paid-order count and revenue.
type DailySale struct {
	Date    string
	Sales   int64
	Revenue decimal.Decimal
}

// Totals returns the lifetime paid-sales count and revenue.
func (r *AnalyticsRepo) Totals(ctx context.Context) (SalesTotals, error) {
	var (
		t       SalesTotals
		revenue string
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(total_amount),0) FROM orders WHERE is_paid=1").
		Scan(&t.TotalSales, &revenue)
	if err != nil {
		return SalesTotals{}, err
	}
	t.TotalRevenue, err = decimal.NewFromString(revenue)
	return t, err
}

// DailySales returns per-day paid order counts and revenue between the two
// dates inclusive. Days without sales are absent from the result; the
// handler fills the gaps so the dashboard gets a dense series.
func (r *AnalyticsRepo) DailySales(ctx context.Context, from, to time.Time) ([]DailySale, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT DATE(paid_at), COUNT(*), COALESCE(SUM(total_amount),0) FROM orders "+
			"WHERE is_paid=1 AND paid_at >= ? AND paid_at < ? GROUP BY DATE(paid_at) ORDER BY DATE(paid_at)",
		from, to.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []DailySale{}
	for rows.Next() {
		var (
			d       DailySale
			day     time.Time
			revenue string
		)
		if err := rows.Scan(&day, &d.Sales, &revenue); err != nil {
			return nil, err
		}
		d.Date = day.Format("2006-01-02")
		if d.Revenue, err = decimal.NewFromString(revenue); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
