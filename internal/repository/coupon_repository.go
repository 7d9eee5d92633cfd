package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/valelectronic/dera-backend/internal/model"
)

type CouponRepo struct{ DB *sql.DB }

func NewCouponRepo(db *sql.DB) *CouponRepo { return &CouponRepo{DB: db} }

const couponCols = "id,code,user_id,discount_percentage,expiration_date,is_active,created_at"

func scanCoupon(row interface{ Scan(...any) error }) (model.Coupon, error) {
	var c model.Coupon
	err := row.Scan(&c.ID, &c.Code, &c.UserID, &c.DiscountPercentage,
		&c.ExpirationDate, &c.IsActive, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Coupon{}, ErrNotFound
	}
	return c, err
}

// Create inserts a coupon, replacing any prior active coupon for the user
// so each user carries at most one live coupon at a time.
func (r *CouponRepo) Create(ctx context.Context, c model.Coupon) error {
	if _, err := r.DB.ExecContext(ctx,
		"UPDATE coupons SET is_active=0 WHERE user_id=? AND is_active=1", c.UserID); err != nil {
		return err
	}
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO coupons (code, user_id, discount_percentage, expiration_date, is_active) VALUES (?,?,?,?,1)",
		c.Code, c.UserID, c.DiscountPercentage, c.ExpirationDate)
	return err
}

// GetActiveForUser returns the user's current active coupon.
func (r *CouponRepo) GetActiveForUser(ctx context.Context, userID uint64) (model.Coupon, error) {
	return scanCoupon(r.DB.QueryRowContext(ctx,
		"SELECT "+couponCols+" FROM coupons WHERE user_id=? AND is_active=1 LIMIT 1", userID))
}

// GetActiveByCodeAndUser returns an active coupon matched by both its code
// and the owning user, the lookup checkout uses when applying discounts.
func (r *CouponRepo) GetActiveByCodeAndUser(ctx context.Context, code string, userID uint64) (model.Coupon, error) {
	return scanCoupon(r.DB.QueryRowContext(ctx,
		"SELECT "+couponCols+" FROM coupons WHERE code=? AND user_id=? AND is_active=1 LIMIT 1",
		code, userID))
}

// Deactivate turns a coupon off (used when validation finds it expired).
func (r *CouponRepo) Deactivate(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE coupons SET is_active=0 WHERE id=?", id)
	return err
}
