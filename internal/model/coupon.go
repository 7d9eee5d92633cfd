package model

import "time"

// Coupon models a row in the `coupons` table.  A coupon belongs to a
// single user, carries a percentage discount, and stays valid until its
// expiry date.  Expired coupons are deactivated lazily when touched by a
// validation attempt.
type Coupon struct {
    ID                 uint64    // coupons.id
    Code               string    // coupons.code (unique)
    UserID             uint64    // coupons.user_id
    DiscountPercentage int       // coupons.discount_percentage
    ExpirationDate     time.Time // coupons.expiration_date
    IsActive           bool      // coupons.is_active
    CreatedAt          time.Time // coupons.created_at
}

// Expired reports whether the coupon's validity window has passed.
func (c Coupon) Expired(now time.Time) bool { return now.After(c.ExpirationDate) }
