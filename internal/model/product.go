package model

import (
    "time"

    "github.com/shopspring/decimal"
)

// Product models a row in the `products` table.  Prices are stored as
// DECIMAL(10,2) in the major currency unit; the payment layer converts to
// kobo (the subunit) when talking to the gateway.
//
// Fields:
//  ID          – primary key identifier.
//  Name        – product display name.
//  Description – free-form description text.
//  Price       – unit price in the major currency unit.
//  Category    – category slug for browse filtering.
//  Image       – URL of the product image.
//  IsFeatured  – whether the product appears in the featured carousel.
//  Stock       – units currently on hand.
type Product struct {
    ID          uint64          // products.id
    Name        string          // products.name
    Description string          // products.description
    Price       decimal.Decimal // products.price
    Category    string          // products.category
    Image       string          // products.image
    IsFeatured  bool            // products.is_featured
    Stock       int64           // products.stock
    CreatedAt   time.Time       // products.created_at
    UpdatedAt   time.Time       // products.updated_at
}

// PriceKobo returns the unit price converted to the gateway's integer
// subunit representation.
func (p Product) PriceKobo() int64 {
    return p.Price.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
