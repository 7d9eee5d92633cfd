package model

import (
    "time"

    "github.com/shopspring/decimal"
)

// Order models a row in the `orders` table together with its line items.
// An order is created at checkout-session creation with IsPaid=false and
// is only ever flipped to paid by a verified gateway webhook carrying the
// matching payment reference.  Orders are never deleted by this service.
//
// The PaymentReference is unique and immutable after creation; it is the
// correlation key between the local record and the asynchronous gateway
// notification.
type Order struct {
    ID              uint64          // orders.id
    UserID          uint64          // orders.user_id
    Items           []OrderItem     // rows of order_items
    TotalAmount     decimal.Decimal // orders.total_amount (major unit)
    IsPaid          bool            // orders.is_paid
    PaidAt          *time.Time      // orders.paid_at (nullable)
    PaymentReference string         // orders.payment_reference (unique)
    PaymentResult   PaymentResult   // embedded payment_* columns
    TransactionDate *time.Time      // orders.transaction_date (nullable)
    OrderStatus     string          // orders.order_status (pending|processing|completed|shipped|cancelled)
    Customer        CustomerDetails // embedded customer_* columns
    CreatedAt       time.Time       // orders.created_at
    UpdatedAt       time.Time       // orders.updated_at
}

// OrderItem is one line of an order: a product reference with the quantity
// and the unit price captured at checkout time.
type OrderItem struct {
    ProductID uint64          // order_items.product_id
    Quantity  int64           // order_items.quantity
    Price     decimal.Decimal // order_items.price (unit price, major unit)
}

// PaymentResult records the outcome reported by the gateway webhook.
type PaymentResult struct {
    Status        string          // payment_status (success|failure|pending)
    Email         string          // payment_email
    Amount        decimal.Decimal // payment_amount (major unit)
    TransactionID string          // payment_transaction_id
}

// CustomerDetails carries the shipping contact captured at checkout.
type CustomerDetails struct {
    FullName string // customer_full_name
    Phone    string // customer_phone
    Address  string // customer_address
    Email    string // customer_email
}
