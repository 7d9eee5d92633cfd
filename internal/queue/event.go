// Package queue defines message payloads exchanged over the message broker.
package queue

// OrderPaidEvent is published when a verified webhook marks an order paid.
// It contains enough information for downstream consumers to log, notify,
// or trigger fulfilment without querying the primary database.
type OrderPaidEvent struct {
    OrderID          uint64 `json:"order_id"`
    UserID           uint64 `json:"user_id"`
    PaymentReference string `json:"payment_reference"`
    Email            string `json:"email"`
    AmountKobo       int64  `json:"amount_kobo"`
    TransactionID    string `json:"transaction_id"`
    PaidAt           string `json:"paid_at"`
}
