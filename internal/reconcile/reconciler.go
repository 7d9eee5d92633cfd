// Package reconcile sweeps unpaid orders against the payment gateway.
// Webhook delivery is best effort on the gateway's side; a dropped
// notification would otherwise leave a paid-for order pending forever.
package reconcile

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/valelectronic/dera-backend/internal/gateway"
	"github.com/valelectronic/dera-backend/internal/model"
	"github.com/valelectronic/dera-backend/internal/queue"
)

// OrderStore is the slice of the order repository the sweep needs.
type OrderStore interface {
	ListUnpaidReferences(ctx context.Context, age time.Duration, limit int) ([]string, error)
	GetByReference(ctx context.Context, reference string) (model.Order, error)
	MarkPaid(ctx context.Context, reference string, res model.PaymentResult, txnDate time.Time) error
}

// Verifier queries the gateway's record of a transaction.
type Verifier interface {
	Verify(ctx context.Context, reference string) (gateway.VerifyData, error)
}

// Reconciler periodically verifies stale unpaid orders directly with the
// gateway and marks the ones the gateway reports as successful. Zero-value
// tuning fields fall back to defaults.
type Reconciler struct {
	Orders   OrderStore
	Gateway  Verifier
	Publish  func(ctx context.Context, ev queue.OrderPaidEvent) error
	Interval time.Duration // time between sweeps
	MinAge   time.Duration // only orders older than this are checked
	Limit    int           // max orders per sweep
}

func (r *Reconciler) interval() time.Duration {
	if r.Interval <= 0 {
		return 10 * time.Minute
	}
	return r.Interval
}

func (r *Reconciler) minAge() time.Duration {
	if r.MinAge <= 0 {
		return 15 * time.Minute
	}
	return r.MinAge
}

func (r *Reconciler) limit() int {
	if r.Limit <= 0 {
		return 50
	}
	return r.Limit
}

// Run sweeps on a ticker until the context is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := r.Sweep(ctx)
			if err != nil {
				log.Printf("reconcile: sweep failed: %v", err)
			} else if n > 0 {
				log.Printf("reconcile: marked %d order(s) paid", n)
			}
		}
	}
}

// Sweep checks one batch of stale unpaid orders and returns how many were
// marked paid. Per-order verification failures are logged and skipped so
// one bad reference never blocks the rest of the batch.
func (r *Reconciler) Sweep(ctx context.Context) (int, error) {
	refs, err := r.Orders.ListUnpaidReferences(ctx, r.minAge(), r.limit())
	if err != nil {
		return 0, err
	}

	marked := 0
	for _, ref := range refs {
		data, err := r.Gateway.Verify(ctx, ref)
		if err != nil {
			log.Printf("reconcile: verify %s failed: %v", ref, err)
			continue
		}
		if data.Status != "success" {
			continue
		}
		order, err := r.Orders.GetByReference(ctx, ref)
		if err != nil {
			log.Printf("reconcile: load %s failed: %v", ref, err)
			continue
		}
		if order.IsPaid {
			continue
		}

		res := model.PaymentResult{
			Status:        data.Status,
			Email:         order.Customer.Email,
			Amount:        decimal.New(data.Amount, -2),
			TransactionID: fmt.Sprintf("%d", data.ID),
		}
		now := time.Now().UTC()
		if err := r.Orders.MarkPaid(ctx, ref, res, now); err != nil {
			log.Printf("reconcile: mark %s paid failed: %v", ref, err)
			continue
		}
		marked++
		log.Printf("reconcile: order %d paid (reference=%s, recovered without webhook)", order.ID, ref)

		if r.Publish != nil {
			ev := queue.OrderPaidEvent{
				OrderID:          order.ID,
				UserID:           order.UserID,
				PaymentReference: ref,
				Email:            order.Customer.Email,
				AmountKobo:       data.Amount,
				TransactionID:    res.TransactionID,
				PaidAt:           now.Format(time.RFC3339),
			}
			if err := r.Publish(ctx, ev); err != nil {
				log.Printf("reconcile: publish order.paid failed: %v", err)
			}
		}
	}
	return marked, nil
}
