package reconcile

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/valelectronic/dera-backend/internal/gateway"
	"github.com/valelectronic/dera-backend/internal/model"
	"github.com/valelectronic/dera-backend/internal/queue"
	"github.com/valelectronic/dera-backend/internal/repository"
)

type memOrders struct {
	orders    map[string]*model.Order
	lastAge   time.Duration
	lastLimit int
}

func newMemOrders(refs ...string) *memOrders {
	m := &memOrders{orders: map[string]*model.Order{}}
	for i, ref := range refs {
		m.orders[ref] = &model.Order{
			ID:               uint64(i + 1),
			UserID:           7,
			TotalAmount:      decimal.RequireFromString("309.99"),
			PaymentReference: ref,
			Customer:         model.CustomerDetails{Email: "buyer@x.com"},
		}
	}
	return m
}

func (m *memOrders) ListUnpaidReferences(_ context.Context, age time.Duration, limit int) ([]string, error) {
	m.lastAge = age
	m.lastLimit = limit
	out := []string{}
	for ref, o := range m.orders {
		if !o.IsPaid && len(out) < limit {
			out = append(out, ref)
		}
	}
	return out, nil
}

func (m *memOrders) GetByReference(_ context.Context, reference string) (model.Order, error) {
	o, ok := m.orders[reference]
	if !ok {
		return model.Order{}, repository.ErrNotFound
	}
	return *o, nil
}

func (m *memOrders) MarkPaid(_ context.Context, reference string, res model.PaymentResult, txnDate time.Time) error {
	o, ok := m.orders[reference]
	if !ok || o.IsPaid {
		return nil
	}
	o.IsPaid = true
	o.PaymentResult = res
	o.TransactionDate = &txnDate
	return nil
}

type verifyFunc func(ctx context.Context, reference string) (gateway.VerifyData, error)

func (f verifyFunc) Verify(ctx context.Context, reference string) (gateway.VerifyData, error) {
	return f(ctx, reference)
}

func TestSweepMarksSuccessfulOrders(t *testing.T) {
	orders := newMemOrders("order_1", "order_2")
	verify := verifyFunc(func(_ context.Context, ref string) (gateway.VerifyData, error) {
		if ref == "order_1" {
			return gateway.VerifyData{Status: "success", Reference: ref, Amount: 30999, ID: 4242}, nil
		}
		return gateway.VerifyData{Status: "abandoned", Reference: ref}, nil
	})

	r := &Reconciler{Orders: orders, Gateway: verify}
	n, err := r.Sweep(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, n)

	paid, err := orders.GetByReference(context.Background(), "order_1")
	require.NoError(t, err)
	require.True(t, paid.IsPaid)
	require.Equal(t, "buyer@x.com", paid.PaymentResult.Email)
	require.Equal(t, "4242", paid.PaymentResult.TransactionID)
	require.True(t, paid.PaymentResult.Amount.Equal(decimal.RequireFromString("309.99")))

	pending, err := orders.GetByReference(context.Background(), "order_2")
	require.NoError(t, err)
	require.False(t, pending.IsPaid)
}

func TestSweepAppliesDefaultTuning(t *testing.T) {
	orders := newMemOrders("order_1")
	verify := verifyFunc(func(_ context.Context, ref string) (gateway.VerifyData, error) {
		return gateway.VerifyData{Status: "success", Reference: ref, Amount: 30999, ID: 1}, nil
	})

	// A zero-value Reconciler must not ask the store for a zero-row batch.
	r := &Reconciler{Orders: orders, Gateway: verify}
	n, err := r.Sweep(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, 15*time.Minute, orders.lastAge)
	require.Equal(t, 50, orders.lastLimit)

	r = &Reconciler{Orders: orders, Gateway: verify, MinAge: time.Hour, Limit: 5}
	_, err = r.Sweep(context.Background())
	require.NoError(t, err)
	require.Equal(t, time.Hour, orders.lastAge)
	require.Equal(t, 5, orders.lastLimit)
}

func TestSweepSkipsVerifyFailures(t *testing.T) {
	orders := newMemOrders("order_1", "order_2")
	verify := verifyFunc(func(_ context.Context, ref string) (gateway.VerifyData, error) {
		if ref == "order_1" {
			return gateway.VerifyData{}, fmt.Errorf("paystack verify: status 502")
		}
		return gateway.VerifyData{Status: "success", Reference: ref, Amount: 30999, ID: 1}, nil
	})

	// One failing reference must not stop the rest of the batch.
	r := &Reconciler{Orders: orders, Gateway: verify}
	n, err := r.Sweep(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestSweepIdempotent(t *testing.T) {
	orders := newMemOrders("order_1")
	verify := verifyFunc(func(_ context.Context, ref string) (gateway.VerifyData, error) {
		return gateway.VerifyData{Status: "success", Reference: ref, Amount: 30999, ID: 1}, nil
	})

	r := &Reconciler{Orders: orders, Gateway: verify}
	n, err := r.Sweep(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, n)

	// A paid order no longer appears in the unpaid listing.
	n, err = r.Sweep(context.Background())
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestSweepPublishesEvent(t *testing.T) {
	orders := newMemOrders("order_1")
	verify := verifyFunc(func(_ context.Context, ref string) (gateway.VerifyData, error) {
		return gateway.VerifyData{Status: "success", Reference: ref, Amount: 30999, ID: 9}, nil
	})

	var events []queue.OrderPaidEvent
	r := &Reconciler{
		Orders:  orders,
		Gateway: verify,
		Publish: func(_ context.Context, ev queue.OrderPaidEvent) error {
			events = append(events, ev)
			return nil
		},
	}
	_, err := r.Sweep(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "order_1", events[0].PaymentReference)
	require.Equal(t, int64(30999), events[0].AmountKobo)
}

func TestSweepPublishFailureStillMarksPaid(t *testing.T) {
	orders := newMemOrders("order_1")
	verify := verifyFunc(func(_ context.Context, ref string) (gateway.VerifyData, error) {
		return gateway.VerifyData{Status: "success", Reference: ref, Amount: 30999, ID: 9}, nil
	})

	r := &Reconciler{
		Orders:  orders,
		Gateway: verify,
		Publish: func(context.Context, queue.OrderPaidEvent) error {
			return fmt.Errorf("amqp: channel closed")
		},
	}
	n, err := r.Sweep(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, n)
}
