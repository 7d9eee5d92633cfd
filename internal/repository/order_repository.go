package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/valelectronic/dera-backend/internal/model"
)

type OrderRepo struct{ DB *sql.DB }

func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{DB: db} }

// Create persists an order and its line items inside one transaction and
// returns the order ID. Callers invoke this only after the gateway
// initialize call has succeeded, so a failure here can orphan a gateway
// transaction but never the reverse.
func (r *OrderRepo) Create(ctx context.Context, o model.Order) (uint64, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO orders (user_id, total_amount, is_paid, payment_reference, order_status, "+
			"customer_full_name, customer_phone, customer_address, customer_email) "+
			"VALUES (?,?,0,?,'pending',?,?,?,?)",
		o.UserID, o.TotalAmount.StringFixed(2), o.PaymentReference,
		o.Customer.FullName, o.Customer.Phone, o.Customer.Address, o.Customer.Email)
	if err != nil {
		return 0, err
	}
	orderID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	for _, it := range o.Items {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO order_items (order_id, product_id, quantity, price) VALUES (?,?,?,?)",
			orderID, it.ProductID, it.Quantity, it.Price.StringFixed(2)); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return uint64(orderID), nil
}

// GetByReference loads an order (with items) by its gateway payment
// reference, the correlation key webhooks carry.
func (r *OrderRepo) GetByReference(ctx context.Context, reference string) (model.Order, error) {
	var (
		o        model.Order
		total    string
		payAmt   sql.NullString
		payStat  sql.NullString
		payMail  sql.NullString
		payTxnID sql.NullString
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,user_id,total_amount,is_paid,paid_at,payment_reference,payment_status,payment_email,"+
			"payment_amount,payment_transaction_id,transaction_date,order_status,"+
			"customer_full_name,customer_phone,customer_address,customer_email,created_at,updated_at "+
			"FROM orders WHERE payment_reference=? LIMIT 1",
		reference).Scan(&o.ID, &o.UserID, &total, &o.IsPaid, &o.PaidAt, &o.PaymentReference,
		&payStat, &payMail, &payAmt, &payTxnID, &o.TransactionDate, &o.OrderStatus,
		&o.Customer.FullName, &o.Customer.Phone, &o.Customer.Address, &o.Customer.Email,
		&o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Order{}, ErrNotFound
	}
	if err != nil {
		return model.Order{}, err
	}
	if o.TotalAmount, err = decimal.NewFromString(total); err != nil {
		return model.Order{}, err
	}
	o.PaymentResult.Status = payStat.String
	o.PaymentResult.Email = payMail.String
	o.PaymentResult.TransactionID = payTxnID.String
	if payAmt.Valid {
		if o.PaymentResult.Amount, err = decimal.NewFromString(payAmt.String); err != nil {
			return model.Order{}, err
		}
	}
	if o.Items, err = r.itemsFor(ctx, o.ID); err != nil {
		return model.Order{}, err
	}
	return o, nil
}

// HasDuplicateUnpaid reports whether an unpaid order already exists for
// the same user and customer email, with the same total and at least one
// of the submitted products. Checkout uses this to reject double
// submissions before a payment completes.
func (r *OrderRepo) HasDuplicateUnpaid(ctx context.Context, userID uint64, email string, productIDs []uint64, total decimal.Decimal) (bool, error) {
	if len(productIDs) == 0 {
		return false, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(productIDs)), ",")
	args := []any{userID, email, total.StringFixed(2)}
	for _, id := range productIDs {
		args = append(args, id)
	}
	var exists int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM orders o WHERE o.user_id=? AND o.customer_email=? AND o.is_paid=0 AND o.total_amount=? "+
			"AND EXISTS (SELECT 1 FROM order_items oi WHERE oi.order_id=o.id AND oi.product_id IN ("+placeholders+")) "+
			"LIMIT 1",
		args...).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// ListUnpaidReferences returns the payment references of unpaid orders
// created more than age ago, oldest first, capped at limit. The
// reconciliation sweep uses this to catch orders whose webhook never
// arrived.
func (r *OrderRepo) ListUnpaidReferences(ctx context.Context, age time.Duration, limit int) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT payment_reference FROM orders WHERE is_paid=0 AND created_at < (NOW() - INTERVAL ? SECOND) "+
			"ORDER BY created_at LIMIT ?",
		int64(age/time.Second), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return nil, err
		}
		out = append(out, ref)
	}
	return out, rows.Err()
}

// MarkPaid applies a verified charge-success notification to the order
// holding the given reference. The `is_paid = 0` guard makes redelivery a
// no-op: an already-paid order is left untouched and no error is raised.
func (r *OrderRepo) MarkPaid(ctx context.Context, reference string, res model.PaymentResult, txnDate time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE orders SET is_paid=1, paid_at=NOW(), payment_status=?, payment_email=?, payment_amount=?, "+
			"payment_transaction_id=?, transaction_date=?, order_status='processing' "+
			"WHERE payment_reference=? AND is_paid=0",
		res.Status, res.Email, res.Amount.StringFixed(2), res.TransactionID, txnDate, reference)
	return err
}

func (r *OrderRepo) itemsFor(ctx context.Context, orderID uint64) ([]model.OrderItem, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT product_id, quantity, price FROM order_items WHERE order_id=?", orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.OrderItem{}
	for rows.Next() {
		var (
			it    model.OrderItem
			price string
		)
		if err := rows.Scan(&it.ProductID, &it.Quantity, &price); err != nil {
			return nil, err
		}
		if it.Price, err = decimal.NewFromString(price); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
