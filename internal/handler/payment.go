package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/valelectronic/dera-backend/internal/config"
	"github.com/valelectronic/dera-backend/internal/gateway"
	"github.com/valelectronic/dera-backend/internal/middleware"
	"github.com/valelectronic/dera-backend/internal/model"
	"github.com/valelectronic/dera-backend/internal/queue"
	"github.com/valelectronic/dera-backend/internal/repository"
)

// OrderStore is the slice of the order repository the payment flows need.
type OrderStore interface {
	Create(ctx context.Context, o model.Order) (uint64, error)
	GetByReference(ctx context.Context, reference string) (model.Order, error)
	HasDuplicateUnpaid(ctx context.Context, userID uint64, email string, productIDs []uint64, total decimal.Decimal) (bool, error)
	MarkPaid(ctx context.Context, reference string, res model.PaymentResult, txnDate time.Time) error
}

// Gateway is the outbound surface of the payment provider the handler
// uses; the Paystack client satisfies it and tests substitute a fake.
type Gateway interface {
	Initialize(ctx context.Context, req gateway.InitializeRequest) (string, error)
	Verify(ctx context.Context, reference string) (gateway.VerifyData, error)
}

// PublishFunc delivers an order-paid event to the message broker.  A nil
// publisher disables eventing; a failing one is logged and ignored so a
// broker outage never blocks webhook processing.
type PublishFunc func(ctx context.Context, ev queue.OrderPaidEvent) error

// PaymentHandler owns checkout-session creation and the asynchronous
// webhook reconciliation that marks orders paid.
type PaymentHandler struct {
	Cfg     config.Config
	Orders  OrderStore
	Coupons CouponStore
	Gateway Gateway
	Publish PublishFunc
}

func NewPaymentHandler(cfg config.Config, orders OrderStore, coupons CouponStore, gw Gateway, publish PublishFunc) *PaymentHandler {
	return &PaymentHandler{Cfg: cfg, Orders: orders, Coupons: coupons, Gateway: gw, Publish: publish}
}

// ----- DTOs -----

type checkoutProduct struct {
	ID       uint64 `json:"id"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	Quantity int64  `json:"quantity"`
	Image    string `json:"image"`
}

type customerDetails struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

type checkoutReq struct {
	Products        []checkoutProduct `json:"products"`
	CouponCode      string            `json:"couponCode"`
	CustomerDetails customerDetails   `json:"customerDetails"`
}

// webhookEvent is the gateway's notification body.  The signature covers
// the raw bytes, so the struct is only decoded after verification.
type webhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
		Email     string `json:"email"`
		Amount    int64  `json:"amount"`
		Status    string `json:"status"`
		ID        int64  `json:"id"`
		CreatedAt string `json:"createdAt"`
	} `json:"data"`
}

type verifyReq struct {
	Reference string `json:"reference"`
}

// CreateCheckoutSession computes the order total, guards against duplicate
// submissions, initializes a gateway transaction, and only then persists
// the order.  That ordering means a transient gateway failure leaves no
// orphaned unpaid order behind; the reverse orphan (gateway transaction
// without a local order) is tolerated because webhook reconciliation only
// ever mutates orders that exist.
func (h *PaymentHandler) CreateCheckoutSession(c echo.Context) error {
	u, _ := middleware.CurrentUser(c)
	var req checkoutReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid body"})
	}
	cd := req.CustomerDetails
	if cd.FullName == "" || cd.Email == "" || cd.Phone == "" || cd.Address == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Missing customer details"})
	}
	if len(req.Products) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid or empty products array"})
	}

	// Total in kobo: round each unit price to the subunit, then multiply
	// by quantity per line.
	var (
		totalKobo  int64
		items      []model.OrderItem
		productIDs []uint64
	)
	for _, p := range req.Products {
		price, err := decimal.NewFromString(p.Price)
		if err != nil || price.IsNegative() || p.Quantity < 1 || p.ID == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid or empty products array"})
		}
		unitKobo := price.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
		totalKobo += unitKobo * p.Quantity
		items = append(items, model.OrderItem{ProductID: p.ID, Quantity: p.Quantity, Price: price})
		productIDs = append(productIDs, p.ID)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	if req.CouponCode != "" {
		cp, err := h.Coupons.GetActiveByCodeAndUser(ctx, req.CouponCode, u.ID)
		switch {
		case err == nil:
			discount := totalKobo * int64(cp.DiscountPercentage) / 100
			totalKobo -= discount
		case errors.Is(err, repository.ErrNotFound):
			// Unknown code: checkout proceeds at full price.
		default:
			log.Printf("checkout: coupon lookup failed: %v", err)
		}
	}

	totalAmount := decimal.New(totalKobo, -2)
	dup, err := h.Orders.HasDuplicateUnpaid(ctx, u.ID, cd.Email, productIDs, totalAmount)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error"})
	}
	if dup {
		return c.JSON(http.StatusConflict, echo.Map{
			"message": "A similar unpaid order already exists. Please complete your payment.",
		})
	}

	reference := fmt.Sprintf("order_%d", time.Now().UnixMilli())
	paymentLink, err := h.Gateway.Initialize(ctx, gateway.InitializeRequest{
		Email:       u.Email,
		Amount:      totalKobo,
		Reference:   reference,
		CallbackURL: h.Cfg.ClientURL + "/purchase-success",
		Metadata: map[string]any{
			"userId":     u.ID,
			"fullName":   cd.FullName,
			"phone":      cd.Phone,
			"address":    cd.Address,
			"couponCode": req.CouponCode,
		},
	})
	if err != nil {
		log.Printf("checkout: gateway initialize failed: %v", err)
		return c.JSON(http.StatusBadGateway, echo.Map{"message": "Failed to create payment session"})
	}

	order := model.Order{
		UserID:           u.ID,
		Items:            items,
		TotalAmount:      totalAmount,
		PaymentReference: reference,
		Customer: model.CustomerDetails{
			FullName: cd.FullName,
			Phone:    cd.Phone,
			Address:  cd.Address,
			Email:    cd.Email,
		},
	}
	if _, err := h.Orders.Create(ctx, order); err != nil {
		// The gateway transaction is now orphaned; its webhook will find
		// no order and be logged and dropped.
		log.Printf("checkout: order save failed after gateway init (reference=%s): %v", reference, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Error processing checkout"})
	}

	if totalKobo >= h.Cfg.GiftThresholdK {
		h.createGiftCoupon(ctx, u.ID)
	}
	return c.JSON(http.StatusOK, echo.Map{"paymentLink": paymentLink})
}

// Webhook authenticates and applies an asynchronous gateway notification.
// The HMAC check runs over the raw body before any decoding; a forged or
// tampered payload is rejected with 401 and mutates nothing.  Redelivery
// of a charge-success event for an already-paid order is a no-op.
func (h *PaymentHandler) Webhook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid body"})
	}
	sig := c.Request().Header.Get("x-paystack-signature")
	if !gateway.ValidSignature(body, sig, h.Cfg.PaystackSecret) {
		log.Printf("webhook: signature mismatch")
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Invalid signature"})
	}

	var ev webhookEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid body"})
	}
	if ev.Event != "charge.success" {
		// Other event types are acknowledged without side effects.
		return c.JSON(http.StatusOK, echo.Map{"message": "Event ignored"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	order, err := h.Orders.GetByReference(ctx, ev.Data.Reference)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Do not fabricate an order for an unmatched notification.
			log.Printf("webhook: no order for payment reference %s", ev.Data.Reference)
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Order not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Internal server error"})
	}
	if order.IsPaid {
		return c.JSON(http.StatusOK, echo.Map{"message": "Order updated successfully"})
	}

	txnDate := time.Now().UTC()
	if t, err := time.Parse(time.RFC3339, ev.Data.CreatedAt); err == nil {
		txnDate = t
	}
	result := model.PaymentResult{
		Status:        ev.Data.Status,
		Email:         ev.Data.Email,
		Amount:        decimal.New(ev.Data.Amount, -2),
		TransactionID: fmt.Sprintf("%d", ev.Data.ID),
	}
	if err := h.Orders.MarkPaid(ctx, ev.Data.Reference, result, txnDate); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Internal server error"})
	}
	log.Printf("webhook: order %d paid (reference=%s)", order.ID, ev.Data.Reference)

	if h.Publish != nil {
		paidEv := queue.OrderPaidEvent{
			OrderID:          order.ID,
			UserID:           order.UserID,
			PaymentReference: ev.Data.Reference,
			Email:            ev.Data.Email,
			AmountKobo:       ev.Data.Amount,
			TransactionID:    result.TransactionID,
			PaidAt:           time.Now().UTC().Format(time.RFC3339),
		}
		if err := h.Publish(ctx, paidEv); err != nil {
			log.Printf("webhook: publish order.paid failed: %v", err)
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Order updated successfully"})
}

// VerifyPayment checks a reference directly against the gateway, a
// fallback for clients that missed the redirect.
func (h *PaymentHandler) VerifyPayment(c echo.Context) error {
	var req verifyReq
	if err := c.Bind(&req); err != nil || req.Reference == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"status": "failed", "message": "Missing payment reference"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	data, err := h.Gateway.Verify(ctx, req.Reference)
	if err != nil {
		log.Printf("verify: gateway call failed: %v", err)
		return c.JSON(http.StatusBadGateway, echo.Map{"status": "error", "message": "Verification failed"})
	}
	if data.Status != "success" {
		return c.JSON(http.StatusBadRequest, echo.Map{"status": "failed", "message": "Payment was not successful"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "success", "data": data})
}

// createGiftCoupon rewards a large order with a fresh 10% coupon.  Best
// effort: failures are logged, not surfaced to the checkout response.
func (h *PaymentHandler) createGiftCoupon(ctx context.Context, userID uint64) {
	code := "GIFT" + strings.ToUpper(uuid.NewString()[:8])
	cp := model.Coupon{
		Code:               code,
		UserID:             userID,
		DiscountPercentage: 10,
		ExpirationDate:     time.Now().UTC().AddDate(0, 0, 30),
	}
	if err := h.Coupons.Create(ctx, cp); err != nil {
		log.Printf("checkout: gift coupon create failed: %v", err)
	}
}
