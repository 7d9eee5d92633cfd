package handler_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/valelectronic/dera-backend/internal/config"
	"github.com/valelectronic/dera-backend/internal/gateway"
	"github.com/valelectronic/dera-backend/internal/model"
	"github.com/valelectronic/dera-backend/internal/repository"
	"github.com/valelectronic/dera-backend/internal/utils"
)

func testConfig() config.Config {
	return config.Config{
		Env:            "test",
		AccessSecret:   "access-secret",
		RefreshSecret:  "refresh-secret",
		AccessTTLMin:   15,
		RefreshTTLDays: 7,
		BcryptCost:     4,
		PaystackSecret: "sk_test_secret",
		ClientURL:      "https://shop.example",
		GiftThresholdK: 2000000,
	}
}

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

// memUserStore satisfies handler.UserStore and middleware.UserLoader with
// an in-memory map, hashing passwords the same way the MySQL repo does.
type memUserStore struct {
	mu     sync.Mutex
	nextID uint64
	users  map[uint64]model.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{nextID: 1, users: map[uint64]model.User{}}
}

func (m *memUserStore) Create(_ context.Context, name, email, password, role string, cost int) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range m.users {
		if u.Email == email {
			return 0, repository.ErrEmailExists
		}
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	id := m.nextID
	m.nextID++
	m.users[id] = model.User{ID: id, Name: name, Email: email, PasswordHash: hash, Role: role}
	return id, nil
}

func (m *memUserStore) GetByEmail(_ context.Context, email string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (m *memUserStore) GetByID(_ context.Context, id uint64) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (m *memUserStore) delete(id uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
}

// memOrderStore satisfies handler.OrderStore.
type memOrderStore struct {
	mu     sync.Mutex
	nextID uint64
	orders map[string]*model.Order // by payment reference
}

func newMemOrderStore() *memOrderStore {
	return &memOrderStore{nextID: 1, orders: map[string]*model.Order{}}
}

func (m *memOrderStore) Create(_ context.Context, o model.Order) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o.ID = m.nextID
	m.nextID++
	o.OrderStatus = "pending"
	m.orders[o.PaymentReference] = &o
	return o.ID, nil
}

func (m *memOrderStore) GetByReference(_ context.Context, reference string) (model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[reference]
	if !ok {
		return model.Order{}, repository.ErrNotFound
	}
	return *o, nil
}

func (m *memOrderStore) HasDuplicateUnpaid(_ context.Context, userID uint64, email string, productIDs []uint64, total decimal.Decimal) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	want := map[uint64]bool{}
	for _, id := range productIDs {
		want[id] = true
	}
	for _, o := range m.orders {
		if o.UserID != userID || o.Customer.Email != email || o.IsPaid || !o.TotalAmount.Equal(total) {
			continue
		}
		for _, it := range o.Items {
			if want[it.ProductID] {
				return true, nil
			}
		}
	}
	return false, nil
}

func (m *memOrderStore) MarkPaid(_ context.Context, reference string, res model.PaymentResult, txnDate time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[reference]
	if !ok || o.IsPaid {
		return nil
	}
	now := time.Now().UTC()
	o.IsPaid = true
	o.PaidAt = &now
	o.PaymentResult = res
	o.TransactionDate = &txnDate
	o.OrderStatus = "processing"
	return nil
}

// memCouponStore satisfies handler.CouponStore.
type memCouponStore struct {
	mu      sync.Mutex
	nextID  uint64
	coupons []*model.Coupon
}

func newMemCouponStore() *memCouponStore { return &memCouponStore{nextID: 1} }

func (m *memCouponStore) Create(_ context.Context, c model.Coupon) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, cp := range m.coupons {
		if cp.UserID == c.UserID {
			cp.IsActive = false
		}
	}
	c.ID = m.nextID
	m.nextID++
	c.IsActive = true
	m.coupons = append(m.coupons, &c)
	return nil
}

func (m *memCouponStore) GetActiveForUser(_ context.Context, userID uint64) (model.Coupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, cp := range m.coupons {
		if cp.UserID == userID && cp.IsActive {
			return *cp, nil
		}
	}
	return model.Coupon{}, repository.ErrNotFound
}

func (m *memCouponStore) GetActiveByCodeAndUser(_ context.Context, code string, userID uint64) (model.Coupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, cp := range m.coupons {
		if cp.Code == code && cp.UserID == userID && cp.IsActive {
			return *cp, nil
		}
	}
	return model.Coupon{}, repository.ErrNotFound
}

func (m *memCouponStore) Deactivate(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, cp := range m.coupons {
		if cp.ID == id {
			cp.IsActive = false
		}
	}
	return nil
}

// fakeGateway satisfies handler.Gateway with pluggable behavior.
type fakeGateway struct {
	initFn   func(ctx context.Context, req gateway.InitializeRequest) (string, error)
	verifyFn func(ctx context.Context, reference string) (gateway.VerifyData, error)
}

func (f *fakeGateway) Initialize(ctx context.Context, req gateway.InitializeRequest) (string, error) {
	return f.initFn(ctx, req)
}

func (f *fakeGateway) Verify(ctx context.Context, reference string) (gateway.VerifyData, error) {
	return f.verifyFn(ctx, reference)
}

// jsonCtx builds an echo context carrying a JSON body and returns it with
// the response recorder.
func jsonCtx(e *echo.Echo, method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}
