package usecase_test

import (
	"context"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// =====================
// TxManager / TxRepos mocks
// =====================

// WithinTxの中で渡すreposを固定してunitテストを回す
type TxManagerMock struct {
	mock.Mock
	Repos repo.TxRepos
}

func (m *TxManagerMock) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	// 呼ばれた事実だけ記録（ctxの具体値は問わない）
	m.Called(ctx)
	return fn(m.Repos)
}

type TxReposMock struct {
	pending    repo.PendingCheckoutRepository
	orders     repo.OrderRepository
	orderItems repo.OrderItemRepository
	cartItems  repo.CartItemRepository
	discounts  repo.DiscountCodeRepository
}

func (r *TxReposMock) PendingCheckouts() repo.PendingCheckoutRepository { return r.pending }
func (r *TxReposMock) Orders() repo.OrderRepository                     { return r.orders }
func (r *TxReposMock) OrderItems() repo.OrderItemRepository             { return r.orderItems }
func (r *TxReposMock) CartItems() repo.CartItemRepository               { return r.cartItems }
func (r *TxReposMock) DiscountCodes() repo.DiscountCodeRepository       { return r.discounts }

// =====================
// Repository mocks
// =====================

type CartItemRepoMock struct{ mock.Mock }

func (m *CartItemRepoMock) ListByUserID(ctx context.Context, userID int64) ([]model.CartItem, error) {
	args := m.Called(ctx, userID)
	items, _ := args.Get(0).([]model.CartItem)
	return items, args.Error(1)
}

func (m *CartItemRepoMock) UpsertByUserAndProduct(ctx context.Context, userID int64, productID int64, addQty int64, unitPrice decimal.Decimal) error {
	args := m.Called(ctx, userID, productID, addQty, unitPrice)
	return args.Error(0)
}

func (m *CartItemRepoMock) UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) error {
	args := m.Called(ctx, cartItemID, qty)
	return args.Error(0)
}

func (m *CartItemRepoMock) DeleteByID(ctx context.Context, cartItemID int64) error {
	args := m.Called(ctx, cartItemID)
	return args.Error(0)
}

func (m *CartItemRepoMock) FindByID(ctx context.Context, cartItemID int64) (model.CartItem, error) {
	args := m.Called(ctx, cartItemID)
	it, _ := args.Get(0).(model.CartItem)
	return it, args.Error(1)
}

func (m *CartItemRepoMock) ConsumeForUser(ctx context.Context, userID int64, purchased []repo.PurchasedLine) error {
	args := m.Called(ctx, userID, purchased)
	return args.Error(0)
}

type DiscountCodeRepoMock struct{ mock.Mock }

func (m *DiscountCodeRepoMock) FindByCode(ctx context.Context, code string) (model.DiscountCode, error) {
	args := m.Called(ctx, code)
	dc, _ := args.Get(0).(model.DiscountCode)
	return dc, args.Error(1)
}

func (m *DiscountCodeRepoMock) IncrementUsedCount(ctx context.Context, code string) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}

type UserRepoMock struct{ mock.Mock }

func (m *UserRepoMock) FindByID(ctx context.Context, userID int64) (*model.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) FindWithRoles(ctx context.Context, userID int64) (*model.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

type ProductRepoMock struct{ mock.Mock }

func (m *ProductRepoMock) FindActiveByID(ctx context.Context, id int64) (model.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

type PendingCheckoutRepoMock struct{ mock.Mock }

func (m *PendingCheckoutRepoMock) Create(ctx context.Context, pc model.PendingCheckout) error {
	args := m.Called(ctx, pc)
	return args.Error(0)
}

func (m *PendingCheckoutRepoMock) FindForUpdate(ctx context.Context, sessionID string) (model.PendingCheckout, error) {
	args := m.Called(ctx, sessionID)
	pc, _ := args.Get(0).(model.PendingCheckout)
	return pc, args.Error(1)
}

func (m *PendingCheckoutRepoMock) Delete(ctx context.Context, sessionID string) (bool, error) {
	args := m.Called(ctx, sessionID)
	return args.Bool(0), args.Error(1)
}

type OrderRepoMock struct{ mock.Mock }

func (m *OrderRepoMock) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	args := m.Called(ctx, userID, page, limit)
	orders, _ := args.Get(0).([]model.Order)
	total, _ := args.Get(1).(int64)
	return orders, total, args.Error(2)
}

func (m *OrderRepoMock) Create(ctx context.Context, order model.Order) (int64, error) {
	args := m.Called(ctx, order)
	id, _ := args.Get(0).(int64)
	return id, args.Error(1)
}

type OrderItemRepoMock struct{ mock.Mock }

func (m *OrderItemRepoMock) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	args := m.Called(ctx, orderID, items)
	return args.Error(0)
}

func (m *OrderItemRepoMock) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	args := m.Called(ctx, orderID)
	items, _ := args.Get(0).([]model.OrderItem)
	return items, args.Error(1)
}

func (m *OrderItemRepoMock) ListByOrderIDs(ctx context.Context, orderIDs []int64) (map[int64][]model.OrderItem, error) {
	args := m.Called(ctx, orderIDs)
	items, _ := args.Get(0).(map[int64][]model.OrderItem)
	return items, args.Error(1)
}

type AnomalyRepoMock struct{ mock.Mock }

func (m *AnomalyRepoMock) Create(ctx context.Context, a model.CheckoutAnomaly) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *AnomalyRepoMock) List(ctx context.Context, f repo.AnomalyFilter) ([]model.CheckoutAnomaly, error) {
	args := m.Called(ctx, f)
	list, _ := args.Get(0).([]model.CheckoutAnomaly)
	return list, args.Error(1)
}

// =====================
// 外部サービス mocks
// =====================

type ProviderMock struct{ mock.Mock }

func (m *ProviderMock) CreateSession(ctx context.Context, req usecase.SessionRequest) (usecase.ProviderSession, error) {
	args := m.Called(ctx, req)
	s, _ := args.Get(0).(usecase.ProviderSession)
	return s, args.Error(1)
}

func (m *ProviderMock) ExpireSession(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

type VerifierMock struct{ mock.Mock }

func (m *VerifierMock) Verify(payload []byte, signature string) (usecase.PaymentEvent, error) {
	args := m.Called(payload, signature)
	ev, _ := args.Get(0).(usecase.PaymentEvent)
	return ev, args.Error(1)
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type fixedIDs struct{ id string }

func (g fixedIDs) NewID() string { return g.id }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func int64Ptr(v int64) *int64 { return &v }
