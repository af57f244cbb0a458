package usecase_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var snapshotNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

type builderDeps struct {
	cartItems *CartItemRepoMock
	discounts *DiscountCodeRepoMock
	users     *UserRepoMock
}

func newBuilder() (*usecase.CartSnapshotBuilder, builderDeps) {
	d := builderDeps{
		cartItems: new(CartItemRepoMock),
		discounts: new(DiscountCodeRepoMock),
		users:     new(UserRepoMock),
	}
	b := usecase.NewCartSnapshotBuilder(d.cartItems, d.discounts, d.users, fixedClock{t: snapshotNow}, zerolog.Nop())
	return b, d
}

func cartLine(id, productID int64, price string, qty int64) model.CartItem {
	return model.CartItem{
		ID:        id,
		UserID:    1,
		ProductID: productID,
		Quantity:  qty,
		UnitPrice: dec(price),
		Product:   model.Product{ID: productID, Title: "item", Price: dec(price)},
	}
}

func userWithRole(discount string) *model.User {
	u := &model.User{ID: 1, Email: "buyer@example.com"}
	if discount != "" {
		u.Roles = []model.Role{{Name: "member", Discount: decimal.NewNullDecimal(dec(discount))}}
	}
	return u
}

// Test: コード10%→ロール20%の順に適用
func TestBuild_AppliesCodeThenRoleDiscount(t *testing.T) {
	b, d := newBuilder()
	ctx := context.Background()

	d.users.On("FindWithRoles", mock.Anything, int64(1)).Return(userWithRole("0.20"), nil)
	d.cartItems.On("ListByUserID", mock.Anything, int64(1)).Return([]model.CartItem{cartLine(10, 100, "25.00", 1)}, nil)
	d.discounts.On("FindByCode", mock.Anything, "SAVE10").
		Return(model.DiscountCode{Code: "SAVE10", Discount: dec("0.10"), MaxUses: int64Ptr(5), UsedCount: 1}, nil)

	snap, err := b.Build(ctx, 1, "  SAVE10 ")
	require.NoError(t, err)

	assert.Equal(t, "25.00", snap.Subtotal.StringFixed(2))
	assert.Equal(t, "SAVE10", snap.DiscountCode)
	assert.Equal(t, "18.00", snap.Total.StringFixed(2))
	assert.Equal(t, int64(1800), snap.TotalMinor())
	assert.Equal(t, []int64{10}, snap.CartItemIDs())
	assert.Equal(t, "buyer@example.com", snap.CustomerEmail)
	assert.Equal(t, snapshotNow, snap.CapturedAt)

	// コード適用のみだと22.50
	assert.Equal(t, "22.50", snap.Subtotal.Mul(decimal.NewFromInt(1).Sub(snap.CodeDiscount)).StringFixed(2))

	d.discounts.AssertNotCalled(t, "IncrementUsedCount", mock.Anything, mock.Anything)
}

// Test: 使えないコードは黙って無視
func TestBuild_IgnoresUnusableCodes(t *testing.T) {
	past := snapshotNow.Add(-time.Minute)

	tests := []struct {
		name string
		code model.DiscountCode
		err  error
	}{
		{name: "expired", code: model.DiscountCode{Code: "OLD", Discount: dec("0.5"), ExpiresAt: &past}},
		{name: "exhausted", code: model.DiscountCode{Code: "OLD", Discount: dec("0.5"), MaxUses: int64Ptr(3), UsedCount: 3}},
		{name: "unknown", err: repo.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, d := newBuilder()

			d.users.On("FindWithRoles", mock.Anything, int64(1)).Return(userWithRole(""), nil)
			d.cartItems.On("ListByUserID", mock.Anything, int64(1)).
				Return([]model.CartItem{cartLine(1, 100, "10.00", 2)}, nil)
			d.discounts.On("FindByCode", mock.Anything, "OLD").Return(tt.code, tt.err)

			snap, err := b.Build(context.Background(), 1, "OLD")
			require.NoError(t, err)

			assert.Equal(t, "", snap.DiscountCode)
			assert.Equal(t, "20.00", snap.Total.StringFixed(2))
			d.discounts.AssertNotCalled(t, "IncrementUsedCount", mock.Anything, mock.Anything)
		})
	}
}

// Test: 空カート
func TestBuild_EmptyCart(t *testing.T) {
	b, d := newBuilder()

	d.users.On("FindWithRoles", mock.Anything, int64(1)).Return(userWithRole(""), nil)
	d.cartItems.On("ListByUserID", mock.Anything, int64(1)).Return([]model.CartItem{}, nil)

	_, err := b.Build(context.Background(), 1, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, usecase.ErrEmptyCart))

	he, ok := usecase.AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Status)
}

func TestBuild_UnknownUser(t *testing.T) {
	b, d := newBuilder()
	d.users.On("FindWithRoles", mock.Anything, int64(9)).Return(nil, nil)

	_, err := b.Build(context.Background(), 9, "")
	he, ok := usecase.AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, he.Status)
	d.cartItems.AssertNotCalled(t, "ListByUserID", mock.Anything, mock.Anything)
}

// Test: 最小単位への丸めは銀行丸め
func TestBuild_BankersRounding(t *testing.T) {
	tests := []struct {
		name      string
		price     string
		code      string
		role      string
		wantTotal string
		wantMinor int64
	}{
		{name: "half down to even", price: "0.25", code: "0.5", wantTotal: "0.12", wantMinor: 12},
		{name: "half up to even", price: "1.35", code: "0.1", wantTotal: "1.22", wantMinor: 122},
		{name: "1.125 to 1.12", price: "1.25", code: "0.1", wantTotal: "1.12", wantMinor: 112},
		{name: "role only", price: "9.99", role: "0.15", wantTotal: "8.49", wantMinor: 849},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, d := newBuilder()

			d.users.On("FindWithRoles", mock.Anything, int64(1)).Return(userWithRole(tt.role), nil)
			d.cartItems.On("ListByUserID", mock.Anything, int64(1)).
				Return([]model.CartItem{cartLine(1, 100, tt.price, 1)}, nil)

			code := ""
			if tt.code != "" {
				code = "PROMO"
				d.discounts.On("FindByCode", mock.Anything, "PROMO").
					Return(model.DiscountCode{Code: "PROMO", Discount: dec(tt.code)}, nil)
			}

			snap, err := b.Build(context.Background(), 1, code)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, snap.Total.StringFixed(2))
			assert.Equal(t, tt.wantMinor, snap.TotalMinor())
		})
	}
}

// Test: カートに保存された価格を使う
func TestBuild_UsesStoredCartPrice(t *testing.T) {
	b, d := newBuilder()

	line := cartLine(1, 100, "5.00", 3)
	line.Product.Price = dec("99.00")

	d.users.On("FindWithRoles", mock.Anything, int64(1)).Return(userWithRole(""), nil)
	d.cartItems.On("ListByUserID", mock.Anything, int64(1)).Return([]model.CartItem{line}, nil)

	snap, err := b.Build(context.Background(), 1, "")
	require.NoError(t, err)
	assert.Equal(t, "15.00", snap.Total.StringFixed(2))
	assert.Equal(t, "5.00", snap.Lines[0].UnitPrice.StringFixed(2))
}
