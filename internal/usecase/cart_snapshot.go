package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var one = decimal.NewFromInt(1)

// 価格確定時点のカート1行
type SnapshotLine struct {
	CartItemID  int64
	ProductID   int64
	Title       string
	Description string
	Quantity    int64
	UnitPrice   decimal.Decimal
}

func (l SnapshotLine) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(l.Quantity))
}

// 割引適用済みのカート。作成後は変更しない。
type CartSnapshot struct {
	UserID        int64
	CustomerEmail string
	Lines         []SnapshotLine
	Subtotal      decimal.Decimal
	// 使えなかったコードは空文字
	DiscountCode string
	CodeDiscount decimal.Decimal
	RoleDiscount decimal.Decimal
	Total        decimal.Decimal
	CapturedAt   time.Time
}

func (s CartSnapshot) TotalMinor() int64 {
	return toMinor(s.Total)
}

func (s CartSnapshot) CartItemIDs() []int64 {
	ids := make([]int64, 0, len(s.Lines))
	for _, l := range s.Lines {
		ids = append(ids, l.CartItemID)
	}
	return ids
}

// プロバイダに渡す単価（割引前、最小単位）
func (s CartSnapshot) UnitMinor(l SnapshotLine) int64 {
	return toMinor(l.UnitPrice)
}

func (s CartSnapshot) SubtotalMinor() int64 {
	var sum int64
	for _, l := range s.Lines {
		sum += s.UnitMinor(l) * l.Quantity
	}
	return sum
}

// 注文全体への値引き額（最小単位）。単価ごとに丸めないのでTotalMinorと必ず一致する
func (s CartSnapshot) DiscountMinor() int64 {
	d := s.SubtotalMinor() - s.TotalMinor()
	if d < 0 {
		return 0
	}
	return d
}

// 2桁に銀行丸めしてから最小単位（セント）にする
func toMinor(d decimal.Decimal) int64 {
	return d.RoundBank(2).Shift(2).IntPart()
}

type CartSnapshotBuilder struct {
	cartItems repo.CartItemRepository
	discounts repo.DiscountCodeRepository
	users     repo.UserRepository
	clock     Clock
	log       zerolog.Logger
}

func NewCartSnapshotBuilder(
	cartItems repo.CartItemRepository,
	discounts repo.DiscountCodeRepository,
	users repo.UserRepository,
	clock Clock,
	logger zerolog.Logger,
) *CartSnapshotBuilder {
	if clock == nil {
		clock = SystemClock()
	}
	return &CartSnapshotBuilder{
		cartItems: cartItems,
		discounts: discounts,
		users:     users,
		clock:     clock,
		log:       logger.With().Str("usecase", "cart_snapshot").Logger(),
	}
}

// Buildは読み取りのみ。割引コードの使用回数はここでは増やさない。
func (b *CartSnapshotBuilder) Build(ctx context.Context, userID int64, discountCode string) (CartSnapshot, error) {
	if userID <= 0 {
		return CartSnapshot{}, errUnauthorized()
	}

	user, err := b.users.FindWithRoles(ctx, userID)
	if err != nil {
		return CartSnapshot{}, errDB()
	}
	if user == nil {
		return CartSnapshot{}, errUnauthorized()
	}

	items, err := b.cartItems.ListByUserID(ctx, userID)
	if err != nil {
		return CartSnapshot{}, errDB()
	}
	if len(items) == 0 {
		return CartSnapshot{}, wrapHTTPError(http.StatusBadRequest, ErrEmptyCart)
	}

	now := b.clock.Now()
	snap := CartSnapshot{
		UserID:        userID,
		CustomerEmail: user.Email,
		Lines:         make([]SnapshotLine, 0, len(items)),
		Subtotal:      decimal.Zero,
		CodeDiscount:  decimal.Zero,
		CapturedAt:    now,
	}

	//カートに保存された価格を使う（現在の商品価格ではない）
	for _, it := range items {
		line := SnapshotLine{
			CartItemID:  it.ID,
			ProductID:   it.ProductID,
			Title:       it.Product.Title,
			Description: it.Product.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
		}
		snap.Lines = append(snap.Lines, line)
		snap.Subtotal = snap.Subtotal.Add(line.LineTotal())
	}

	amount := snap.Subtotal

	code, err := b.applicableCode(ctx, discountCode, now)
	if err != nil {
		return CartSnapshot{}, errDB()
	}
	if code != nil {
		snap.DiscountCode = code.Code
		snap.CodeDiscount = model.ClampFraction(code.Discount)
		amount = amount.Mul(one.Sub(snap.CodeDiscount))
	}

	snap.RoleDiscount = user.MaxRoleDiscount()
	amount = amount.Mul(one.Sub(snap.RoleDiscount))

	snap.Total = amount.RoundBank(2)
	return snap, nil
}

// 見つからない/期限切れ/上限到達のコードは黙って無視する
func (b *CartSnapshotBuilder) applicableCode(ctx context.Context, raw string, now time.Time) (*model.DiscountCode, error) {
	code := strings.TrimSpace(raw)
	if code == "" {
		return nil, nil
	}

	dc, err := b.discounts.FindByCode(ctx, code)
	if errors.Is(err, repo.ErrNotFound) {
		b.log.Debug().Str("discount_code", code).Msg("discount code not found, ignored")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !dc.IsApplicable(now) {
		b.log.Debug().Str("discount_code", code).Msg("discount code not applicable, ignored")
		return nil, nil
	}
	return &dc, nil
}
