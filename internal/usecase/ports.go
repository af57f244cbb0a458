package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// テストで時刻を固定するため
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func SystemClock() Clock { return systemClock{} }

// チェックアウト参照番号（プロバイダの冪等キーにも使う）
type IDGenerator interface {
	NewID() string
}

type uuidGenerator struct{}

func (uuidGenerator) NewID() string { return uuid.NewString() }

func UUIDGenerator() IDGenerator { return uuidGenerator{} }

// プロバイダに渡す明細（金額は最小通貨単位）
type SessionLineItem struct {
	Name        string
	Description string
	UnitAmount  int64
	Quantity    int64
}

type SessionRequest struct {
	Reference     string
	Currency      string
	SuccessURL    string
	CancelURL     string
	CustomerEmail string
	Lines         []SessionLineItem
	// 明細の合計から一括で引く額（最小単位）。0なら値引きなし
	Discount     int64
	DiscountName string
	Metadata     map[string]string
}

// 実際に請求される額
func (r SessionRequest) AmountDue() int64 {
	var sum int64
	for _, l := range r.Lines {
		sum += l.UnitAmount * l.Quantity
	}
	return sum - r.Discount
}

type ProviderSession struct {
	ID  string
	URL string
}

// 外部の決済プロバイダ
type PaymentProvider interface {
	CreateSession(ctx context.Context, req SessionRequest) (ProviderSession, error)
	ExpireSession(ctx context.Context, sessionID string) error
}

const (
	EventSessionCompleted          = "checkout.session.completed"
	EventSessionAsyncPaymentOK     = "checkout.session.async_payment_succeeded"
	EventSessionAsyncPaymentFailed = "checkout.session.async_payment_failed"
	EventSessionExpired            = "checkout.session.expired"
)

const (
	PaymentStatusPaid              = "paid"
	PaymentStatusUnpaid            = "unpaid"
	PaymentStatusNoPaymentRequired = "no_payment_required"
)

// 署名検証済みのイベント
type PaymentEvent struct {
	ID            string
	Type          string
	SessionID     string
	PaymentStatus string
	AmountTotal   int64
	Metadata      map[string]string
}

// 生のbodyと署名ヘッダを検証してイベントにする
type EventVerifier interface {
	Verify(payload []byte, signature string) (PaymentEvent, error)
}
