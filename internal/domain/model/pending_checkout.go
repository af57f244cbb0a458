package model

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// 決済セッションとカート明細をつなぐ記録。
// webhookで一度だけ消費され、それ以外では更新しない。
type PendingCheckout struct {
	SessionID    string                `gorm:"primaryKey;type:varchar(255)" json:"session_id"`
	Reference    string                `gorm:"type:varchar(64);not null;uniqueIndex" json:"reference"`
	UserID       int64                 `gorm:"not null;index" json:"user_id"`
	CartItemIDs  string                `gorm:"type:text;not null" json:"cart_item_ids"`
	DiscountCode string                `gorm:"type:varchar(64)" json:"discount_code,omitempty"`
	Total        decimal.Decimal       `gorm:"type:numeric(12,2);not null" json:"total"`
	Currency     string                `gorm:"type:varchar(3);not null" json:"currency"`
	Lines        []PendingCheckoutLine `gorm:"foreignKey:SessionID;references:SessionID;constraint:OnDelete:CASCADE" json:"lines"`
	CreatedAt    time.Time             `gorm:"not null" json:"created_at"`
}

// チェックアウト開始時点の明細スナップショット
type PendingCheckoutLine struct {
	ID         int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID  string          `gorm:"type:varchar(255);not null;index" json:"session_id"`
	Position   int             `gorm:"not null" json:"position"`
	CartItemID int64           `gorm:"not null" json:"cart_item_id"`
	ProductID  int64           `gorm:"not null" json:"product_id"`
	Title      string          `gorm:"type:varchar(255);not null" json:"title"`
	Quantity   int64           `gorm:"not null" json:"quantity"`
	UnitPrice  decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unit_price"`
}

// JoinIDsはカンマ区切りにする（プロバイダのmetadataと同じ形式）
func JoinIDs(ids []int64) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.FormatInt(id, 10))
	}
	return strings.Join(parts, ",")
}
