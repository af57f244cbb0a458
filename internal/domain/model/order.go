package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// カート明細1件につき注文1件（明細ごとに評価・チャットの単位になる）
type Order struct {
	ID               int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID           int64           `gorm:"not null;index" json:"user_id"`
	TotalPrice       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_price"`
	Status           OrderStatus     `gorm:"type:varchar(20);not null;index" json:"status"`
	PaymentSessionID string          `gorm:"type:varchar(255);not null;index" json:"-"`
	CreatedAt        time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
