package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// カートの明細
// 追加時点の価格を必ず保存（後から商品価格が変わっても影響しない）。
type CartItem struct {
	ID        int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64           `gorm:"not null;uniqueIndex:idx_cart_user_product" json:"user_id"`
	ProductID int64           `gorm:"not null;uniqueIndex:idx_cart_user_product" json:"product_id"`
	Quantity  int64           `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unit_price"`
	Product   Product         `gorm:"foreignKey:ProductID" json:"product"`
	CreatedAt time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (c CartItem) LineTotal() decimal.Decimal {
	return c.UnitPrice.Mul(decimal.NewFromInt(c.Quantity))
}
