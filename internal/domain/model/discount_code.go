package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type DiscountCode struct {
	ID        int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Code      string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"code"`
	Discount  decimal.Decimal `gorm:"type:numeric(5,4);not null" json:"discount"`
	MaxUses   *int64          `json:"max_uses"`
	ExpiresAt *time.Time      `json:"expires_at"`
	UsedCount int64           `gorm:"not null;default:0" json:"used_count"`
	CreatedAt time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// 上限未満かつ期限内なら使える
func (d DiscountCode) IsApplicable(now time.Time) bool {
	if d.MaxUses != nil && d.UsedCount >= *d.MaxUses {
		return false
	}
	if d.ExpiresAt != nil && !now.Before(*d.ExpiresAt) {
		return false
	}
	return true
}
