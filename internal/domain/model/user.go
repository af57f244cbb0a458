package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	Email        string `gorm:"uniqueIndex;not null"`
	TokenVersion int    `gorm:"not null;default:0"`
	IsActive     bool   `gorm:"not null;default:true"`
	Roles        []Role `gorm:"many2many:user_roles;"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// 割引率を持つロール（0〜1）
type Role struct {
	ID       int64               `gorm:"primaryKey;autoIncrement"`
	Name     string              `gorm:"type:varchar(100);uniqueIndex;not null"`
	Discount decimal.NullDecimal `gorm:"type:numeric(5,4)"`
}

// 複数ロールの割引は合算せず最大値を使う
func (u User) MaxRoleDiscount() decimal.Decimal {
	best := decimal.Zero
	for _, r := range u.Roles {
		if !r.Discount.Valid {
			continue
		}
		if d := ClampFraction(r.Discount.Decimal); d.GreaterThan(best) {
			best = d
		}
	}
	return best
}

// ClampFractionは割引率を[0,1]に収める
func ClampFraction(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	if d.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.NewFromInt(1)
	}
	return d
}
