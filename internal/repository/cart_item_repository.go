package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"storefront/internal/domain/model"
)

type CartItemRepository interface {
	// id昇順、商品付きで返す
	ListByUserID(ctx context.Context, userID int64) ([]model.CartItem, error)
	// 同一商品はプラス
	UpsertByUserAndProduct(ctx context.Context, userID int64, productID int64, addQty int64, unitPrice decimal.Decimal) error
	UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) error
	DeleteByID(ctx context.Context, cartItemID int64) error
	FindByID(ctx context.Context, cartItemID int64) (model.CartItem, error)
	// 購入した数量だけ差し引き、残りが無くなった明細は消す。既に消えていた明細は無視。
	ConsumeForUser(ctx context.Context, userID int64, purchased []PurchasedLine) error
}

// 決済確定した明細と数量
type PurchasedLine struct {
	CartItemID int64
	Quantity   int64
}
