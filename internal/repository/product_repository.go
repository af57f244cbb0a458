package repository

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
)

var (
	ErrNotFound = errors.New("not found")
	// 一意制約違反
	ErrDuplicate = errors.New("duplicate")
)

// 商品の取得だけを約束。
type ProductRepository interface {
	// 公開中で削除されていない商品を1件取得
	FindActiveByID(ctx context.Context, id int64) (model.Product, error)
}
