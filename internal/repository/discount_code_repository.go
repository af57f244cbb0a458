package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type DiscountCodeRepository interface {
	FindByCode(ctx context.Context, code string) (model.DiscountCode, error)
	// 支払い確定時だけ呼ぶ
	IncrementUsedCount(ctx context.Context, code string) error
}
