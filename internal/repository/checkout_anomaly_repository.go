package repository

import (
	"context"
	"time"

	"storefront/internal/domain/model"
)

// 異常記録の絞り込み条件。
type AnomalyFilter struct {
	Kind        *model.AnomalyKind
	SessionID   string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

type CheckoutAnomalyRepository interface {
	Create(ctx context.Context, a model.CheckoutAnomaly) error
	List(ctx context.Context, filter AnomalyFilter) ([]model.CheckoutAnomaly, error)
}
