package repository

import (
	"context"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type checkoutAnomalyGormRepository struct {
	db *gorm.DB
}

func NewCheckoutAnomalyGormRepository(db *gorm.DB) repo.CheckoutAnomalyRepository {
	return &checkoutAnomalyGormRepository{db: db}
}

func (r *checkoutAnomalyGormRepository) Create(ctx context.Context, a model.CheckoutAnomaly) error {
	return r.db.WithContext(ctx).Create(&a).Error
}

func (r *checkoutAnomalyGormRepository) List(ctx context.Context, filter repo.AnomalyFilter) ([]model.CheckoutAnomaly, error) {
	q := r.db.WithContext(ctx).Model(&model.CheckoutAnomaly{})

	if filter.Kind != nil {
		q = q.Where("kind = ?", *filter.Kind)
	}
	if filter.SessionID != "" {
		q = q.Where("session_id = ?", filter.SessionID)
	}
	if filter.CreatedFrom != nil {
		q = q.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		q = q.Where("created_at <= ?", *filter.CreatedTo)
	}

	//新しい順
	q = q.Order("id DESC")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	q = q.Limit(limit).Offset(offset)

	var out []model.CheckoutAnomaly
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
