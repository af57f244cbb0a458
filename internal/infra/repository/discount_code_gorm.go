package repository

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type DiscountCodeGormRepository struct {
	db *gorm.DB
}

func NewDiscountCodeGormRepository(db *gorm.DB) *DiscountCodeGormRepository {
	return &DiscountCodeGormRepository{db: db}
}

func (r *DiscountCodeGormRepository) FindByCode(ctx context.Context, code string) (model.DiscountCode, error) {
	var d model.DiscountCode
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.DiscountCode{}, repo.ErrNotFound
	}
	if err != nil {
		return model.DiscountCode{}, err
	}
	return d, nil
}

// used_count = used_count + 1（読み取りを挟まない）
func (r *DiscountCodeGormRepository) IncrementUsedCount(ctx context.Context, code string) error {
	res := r.db.WithContext(ctx).
		Model(&model.DiscountCode{}).
		Where("code = ?", code).
		UpdateColumn("used_count", gorm.Expr("used_count + ?", 1))

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
