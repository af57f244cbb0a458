package repository

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PendingCheckoutGormRepository struct {
	db *gorm.DB
}

func NewPendingCheckoutGormRepository(db *gorm.DB) *PendingCheckoutGormRepository {
	return &PendingCheckoutGormRepository{db: db}
}

// 親と明細を同じTxで保存
func (r *PendingCheckoutGormRepository) Create(ctx context.Context, pc model.PendingCheckout) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lines := pc.Lines
		pc.Lines = nil

		if err := tx.Create(&pc).Error; err != nil {
			return err
		}
		if len(lines) == 0 {
			return nil
		}
		for i := range lines {
			lines[i].SessionID = pc.SessionID
			lines[i].Position = i
		}
		return tx.Create(&lines).Error
	})
	if isUniqueViolation(err) {
		return repo.ErrDuplicate
	}
	return err
}

// SELECT ... FOR UPDATE。同じセッションの同時webhookはここで直列になる
func (r *PendingCheckoutGormRepository) FindForUpdate(ctx context.Context, sessionID string) (model.PendingCheckout, error) {
	var pc model.PendingCheckout

	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("session_id = ?", sessionID).
		First(&pc).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.PendingCheckout{}, repo.ErrNotFound
	}
	if err != nil {
		return model.PendingCheckout{}, err
	}

	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("position asc").
		Find(&pc.Lines).Error; err != nil {
		return model.PendingCheckout{}, err
	}
	return pc, nil
}

// 明細 → 親の順で削除
func (r *PendingCheckoutGormRepository) Delete(ctx context.Context, sessionID string) (bool, error) {
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Delete(&model.PendingCheckoutLine{}).Error; err != nil {
		return false, err
	}

	res := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Delete(&model.PendingCheckout{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
