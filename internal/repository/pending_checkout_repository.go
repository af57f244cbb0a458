package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type PendingCheckoutRepository interface {
	// 明細ごと保存。同じsession_idならErrDuplicate
	Create(ctx context.Context, pc model.PendingCheckout) error
	// 行ロックを取って明細付きで取得（Tx内で使う）
	FindForUpdate(ctx context.Context, sessionID string) (model.PendingCheckout, error)
	// 消せたらtrue
	Delete(ctx context.Context, sessionID string) (bool, error)
}
