package repository

import (
	"context"

	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type txReposGorm struct {
	pending    repo.PendingCheckoutRepository
	orders     repo.OrderRepository
	orderItems repo.OrderItemRepository
	cartItems  repo.CartItemRepository
	discounts  repo.DiscountCodeRepository
}

func (r *txReposGorm) PendingCheckouts() repo.PendingCheckoutRepository { return r.pending }
func (r *txReposGorm) Orders() repo.OrderRepository                     { return r.orders }
func (r *txReposGorm) OrderItems() repo.OrderItemRepository             { return r.orderItems }
func (r *txReposGorm) CartItems() repo.CartItemRepository               { return r.cartItems }
func (r *txReposGorm) DiscountCodes() repo.DiscountCodeRepository       { return r.discounts }

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

// fnがerrorを返すか、ctxが切れたら全部rollback
func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//repoはtxを持ったDBで作り直す
		r := &txReposGorm{
			pending:    NewPendingCheckoutGormRepository(tx),
			orders:     NewOrderGormRepository(tx),
			orderItems: NewOrderItemGormRepository(tx),
			cartItems:  NewCartItemGormRepository(tx),
			discounts:  NewDiscountCodeGormRepository(tx),
		}
		return fn(r)
	})
}
