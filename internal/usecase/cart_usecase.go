package usecase

import (
	"context"
	"errors"
	"net/http"

	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
)

// CartUsecaseは/cartの業務ロジック。
// チェックアウトが読むカート明細はここで作られる。
type CartUsecase struct {
	cartItemRepo repo.CartItemRepository
	productRepo  repo.ProductRepository
}

func NewCartUsecase(cartItemRepo repo.CartItemRepository, productRepo repo.ProductRepository) *CartUsecase {
	return &CartUsecase{
		cartItemRepo: cartItemRepo,
		productRepo:  productRepo,
	}
}

// priceは追加時点の価格
type CartItemResponse struct {
	ID        int64           `json:"id"`
	ProductID int64           `json:"product_id"`
	Title     string          `json:"title"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int64           `json:"quantity"`
}

type CartResponse struct {
	Items []CartItemResponse `json:"items"`
	Total decimal.Decimal    `json:"total"`
}

type AddCartInput struct {
	ProductID int64
	Quantity  int64
}

type UpdateCartItemInput struct {
	Quantity int64
}

func (u *CartUsecase) GetCart(ctx context.Context, userID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, errUnauthorized()
	}
	return u.buildCartResponse(ctx, userID)
}

// 同一商品は数量加算。数量省略時は1。
func (u *CartUsecase) AddToCart(ctx context.Context, userID int64, in AddCartInput) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, errUnauthorized()
	}
	if in.ProductID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}
	if in.Quantity == 0 {
		in.Quantity = 1
	}
	if in.Quantity < 1 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	// 公開中の商品のみ
	p, err := u.productRepo.FindActiveByID(ctx, in.ProductID)
	if errors.Is(err, repo.ErrNotFound) {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, "product not found")
	}
	if err != nil {
		return CartResponse{}, errDB()
	}

	// 価格はこの時点の商品価格をコピー
	if err := u.cartItemRepo.UpsertByUserAndProduct(ctx, userID, p.ID, in.Quantity, p.Price); err != nil {
		return CartResponse{}, errDB()
	}

	return u.buildCartResponse(ctx, userID)
}

func (u *CartUsecase) UpdateCartItem(ctx context.Context, userID int64, cartItemID int64, in UpdateCartItemInput) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, errUnauthorized()
	}
	if cartItemID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if in.Quantity < 1 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	if err := u.ensureOwned(ctx, userID, cartItemID); err != nil {
		return CartResponse{}, err
	}

	if err := u.cartItemRepo.UpdateQuantity(ctx, cartItemID, in.Quantity); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return CartResponse{}, NewHTTPError(http.StatusNotFound, "not found")
		}
		return CartResponse{}, errDB()
	}

	return u.buildCartResponse(ctx, userID)
}

func (u *CartUsecase) DeleteCartItem(ctx context.Context, userID int64, cartItemID int64) error {
	if userID <= 0 {
		return errUnauthorized()
	}
	if cartItemID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := u.ensureOwned(ctx, userID, cartItemID); err != nil {
		return err
	}

	if err := u.cartItemRepo.DeleteByID(ctx, cartItemID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		return errDB()
	}
	return nil
}

// 他人の明細は存在しない扱い
func (u *CartUsecase) ensureOwned(ctx context.Context, userID int64, cartItemID int64) error {
	item, err := u.cartItemRepo.FindByID(ctx, cartItemID)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return errDB()
	}
	if item.UserID != userID {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	return nil
}

func (u *CartUsecase) buildCartResponse(ctx context.Context, userID int64) (CartResponse, error) {
	items, err := u.cartItemRepo.ListByUserID(ctx, userID)
	if err != nil {
		return CartResponse{}, errDB()
	}

	respItems := make([]CartItemResponse, 0, len(items))
	total := decimal.Zero

	for _, it := range items {
		respItems = append(respItems, CartItemResponse{
			ID:        it.ID,
			ProductID: it.ProductID,
			Title:     it.Product.Title,
			Price:     it.UnitPrice,
			Quantity:  it.Quantity,
		})
		total = total.Add(it.LineTotal())
	}

	return CartResponse{Items: respItems, Total: total}, nil
}
