package handler

import (
	"context"
	"net/http"

	"storefront/internal/config"
	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

type checkoutService interface {
	Checkout(ctx context.Context, userID int64, in usecase.CheckoutInput) (usecase.CheckoutOutput, error)
}

// POST /checkout
type CheckoutHandler struct {
	uc checkoutService
}

func NewCheckoutHandler(uc checkoutService) *CheckoutHandler {
	return &CheckoutHandler{uc: uc}
}

type CheckoutRequest struct {
	DiscountCode string `json:"discountCode"`
}

type CheckoutResponse struct {
	URL string `json:"url"`
}

func (h *CheckoutHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	e.POST("/checkout", h.checkout,
		middleware.AuthJWT(cfg),
		middleware.TokenVersionGuard(userRepo),
	)
}

func (h *CheckoutHandler) checkout(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	// bodyは省略可
	var req CheckoutRequest
	if err := bindOptional(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.Checkout(c.Request().Context(), userID, usecase.CheckoutInput{
		DiscountCode: req.DiscountCode,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, CheckoutResponse{URL: out.URL})
}
