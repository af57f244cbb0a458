package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// Stripeのイベントは数KB。大きすぎるものは読まない。
const maxWebhookBody = 64 << 10

const signatureHeader = "Stripe-Signature"

type webhookService interface {
	Handle(ctx context.Context, payload []byte, signature string) (usecase.WebhookResult, error)
}

// POST /webhook（認証なし、署名で検証する）
type WebhookHandler struct {
	uc webhookService
}

func NewWebhookHandler(uc webhookService) *WebhookHandler {
	return &WebhookHandler{uc: uc}
}

type WebhookResponse struct {
	Received bool   `json:"received"`
	Outcome  string `json:"outcome"`
}

func (h *WebhookHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/webhook", h.receive)
}

func (h *WebhookHandler) receive(c echo.Context) error {
	// 署名は生のbodyに対して計算されるのでBindしない
	body, err := io.ReadAll(http.MaxBytesReader(c.Response(), c.Request().Body, maxWebhookBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "payload too large"})
		}
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	res, err := h.uc.Handle(c.Request().Context(), body, c.Request().Header.Get(signatureHeader))
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, WebhookResponse{Received: true, Outcome: string(res.Outcome)})
}
