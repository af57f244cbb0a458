package server

import (
	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/infra/monitoring"
	"storefront/internal/repository"

	"github.com/labstack/echo/v4"
)

type Handlers struct {
	Health   *handler.HealthHandler
	Cart     *handler.CartHandler
	Checkout *handler.CheckoutHandler
	Webhook  *handler.WebhookHandler
	Order    *handler.OrderHandler
	Anomaly  *handler.AdminAnomalyHandler
}

func RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository, h Handlers) {
	monitoring.RegisterMetricsEndpoint(e)
	h.Health.RegisterRoutes(e)

	//署名で検証するのでJWTは不要
	h.Webhook.RegisterRoutes(e)

	h.Cart.RegisterRoutes(e, cfg, userRepo)
	h.Checkout.RegisterRoutes(e, cfg, userRepo)
	h.Order.RegisterRoutes(e, cfg, userRepo)
	h.Anomaly.RegisterRoutes(e, cfg, userRepo)
}
