package handler

import (
	"net/http"

	"storefront/internal/config"
	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// GET /admin/checkout-anomalies
type AdminAnomalyHandler struct {
	uc *usecase.AnomalyUsecase
}

func NewAdminAnomalyHandler(uc *usecase.AnomalyUsecase) *AdminAnomalyHandler {
	return &AdminAnomalyHandler{uc: uc}
}

func (h *AdminAnomalyHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	g := e.Group("/admin")
	g.Use(middleware.AuthJWT(cfg))
	g.Use(middleware.TokenVersionGuard(userRepo))
	g.Use(middleware.AdminRoleGuard())

	g.GET("/checkout-anomalies", h.list)
}

func (h *AdminAnomalyHandler) list(c echo.Context) error {
	limit, err := queryInt(c, "limit")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
	}
	offset, err := queryInt(c, "offset")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid offset"})
	}

	list, err := h.uc.List(c.Request().Context(), usecase.AnomalyListInput{
		Kind:      c.QueryParam("kind"),
		SessionID: c.QueryParam("session_id"),
		From:      c.QueryParam("from"),
		To:        c.QueryParam("to"),
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}
