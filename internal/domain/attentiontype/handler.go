package attentiontype

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/attention-types", h.List)
}

func (h *Handler) List(c echo.Context) error {
	types, err := h.svc.List(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if types == nil {
		types = []*AttentionType{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"data": types})
}
