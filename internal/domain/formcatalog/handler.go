package formcatalog

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/expedientes/expedientes/internal/domain/professional"
)

type Handler struct {
	catalog *Catalog
}

func NewHandler(catalog *Catalog) *Handler {
	return &Handler{catalog: catalog}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/forms", h.List)
}

// List accepts an optional ?role= filter.
func (h *Handler) List(c echo.Context) error {
	role := professional.Role(c.QueryParam("role"))
	if role != "" && !role.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown role: "+string(role))
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"data": h.catalog.List(role)})
}
