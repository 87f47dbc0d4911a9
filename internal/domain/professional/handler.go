package professional

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/expedientes/expedientes/internal/platform/auth"
)

type Handler struct {
	resolver *Resolver
}

func NewHandler(resolver *Resolver) *Handler {
	return &Handler{resolver: resolver}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/me", h.Me)
}

// Me returns the profile the pipeline would attribute submissions to.
func (h *Handler) Me(c echo.Context) error {
	caller := Caller{UserID: auth.UserIDFromContext(c.Request().Context())}
	p, err := h.resolver.Resolve(c.Request().Context(), caller)
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	case errors.Is(err, ErrProfileMissing):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, p)
}
