package reporting

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/expedientes/expedientes/internal/platform/auth"
)

type Handler struct {
	runner *Runner
}

func NewHandler(runner *Runner) *Handler {
	return &Handler{runner: runner}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/reports", auth.RequireRole("admin"))
	g.GET("/measures", h.ListMeasures)
	g.GET("/measures/:id/evaluate", h.EvaluateMeasure)
	g.GET("/measures/:id/export.xlsx", h.ExportMeasure)
}

func (h *Handler) ListMeasures(c echo.Context) error {
	return c.JSON(http.StatusOK, PredefinedMeasures)
}

func (h *Handler) EvaluateMeasure(c echo.Context) error {
	report, err := h.evaluate(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, report)
}

func (h *Handler) ExportMeasure(c echo.Context) error {
	report, err := h.evaluate(c)
	if err != nil {
		return err
	}
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	res.Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s.xlsx"`, report.MeasureID))
	res.WriteHeader(http.StatusOK)
	return WriteXLSX(res, report)
}

func (h *Handler) evaluate(c echo.Context) (*Report, error) {
	params := map[string]string{}
	for name, vals := range c.QueryParams() {
		if len(vals) > 0 {
			params[name] = vals[0]
		}
	}
	report, err := h.runner.Evaluate(c.Request().Context(), c.Param("id"), params)
	if errors.Is(err, ErrUnknownMeasure) {
		return nil, echo.NewHTTPError(http.StatusNotFound, "measure not found")
	}
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("query failed: %v", err))
	}
	return report, nil
}
