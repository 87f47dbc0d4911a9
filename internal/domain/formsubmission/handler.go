package formsubmission

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/expedientes/expedientes/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/submissions/:id", h.Get)
	api.GET("/encounters/:id/submission", h.GetByEncounter)
	api.GET("/subjects/:id/submissions", h.ListBySubject)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return h.respond(c, func() (*Submission, error) { return h.svc.Get(c.Request().Context(), id) })
}

func (h *Handler) GetByEncounter(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid encounter id")
	}
	return h.respond(c, func() (*Submission, error) { return h.svc.GetByEncounter(c.Request().Context(), id) })
}

func (h *Handler) respond(c echo.Context, get func() (*Submission, error)) error {
	s, err := get()
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "submission not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, s)
}

func (h *Handler) ListBySubject(c echo.Context) error {
	subjectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid subject id")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListBySubject(c.Request().Context(), subjectID, c.QueryParam("form_type"), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if items == nil {
		items = []*Submission{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}
