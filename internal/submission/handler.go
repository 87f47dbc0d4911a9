package submission

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/expedientes/expedientes/internal/domain/formsubmission"
	"github.com/expedientes/expedientes/internal/domain/professional"
	"github.com/expedientes/expedientes/internal/platform/auth"
)

type Handler struct {
	orch *Orchestrator
}

func NewHandler(orch *Orchestrator) *Handler {
	return &Handler{orch: orch}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/subjects/:id/forms/:type", h.Submit)
}

type submitBody struct {
	InstanceID string                 `json:"instance_id"`
	Data       formsubmission.Payload `json:"data"`
}

var kindStatus = map[Kind]int{
	KindInvalid:                   http.StatusBadRequest,
	KindInProgress:                http.StatusConflict,
	KindSubjectMissing:            http.StatusNotFound,
	KindUnauthenticated:           http.StatusUnauthorized,
	KindProfileMissing:            http.StatusForbidden,
	KindNoClassificationAvailable: http.StatusUnprocessableEntity,
	KindEncounterCreationFailed:   http.StatusInternalServerError,
	KindPayloadWriteFailed:        http.StatusInternalServerError,
	KindSubjectLookupFailed:       http.StatusInternalServerError,
}

func (h *Handler) Submit(c echo.Context) error {
	subjectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid subject id")
	}

	var body submitBody
	if err := formsubmission.DecodeStrict(c.Request().Body, &body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body: "+err.Error())
	}

	ctx := c.Request().Context()
	res, err := h.orch.Submit(ctx, Request{
		Caller:     professional.Caller{UserID: auth.UserIDFromContext(ctx)},
		SubjectID:  subjectID,
		FormType:   c.Param("type"),
		InstanceID: body.InstanceID,
		Payload:    body.Data,
	})
	if err != nil {
		var se *Error
		if !errors.As(err, &se) {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		status, ok := kindStatus[se.Kind]
		if !ok {
			status = http.StatusInternalServerError
		}
		return echo.NewHTTPError(status, se.UserMessage()).SetInternal(err)
	}
	return c.JSON(http.StatusCreated, res)
}
