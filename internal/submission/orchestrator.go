// Package submission records a filled-in form as one encounter, one
// canonical payload and, where the form has one, a typed projection.
package submission

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/expedientes/expedientes/internal/domain/attentiontype"
	"github.com/expedientes/expedientes/internal/domain/encounter"
	"github.com/expedientes/expedientes/internal/domain/formcatalog"
	"github.com/expedientes/expedientes/internal/domain/formsubmission"
	"github.com/expedientes/expedientes/internal/domain/professional"
	"github.com/expedientes/expedientes/internal/domain/projection"
	"github.com/expedientes/expedientes/internal/platform/guard"
)

const SuccessMessage = "Formulario registrado correctamente"

type SubjectDirectory interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

type IdentityResolver interface {
	Resolve(ctx context.Context, caller professional.Caller) (*professional.Professional, error)
}

type ClassificationResolver interface {
	Resolve(ctx context.Context, q attentiontype.Query) (*attentiontype.Resolution, error)
}

type EncounterCreator interface {
	Create(ctx context.Context, in encounter.NewEncounter) (*encounter.Encounter, error)
}

type PayloadWriter interface {
	Write(ctx context.Context, in formsubmission.NewSubmission) (*formsubmission.Submission, error)
}

type ProjectionWriter interface {
	Has(formType string) bool
	Write(ctx context.Context, formType string, ids projection.IDs, payload map[string]any) (bool, error)
}

type FormCatalog interface {
	Lookup(formType string) (formcatalog.Form, bool)
}

// Deps wires the orchestrator. Subjects, Projections and Guard are optional.
type Deps struct {
	Forms           FormCatalog
	Subjects        SubjectDirectory
	Identity        IdentityResolver
	Classifications ClassificationResolver
	Encounters      EncounterCreator
	Payloads        PayloadWriter
	Projections     ProjectionWriter
	Guard           guard.Guard
	LockTTL         time.Duration
	// Location interprets form dates that carry no zone. Nil means UTC.
	Location        *time.Location
}

// Request is one submit action from a form instance.
type Request struct {
	Caller     professional.Caller    `validate:"-"`
	SubjectID  uuid.UUID              `validate:"required"`
	FormType   string                 `validate:"required,max=64"`
	InstanceID string                 `validate:"omitempty,max=128"`
	Payload    formsubmission.Payload `validate:"required"`
}

type Result struct {
	EncounterID            uuid.UUID `json:"encounter_id"`
	SubmissionID           uuid.UUID `json:"submission_id"`
	AttentionTypeID        uuid.UUID `json:"attention_type_id"`
	ClassificationFallback bool      `json:"classification_fallback"`
	ProjectionWritten      bool      `json:"projection_written"`
	// Warnings carry non-fatal failures for logs; they are not shown to users.
	Warnings []string `json:"-"`
	Message  string   `json:"message"`
	States   []State  `json:"states"`
}

type Orchestrator struct {
	deps     Deps
	validate *validator.Validate
	logger   zerolog.Logger
	now      func() time.Time
}

func New(deps Deps, logger zerolog.Logger) *Orchestrator {
	if deps.LockTTL <= 0 {
		deps.LockTTL = 30 * time.Second
	}
	return &Orchestrator{
		deps:     deps,
		validate: validator.New(),
		logger:   logger.With().Str("component", "submission").Logger(),
		now:      time.Now,
	}
}

// Submit runs every step in order and stops at the first fatal failure.
// Steps already committed are not undone.
func (o *Orchestrator) Submit(ctx context.Context, req Request) (*Result, error) {
	log := o.loggerFor(ctx).With().
		Str("form_type", req.FormType).
		Str("subject_id", req.SubjectID.String()).
		Logger()
	tr := newTrace()

	fail := func(kind Kind, err error) (*Result, error) {
		se := &Error{Kind: kind, State: tr.current(), Err: err}
		evt := log.Error()
		if kind == KindInvalid || kind == KindInProgress || kind == KindUnauthenticated {
			evt = log.Warn()
		}
		evt.Err(err).Str("kind", kind.String()).Str("state", se.State.String()).Msg("submission failed")
		return nil, se
	}

	tr.enter(Validating)
	form, err := o.check(req)
	if err != nil {
		return fail(KindInvalid, err)
	}

	tr.enter(ResolvingIdentity)
	prof, err := o.deps.Identity.Resolve(ctx, req.Caller)
	if err != nil {
		if errors.Is(err, professional.ErrUnauthenticated) {
			return fail(KindUnauthenticated, err)
		}
		return fail(KindProfileMissing, err)
	}
	log = log.With().Str("professional_id", prof.ID.String()).Logger()

	// Only authenticated callers learn whether a subject exists or hold the guard.
	if kind, err := o.checkSubject(ctx, req.SubjectID); err != nil {
		return fail(kind, err)
	}

	if o.deps.Guard != nil && req.InstanceID != "" {
		release, ok, err := o.deps.Guard.Acquire(ctx, req.FormType+":"+req.InstanceID, o.deps.LockTTL)
		switch {
		case err != nil:
			log.Warn().Err(err).Msg("in-flight guard unavailable, continuing")
		case !ok:
			return fail(KindInProgress, fmt.Errorf("%w: instance %s", ErrInProgress, req.InstanceID))
		default:
			defer release()
		}
	}

	tr.enter(ResolvingClassification)
	res, err := o.deps.Classifications.Resolve(ctx, attentiontype.Query{
		Role:      form.Role.String(),
		AllowSeed: form.SeedClassification,
	})
	if err != nil {
		return fail(KindNoClassificationAvailable, err)
	}
	if res.Fallback {
		log.Warn().
			Str("role", form.Role.String()).
			Str("attention_type_id", res.Type.ID.String()).
			Str("attention_type_role", res.Type.ResponsibleRole).
			Str("strategy", res.Strategy).
			Msg("classification fell back to a different role")
	}

	tr.enter(CreatingEncounter)
	enc, err := o.deps.Encounters.Create(ctx, encounter.NewEncounter{
		SubjectID:       req.SubjectID,
		AttentionTypeID: res.Type.ID,
		ProfessionalID:  prof.ID,
		OccurredAt:      formcatalog.OccurredAt(form, req.Payload, o.now(), o.deps.Location),
		Reason:          formcatalog.Reason(form, req.Payload),
		Notes:           formcatalog.Notes(form, req.Payload),
	})
	if err != nil {
		return fail(KindEncounterCreationFailed, err)
	}
	log = log.With().Str("encounter_id", enc.ID.String()).Logger()

	tr.enter(WritingPayload)
	sub, err := o.deps.Payloads.Write(ctx, formsubmission.NewSubmission{
		FormType:    req.FormType,
		SubjectID:   req.SubjectID,
		EncounterID: enc.ID,
		Payload:     req.Payload,
	})
	if err != nil {
		// The encounter stays behind without content.
		return fail(KindPayloadWriteFailed, err)
	}

	result := &Result{
		EncounterID:            enc.ID,
		SubmissionID:           sub.ID,
		AttentionTypeID:        res.Type.ID,
		ClassificationFallback: res.Fallback,
		Message:                SuccessMessage,
	}

	if o.deps.Projections != nil && o.deps.Projections.Has(req.FormType) {
		tr.enter(WritingProjection)
		written, err := o.deps.Projections.Write(ctx, req.FormType, projection.IDs{
			SubmissionID: sub.ID,
			EncounterID:  enc.ID,
			SubjectID:    req.SubjectID,
		}, req.Payload)
		if err != nil {
			log.Warn().Err(err).Str("submission_id", sub.ID.String()).Msg("typed projection not written")
			result.Warnings = append(result.Warnings, err.Error())
		}
		result.ProjectionWritten = written
	}

	tr.enter(Done)
	result.States = tr.states

	log.Info().
		Str("submission_id", sub.ID.String()).
		Str("attention_type_id", res.Type.ID.String()).
		Bool("projection_written", result.ProjectionWritten).
		Msg("form submitted")
	return result, nil
}

// check validates the request shape and the form type.
func (o *Orchestrator) check(req Request) (formcatalog.Form, error) {
	if err := o.validate.Struct(req); err != nil {
		return formcatalog.Form{}, fmt.Errorf("%w: %s", ErrInvalidRequest, describeValidation(err))
	}
	form, ok := o.deps.Forms.Lookup(req.FormType)
	if !ok {
		return formcatalog.Form{}, fmt.Errorf("%w: %w %q", ErrInvalidRequest, ErrUnknownForm, req.FormType)
	}
	return form, nil
}

// checkSubject separates an unknown subject from a directory that could not
// answer.
func (o *Orchestrator) checkSubject(ctx context.Context, id uuid.UUID) (Kind, error) {
	if o.deps.Subjects == nil {
		return 0, nil
	}
	exists, err := o.deps.Subjects.Exists(ctx, id)
	if err != nil {
		return KindSubjectLookupFailed, fmt.Errorf("look up subject %s: %w", id, err)
	}
	if !exists {
		return KindSubjectMissing, fmt.Errorf("%w: %s", ErrSubjectNotFound, id)
	}
	return 0, nil
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}

func (o *Orchestrator) loggerFor(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		scoped := l.With().Str("component", "submission").Logger()
		return &scoped
	}
	return &o.logger
}
