package submission

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRequest  = errors.New("invalid submission")
	ErrInProgress      = errors.New("submission already in progress")
	ErrUnknownForm     = errors.New("unknown form type")
	ErrSubjectNotFound = errors.New("subject not found")
)

// Kind classifies the first fatal failure of a run.
type Kind int

const (
	KindInvalid Kind = iota + 1
	KindInProgress
	KindSubjectMissing
	KindUnauthenticated
	KindProfileMissing
	KindNoClassificationAvailable
	KindEncounterCreationFailed
	KindPayloadWriteFailed
	KindSubjectLookupFailed
)

var kindNames = map[Kind]string{
	KindInvalid:                   "Invalid",
	KindInProgress:                "InProgress",
	KindSubjectMissing:            "SubjectMissing",
	KindUnauthenticated:           "Unauthenticated",
	KindProfileMissing:            "ProfileMissing",
	KindNoClassificationAvailable: "NoClassificationAvailable",
	KindEncounterCreationFailed:   "EncounterCreationFailed",
	KindPayloadWriteFailed:        "PayloadWriteFailed",
	KindSubjectLookupFailed:       "SubjectLookupFailed",
}

// userSummaries are shown to staff ahead of the cause.
var userSummaries = map[Kind]string{
	KindInvalid:                   "Los datos del formulario no son válidos",
	KindInProgress:                "El formulario ya se está guardando, espere a que termine",
	KindSubjectMissing:            "El joven seleccionado no existe",
	KindUnauthenticated:           "La sesión no es válida, vuelva a iniciar sesión",
	KindProfileMissing:            "Su usuario no tiene un perfil profesional configurado, contacte al administrador",
	KindNoClassificationAvailable: "No hay tipos de atención configurados, solicite al administrador cargar el catálogo",
	KindEncounterCreationFailed:   "No se pudo registrar la atención",
	KindPayloadWriteFailed:        "No se pudo guardar el contenido del formulario",
	KindSubjectLookupFailed:       "No se pudo consultar el directorio de jóvenes, intente nuevamente",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is returned by Submit for every fatal outcome.
type Error struct {
	Kind  Kind
	State State
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s while %s: %v", e.Kind, e.State, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// UserMessage is the free text shown to the user.
func (e *Error) UserMessage() string {
	summary, ok := userSummaries[e.Kind]
	if !ok {
		summary = "No se pudo registrar el formulario"
	}
	if e.Err == nil {
		return summary
	}
	return summary + ": " + e.Err.Error()
}

// KindOf returns the kind of a submission error, or zero.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return 0
}
