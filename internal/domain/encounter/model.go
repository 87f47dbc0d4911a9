package encounter

import (
	"time"

	"github.com/google/uuid"
)

// StatusCompleted is the only status the pipeline writes.
const StatusCompleted = "completada"

// Encounter maps to the atenciones table: one row per submission event.
type Encounter struct {
	ID              uuid.UUID `db:"id" json:"id"`
	SubjectID       uuid.UUID `db:"joven_id" json:"subject_id"`
	AttentionTypeID uuid.UUID `db:"tipo_atencion_id" json:"attention_type_id"`
	ProfessionalID  uuid.UUID `db:"profesional_id" json:"professional_id"`
	OccurredAt      time.Time `db:"fecha_atencion" json:"occurred_at"`
	Reason          string    `db:"motivo" json:"reason"`
	Notes           *string   `db:"observaciones" json:"notes,omitempty"`
	Status          string    `db:"estado" json:"status"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// NewEncounter carries the fields supplied by the caller. Status is not
// settable.
type NewEncounter struct {
	SubjectID       uuid.UUID
	AttentionTypeID uuid.UUID
	ProfessionalID  uuid.UUID
	OccurredAt      time.Time
	Reason          string
	Notes           *string
}
