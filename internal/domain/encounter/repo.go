package encounter

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("encounter not found")

// Repository has no update or delete: encounters are append-only.
type Repository interface {
	Create(ctx context.Context, enc *Encounter) error
	GetByID(ctx context.Context, id uuid.UUID) (*Encounter, error)
	ListBySubject(ctx context.Context, subjectID uuid.UUID, limit, offset int) ([]*Encounter, int, error)
	// ListOrphans returns encounters that have no form submission, newest first.
	ListOrphans(ctx context.Context, limit int) ([]*Encounter, error)
}
