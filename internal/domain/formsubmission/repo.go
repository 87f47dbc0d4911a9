package formsubmission

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("form submission not found")

type Repository interface {
	Create(ctx context.Context, s *Submission) error
	GetByID(ctx context.Context, id uuid.UUID) (*Submission, error)
	GetByEncounter(ctx context.Context, encounterID uuid.UUID) (*Submission, error)
	// ListBySubject filters by form type when formType is non-empty.
	ListBySubject(ctx context.Context, subjectID uuid.UUID, formType string, limit, offset int) ([]*Submission, int, error)
}
