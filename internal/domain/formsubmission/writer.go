package formsubmission

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var ErrPayloadWriteFailed = errors.New("form payload write failed")

// Writer stores the canonical payload for an already created encounter.
// A failure leaves that encounter in place.
type Writer struct {
	repo Repository
}

func NewWriter(repo Repository) *Writer {
	return &Writer{repo: repo}
}

func (w *Writer) Write(ctx context.Context, in NewSubmission) (*Submission, error) {
	if in.EncounterID == uuid.Nil || in.SubjectID == uuid.Nil {
		return nil, fmt.Errorf("%w: encounter and subject are required", ErrPayloadWriteFailed)
	}
	if in.Payload == nil {
		return nil, fmt.Errorf("%w: payload is required", ErrPayloadWriteFailed)
	}
	s := &Submission{
		FormType:    in.FormType,
		SubjectID:   in.SubjectID,
		EncounterID: in.EncounterID,
		Payload:     in.Payload,
	}
	if err := w.repo.Create(ctx, s); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPayloadWriteFailed, err)
	}
	return s, nil
}
