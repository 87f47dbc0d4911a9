package formsubmission

import (
	"context"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Submission, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByEncounter(ctx context.Context, encounterID uuid.UUID) (*Submission, error) {
	return s.repo.GetByEncounter(ctx, encounterID)
}

func (s *Service) ListBySubject(ctx context.Context, subjectID uuid.UUID, formType string, limit, offset int) ([]*Submission, int, error) {
	return s.repo.ListBySubject(ctx, subjectID, formType, limit, offset)
}
