package encounter

import (
	"context"

	"github.com/google/uuid"
)

// Service is the read side used by the API and reconciliation.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Encounter, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListBySubject(ctx context.Context, subjectID uuid.UUID, limit, offset int) ([]*Encounter, int, error) {
	return s.repo.ListBySubject(ctx, subjectID, limit, offset)
}

func (s *Service) ListOrphans(ctx context.Context, limit int) ([]*Encounter, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.repo.ListOrphans(ctx, limit)
}
