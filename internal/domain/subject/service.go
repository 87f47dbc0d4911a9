package subject

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*View, error) {
	subj, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	v := subj.View(s.now())
	return &v, nil
}

// List searches by name or file number when query is non-empty.
func (s *Service) List(ctx context.Context, query string, limit, offset int) ([]View, int, error) {
	var (
		subjects []*Subject
		total    int
		err      error
	)
	if q := strings.TrimSpace(query); q != "" {
		subjects, total, err = s.repo.Search(ctx, q, limit, offset)
	} else {
		subjects, total, err = s.repo.List(ctx, limit, offset)
	}
	if err != nil {
		return nil, 0, err
	}
	now := s.now()
	views := make([]View, len(subjects))
	for i, subj := range subjects {
		views[i] = subj.View(now)
	}
	return views, total, nil
}

func (s *Service) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.repo.Exists(ctx, id)
}
