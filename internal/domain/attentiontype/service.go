package attentiontype

import (
	"context"
	"errors"
	"fmt"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]*AttentionType, error) {
	return s.repo.List(ctx)
}

// SeedRoles creates one catalog row for each role that has none and
// returns the rows it created.
func (s *Service) SeedRoles(ctx context.Context, roles []string) ([]*AttentionType, error) {
	var created []*AttentionType
	for _, role := range roles {
		_, err := s.repo.FindByRole(ctx, role)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrNotFound) {
			return created, fmt.Errorf("look up %s: %w", role, err)
		}
		at := &AttentionType{Name: DefaultName(role), ResponsibleRole: role}
		if err := s.repo.Create(ctx, at); err != nil {
			return created, fmt.Errorf("create %s: %w", role, err)
		}
		created = append(created, at)
	}
	return created, nil
}
