package professional

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrUnauthenticated = errors.New("no authenticated identity")
	ErrProfileMissing  = errors.New("authenticated identity has no professional profile")
)

// Resolver maps an authenticated caller to an existing profile. It never writes.
type Resolver struct {
	repo Repository
}

func NewResolver(repo Repository) *Resolver {
	return &Resolver{repo: repo}
}

func (r *Resolver) Resolve(ctx context.Context, caller Caller) (*Professional, error) {
	raw := strings.TrimSpace(caller.UserID)
	if raw == "" {
		return nil, ErrUnauthenticated
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: subject %q is not a profile id", ErrUnauthenticated, raw)
	}

	p, err := r.repo.GetByID(ctx, id)
	if errors.Is(err, ErrProfileMissing) {
		return nil, fmt.Errorf("%w: %s", ErrProfileMissing, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: lookup %s: %w", ErrProfileMissing, id, err)
	}
	return p, nil
}
