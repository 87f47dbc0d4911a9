package attentiontype

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoClassificationAvailable is returned when every strategy misses.
var ErrNoClassificationAvailable = errors.New("no attention type available")

const (
	StrategyExactRole      = "exact_role"
	StrategyFirstAvailable = "first_available"
	StrategySeed           = "seed"
)

// Query describes what the submission needs classified.
type Query struct {
	Role      string
	AllowSeed bool
}

// Strategy is one step of the lookup chain. A miss is reported as
// ErrNotFound so the chain can continue; any other error aborts it.
type Strategy interface {
	Name() string
	Lookup(ctx context.Context, q Query) (*AttentionType, error)
}

// Resolution records which step produced the type. Fallback is set when
// the type belongs to a different role than the one asked for.
type Resolution struct {
	Type     *AttentionType `json:"attention_type"`
	Strategy string         `json:"strategy"`
	Fallback bool           `json:"fallback"`
}

type exactRole struct{ repo Repository }

func (s exactRole) Name() string { return StrategyExactRole }

func (s exactRole) Lookup(ctx context.Context, q Query) (*AttentionType, error) {
	if q.Role == "" {
		return nil, ErrNotFound
	}
	return s.repo.FindByRole(ctx, q.Role)
}

// firstAvailable picks the oldest catalog row regardless of role.
type firstAvailable struct{ repo Repository }

func (s firstAvailable) Name() string { return StrategyFirstAvailable }

func (s firstAvailable) Lookup(ctx context.Context, _ Query) (*AttentionType, error) {
	return s.repo.First(ctx)
}

// seed creates a catalog row for the role. Only consulted for forms that
// are allowed to self-heal an empty catalog.
type seed struct{ repo Repository }

func (s seed) Name() string { return StrategySeed }

func (s seed) Lookup(ctx context.Context, q Query) (*AttentionType, error) {
	if !q.AllowSeed || q.Role == "" {
		return nil, ErrNotFound
	}
	at := &AttentionType{Name: DefaultName(q.Role), ResponsibleRole: q.Role}
	if err := s.repo.Create(ctx, at); err != nil {
		return nil, fmt.Errorf("seed attention type for %s: %w", q.Role, err)
	}
	return at, nil
}

func ExactRole(repo Repository) Strategy      { return exactRole{repo: repo} }
func FirstAvailable(repo Repository) Strategy { return firstAvailable{repo: repo} }
func Seed(repo Repository) Strategy           { return seed{repo: repo} }

type Resolver struct {
	strategies []Strategy
}

// NewResolver runs strategies in the given order. With none given it uses
// exact role, then first available, then seed.
func NewResolver(repo Repository, strategies ...Strategy) *Resolver {
	if len(strategies) == 0 {
		strategies = []Strategy{ExactRole(repo), FirstAvailable(repo), Seed(repo)}
	}
	return &Resolver{strategies: strategies}
}

func (r *Resolver) Resolve(ctx context.Context, q Query) (*Resolution, error) {
	for _, s := range r.strategies {
		at, err := s.Lookup(ctx, q)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrNoClassificationAvailable, s.Name(), err)
		}
		return &Resolution{Type: at, Strategy: s.Name(), Fallback: at.ResponsibleRole != q.Role}, nil
	}
	return nil, fmt.Errorf("%w for role %q", ErrNoClassificationAvailable, q.Role)
}
