package subject

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("subject not found")

// Repository is read-only: subjects are maintained by the directory itself.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Subject, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	List(ctx context.Context, limit, offset int) ([]*Subject, int, error)
	Search(ctx context.Context, name string, limit, offset int) ([]*Subject, int, error)
}
