package professional

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// GetByID returns ErrProfileMissing when no profile row exists.
	GetByID(ctx context.Context, id uuid.UUID) (*Professional, error)
}
