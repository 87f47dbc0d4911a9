package professional

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Professional, error) {
	var p Professional
	err := r.pool.QueryRow(ctx,
		`SELECT id, nombre, rol, email, created_at FROM perfiles WHERE id = $1`, id,
	).Scan(&p.ID, &p.DisplayName, &p.Role, &p.Email, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProfileMissing
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
