package attentiontype

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const atCols = `id, nombre, descripcion, rol_responsable, created_at`

func (r *repoPG) FindByRole(ctx context.Context, role string) (*AttentionType, error) {
	return scanOne(r.pool.QueryRow(ctx,
		`SELECT `+atCols+` FROM tipos_atencion WHERE rol_responsable = $1 ORDER BY created_at LIMIT 1`, role))
}

func (r *repoPG) First(ctx context.Context) (*AttentionType, error) {
	return scanOne(r.pool.QueryRow(ctx, `SELECT `+atCols+` FROM tipos_atencion ORDER BY created_at LIMIT 1`))
}

func (r *repoPG) Create(ctx context.Context, at *AttentionType) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO tipos_atencion (nombre, descripcion, rol_responsable)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		at.Name, at.Description, at.ResponsibleRole,
	).Scan(&at.ID, &at.CreatedAt)
}

func (r *repoPG) List(ctx context.Context) ([]*AttentionType, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+atCols+` FROM tipos_atencion ORDER BY rol_responsable, nombre`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*AttentionType
	for rows.Next() {
		at, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, at)
	}
	return out, rows.Err()
}

func scan(row pgx.Row) (*AttentionType, error) {
	var at AttentionType
	if err := row.Scan(&at.ID, &at.Name, &at.Description, &at.ResponsibleRole, &at.CreatedAt); err != nil {
		return nil, err
	}
	return &at, nil
}

func scanOne(row pgx.Row) (*AttentionType, error) {
	at, err := scan(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return at, err
}
