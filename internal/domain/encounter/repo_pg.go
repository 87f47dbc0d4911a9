package encounter

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

const encCols = `a.id, a.joven_id, a.tipo_atencion_id, a.profesional_id, a.fecha_atencion,
	a.motivo, a.observaciones, a.estado, a.created_at`

func (r *repoPG) Create(ctx context.Context, enc *Encounter) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO atenciones (joven_id, tipo_atencion_id, profesional_id, fecha_atencion, motivo, observaciones, estado)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`,
		enc.SubjectID, enc.AttentionTypeID, enc.ProfessionalID, enc.OccurredAt,
		enc.Reason, enc.Notes, enc.Status,
	).Scan(&enc.ID, &enc.CreatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Encounter, error) {
	enc, err := scanEncounter(r.pool.QueryRow(ctx, `SELECT `+encCols+` FROM atenciones a WHERE a.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return enc, err
}

func (r *repoPG) ListBySubject(ctx context.Context, subjectID uuid.UUID, limit, offset int) ([]*Encounter, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM atenciones WHERE joven_id = $1`, subjectID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+encCols+` FROM atenciones a
		WHERE a.joven_id = $1
		ORDER BY a.fecha_atencion DESC, a.created_at DESC
		LIMIT $2 OFFSET $3`, subjectID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	items, err := collectEncounters(rows)
	return items, total, err
}

func (r *repoPG) ListOrphans(ctx context.Context, limit int) ([]*Encounter, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+encCols+` FROM atenciones a
		LEFT JOIN formularios f ON f.atencion_id = a.id
		WHERE f.id IS NULL
		ORDER BY a.created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	return collectEncounters(rows)
}

func scanEncounter(row pgx.Row) (*Encounter, error) {
	var e Encounter
	err := row.Scan(&e.ID, &e.SubjectID, &e.AttentionTypeID, &e.ProfessionalID, &e.OccurredAt,
		&e.Reason, &e.Notes, &e.Status, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func collectEncounters(rows pgx.Rows) ([]*Encounter, error) {
	defer rows.Close()
	var items []*Encounter
	for rows.Next() {
		e, err := scanEncounter(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}
