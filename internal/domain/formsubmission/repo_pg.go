package formsubmission

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

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

const subCols = `id, tipo_formulario, joven_id, atencion_id, datos, created_at`

func (r *repoPG) Create(ctx context.Context, s *Submission) error {
	data, err := json.Marshal(s.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return r.pool.QueryRow(ctx, `
		INSERT INTO formularios (tipo_formulario, joven_id, atencion_id, datos)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		s.FormType, s.SubjectID, s.EncounterID, data,
	).Scan(&s.ID, &s.CreatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Submission, error) {
	return scanOne(r.pool.QueryRow(ctx, `SELECT `+subCols+` FROM formularios WHERE id = $1`, id))
}

func (r *repoPG) GetByEncounter(ctx context.Context, encounterID uuid.UUID) (*Submission, error) {
	return scanOne(r.pool.QueryRow(ctx,
		`SELECT `+subCols+` FROM formularios WHERE atencion_id = $1 ORDER BY created_at LIMIT 1`, encounterID))
}

func (r *repoPG) ListBySubject(ctx context.Context, subjectID uuid.UUID, formType string, limit, offset int) ([]*Submission, int, error) {
	where := `WHERE joven_id = $1 AND ($2 = '' OR tipo_formulario = $2)`

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM formularios `+where, subjectID, formType).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+subCols+` FROM formularios `+where+`
		ORDER BY created_at DESC LIMIT $3 OFFSET $4`, subjectID, formType, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Submission
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, s)
	}
	return items, total, rows.Err()
}

func scanSubmission(row pgx.Row) (*Submission, error) {
	var (
		s    Submission
		data []byte
	)
	if err := row.Scan(&s.ID, &s.FormType, &s.SubjectID, &s.EncounterID, &data, &s.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &s.Payload); err != nil {
		return nil, fmt.Errorf("decode stored payload %s: %w", s.ID, err)
	}
	return &s, nil
}

func scanOne(row pgx.Row) (*Submission, error) {
	s, err := scanSubmission(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return s, err
}
