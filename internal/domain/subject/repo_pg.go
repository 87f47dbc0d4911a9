package subject

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

const subjectCols = `j.id, j.nombres, j.apellidos, j.fecha_nacimiento, j.centro_id, c.nombre,
	j.numero_causa, j.numero_expediente, j.created_at`

const subjectFrom = ` FROM jovenes j LEFT JOIN centros c ON c.id = j.centro_id`

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Subject, error) {
	s, err := scanSubject(r.pool.QueryRow(ctx, `SELECT `+subjectCols+subjectFrom+` WHERE j.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return s, err
}

func (r *repoPG) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM jovenes WHERE id = $1)`, id).Scan(&ok)
	return ok, err
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Subject, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM jovenes`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+subjectCols+subjectFrom+` ORDER BY j.apellidos, j.nombres LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectSubjects(rows, total)
}

func (r *repoPG) Search(ctx context.Context, name string, limit, offset int) ([]*Subject, int, error) {
	pattern := "%" + name + "%"
	const where = ` WHERE j.nombres ILIKE $1 OR j.apellidos ILIKE $1 OR j.numero_expediente ILIKE $1`

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM jovenes j`+where, pattern).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+subjectCols+subjectFrom+where+` ORDER BY j.apellidos, j.nombres LIMIT $2 OFFSET $3`,
		pattern, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectSubjects(rows, total)
}

func scanSubject(row pgx.Row) (*Subject, error) {
	var s Subject
	err := row.Scan(&s.ID, &s.FirstNames, &s.LastNames, &s.BirthDate, &s.FacilityID, &s.FacilityName,
		&s.CaseNumber, &s.FileNumber, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func collectSubjects(rows pgx.Rows, total int) ([]*Subject, int, error) {
	var out []*Subject
	for rows.Next() {
		s, err := scanSubject(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, s)
	}
	return out, total, rows.Err()
}
