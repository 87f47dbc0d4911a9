package reporting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/expedientes/expedientes/internal/domain/formcatalog"
)

var ErrUnknownMeasure = errors.New("measure not found")

// Report holds the results of evaluating a measure. Columns keeps the
// query's column order.
type Report struct {
	MeasureID   string            `json:"measure_id"`
	MeasureName string            `json:"measure_name"`
	GeneratedAt time.Time         `json:"generated_at"`
	Columns     []string          `json:"columns"`
	Results     []map[string]any  `json:"results"`
	Parameters  map[string]string `json:"parameters,omitempty"`
}

// Source runs a query and returns column names and row values.
type Source interface {
	Query(ctx context.Context, sql string, args ...any) ([]string, [][]any, error)
}

type Runner struct {
	src       Source
	formTypes []string
	formRoles []string
	now       func() time.Time
}

// NewRunner binds the form catalog for measures comparing classifications
// with form roles.
func NewRunner(src Source, forms []formcatalog.Form) *Runner {
	r := &Runner{src: src, now: time.Now}
	for _, f := range forms {
		r.formTypes = append(r.formTypes, f.Type)
		r.formRoles = append(r.formRoles, f.Role.String())
	}
	return r
}

func (r *Runner) Evaluate(ctx context.Context, measureID string, params map[string]string) (*Report, error) {
	m := FindMeasure(measureID)
	if m == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMeasure, measureID)
	}

	var args []any
	if m.FormRoles {
		args = append(args, r.formTypes, r.formRoles)
	}
	used := map[string]string{}
	for _, p := range m.Parameters {
		if v := params[p]; v != "" {
			args = append(args, v)
			used[p] = v
		} else {
			args = append(args, nil)
		}
	}

	cols, rows, err := r.src.Query(ctx, m.SQL, args...)
	if err != nil {
		return nil, fmt.Errorf("evaluate %s: %w", m.ID, err)
	}

	results := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		rec := make(map[string]any, len(cols))
		for i, c := range cols {
			if i < len(row) {
				rec[c] = row[i]
			}
		}
		results = append(results, rec)
	}

	return &Report{
		MeasureID:   m.ID,
		MeasureName: m.Name,
		GeneratedAt: r.now(),
		Columns:     cols,
		Results:     results,
		Parameters:  used,
	}, nil
}

// PGSource reads measures straight from the pool.
type PGSource struct {
	pool *pgxpool.Pool
}

func NewPGSource(pool *pgxpool.Pool) *PGSource {
	return &PGSource{pool: pool}
}

func (s *PGSource) Query(ctx context.Context, sql string, args ...any) ([]string, [][]any, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	fds := rows.FieldDescriptions()
	cols := make([]string, len(fds))
	for i, fd := range fds {
		cols[i] = fd.Name
	}

	var out [][]any
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, nil, err
		}
		for i, v := range values {
			values[i] = normalize(v)
		}
		out = append(out, values)
	}
	return cols, out, rows.Err()
}

// normalize turns driver values into JSON and spreadsheet friendly ones.
func normalize(v any) any {
	switch t := v.(type) {
	case [16]byte:
		return uuid.UUID(t).String()
	case time.Time:
		return t.UTC()
	}
	return v
}
