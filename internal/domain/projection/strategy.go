package projection

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotApplicable means a strategy cannot serve a definition and the next
// one should be tried. It is not counted as a failure.
var ErrNotApplicable = errors.New("strategy not applicable")

// Execer is satisfied by *pgxpool.Pool and pgx.Tx.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type Strategy interface {
	Name() string
	Write(ctx context.Context, def Definition, row Row) error
}

// RoutineStrategy calls the definition's stored function.
type RoutineStrategy struct {
	db Execer
}

func NewRoutineStrategy(db Execer) *RoutineStrategy {
	return &RoutineStrategy{db: db}
}

func (s *RoutineStrategy) Name() string { return "routine" }

func (s *RoutineStrategy) Write(ctx context.Context, def Definition, row Row) error {
	if def.Routine == "" {
		return ErrNotApplicable
	}
	args := row.Args(def)
	sql := fmt.Sprintf("SELECT %s(%s)", pgx.Identifier{def.Routine}.Sanitize(), placeholders(len(args)))
	_, err := s.db.Exec(ctx, sql, args...)
	return err
}

// InsertStrategy writes directly into the typed table.
type InsertStrategy struct {
	db Execer
}

func NewInsertStrategy(db Execer) *InsertStrategy {
	return &InsertStrategy{db: db}
}

func (s *InsertStrategy) Name() string { return "insert" }

func (s *InsertStrategy) Write(ctx context.Context, def Definition, row Row) error {
	if def.Table == "" {
		return ErrNotApplicable
	}
	cols := []string{"formulario_id", "atencion_id", "joven_id"}
	for _, c := range def.Columns {
		cols = append(cols, c.Name)
	}
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pgx.Identifier{c}.Sanitize()
	}
	args := row.Args(def)
	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		pgx.Identifier{def.Table}.Sanitize(), strings.Join(quoted, ", "), placeholders(len(args)))
	_, err := s.db.Exec(ctx, sql, args...)
	return err
}

func placeholders(n int) string {
	ph := make([]string, n)
	for i := range ph {
		ph[i] = fmt.Sprintf("$%d", i+1)
	}
	return strings.Join(ph, ", ")
}
