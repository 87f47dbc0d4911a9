package encounter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

var ErrEncounterCreationFailed = errors.New("encounter creation failed")

// Factory persists one Encounter per call. It never retries and never
// updates an existing row.
type Factory struct {
	repo Repository
	now  func() time.Time
}

func NewFactory(repo Repository) *Factory {
	return &Factory{repo: repo, now: time.Now}
}

func (f *Factory) Create(ctx context.Context, in NewEncounter) (*Encounter, error) {
	var missing []string
	if in.SubjectID == uuid.Nil {
		missing = append(missing, "subject")
	}
	if in.ProfessionalID == uuid.Nil {
		missing = append(missing, "professional")
	}
	if in.AttentionTypeID == uuid.Nil {
		missing = append(missing, "attention type")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", ErrEncounterCreationFailed, strings.Join(missing, ", "))
	}

	occurred := in.OccurredAt
	if occurred.IsZero() {
		occurred = f.now()
	}
	enc := &Encounter{
		SubjectID:       in.SubjectID,
		AttentionTypeID: in.AttentionTypeID,
		ProfessionalID:  in.ProfessionalID,
		OccurredAt:      occurred.UTC(),
		Reason:          in.Reason,
		Notes:           in.Notes,
		Status:          StatusCompleted,
	}
	if err := f.repo.Create(ctx, enc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncounterCreationFailed, describe(err))
	}
	return enc, nil
}

// describe keeps the original error in the chain and names the violated
// constraint when postgres reports one.
func describe(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.ConstraintName != "" {
		return fmt.Errorf("constraint %s: %w", pgErr.ConstraintName, err)
	}
	return err
}
