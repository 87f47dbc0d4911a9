package encounter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/labstack/echo/v4"
)

// -- Mock Repository --

type mockRepo struct {
	encounters map[uuid.UUID]*Encounter
	withForm   map[uuid.UUID]bool
	createErr  error
	creates    int
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		encounters: make(map[uuid.UUID]*Encounter),
		withForm:   make(map[uuid.UUID]bool),
	}
}

func (m *mockRepo) Create(_ context.Context, enc *Encounter) error {
	m.creates++
	if m.createErr != nil {
		return m.createErr
	}
	enc.ID = uuid.New()
	enc.CreatedAt = time.Now()
	m.encounters[enc.ID] = enc
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Encounter, error) {
	enc, ok := m.encounters[id]
	if !ok {
		return nil, ErrNotFound
	}
	return enc, nil
}

func (m *mockRepo) ListBySubject(_ context.Context, subjectID uuid.UUID, limit, offset int) ([]*Encounter, int, error) {
	var result []*Encounter
	for _, enc := range m.encounters {
		if enc.SubjectID == subjectID {
			result = append(result, enc)
		}
	}
	return result, len(result), nil
}

func (m *mockRepo) ListOrphans(_ context.Context, limit int) ([]*Encounter, error) {
	var result []*Encounter
	for id, enc := range m.encounters {
		if !m.withForm[id] {
			result = append(result, enc)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func validInput() NewEncounter {
	return NewEncounter{
		SubjectID:       uuid.New(),
		AttentionTypeID: uuid.New(),
		ProfessionalID:  uuid.New(),
		Reason:          "Ficha social",
	}
}

// -- Tests --

func TestFactory_Create(t *testing.T) {
	repo := newMockRepo()
	f := NewFactory(repo)
	in := validInput()
	in.OccurredAt = time.Date(2026, 5, 4, 10, 30, 0, 0, time.FixedZone("CLT", -4*3600))

	enc, err := f.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if enc.ID == uuid.Nil {
		t.Error("expected ID to be set")
	}
	if enc.Status != StatusCompleted {
		t.Errorf("expected status %s, got %s", StatusCompleted, enc.Status)
	}
	if enc.OccurredAt.Location() != time.UTC || !enc.OccurredAt.Equal(in.OccurredAt) {
		t.Errorf("expected UTC occurrence equal to input, got %v", enc.OccurredAt)
	}
	if enc.Reason != "Ficha social" {
		t.Errorf("unexpected reason %q", enc.Reason)
	}
}

func TestFactory_Create_DefaultsOccurredAt(t *testing.T) {
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	f := NewFactory(newMockRepo())
	f.now = func() time.Time { return fixed }

	enc, err := f.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !enc.OccurredAt.Equal(fixed) {
		t.Errorf("expected %v, got %v", fixed, enc.OccurredAt)
	}
}

func TestFactory_Create_MissingReferences(t *testing.T) {
	tests := []struct {
		name  string
		mut   func(*NewEncounter)
		field string
	}{
		{"subject", func(n *NewEncounter) { n.SubjectID = uuid.Nil }, "subject"},
		{"professional", func(n *NewEncounter) { n.ProfessionalID = uuid.Nil }, "professional"},
		{"attention type", func(n *NewEncounter) { n.AttentionTypeID = uuid.Nil }, "attention type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockRepo()
			in := validInput()
			tt.mut(&in)

			_, err := NewFactory(repo).Create(context.Background(), in)
			if !errors.Is(err, ErrEncounterCreationFailed) {
				t.Fatalf("expected ErrEncounterCreationFailed, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("expected %q in error, got %v", tt.field, err)
			}
			if repo.creates != 0 {
				t.Errorf("store must not be called, got %d calls", repo.creates)
			}
		})
	}
}

func TestFactory_Create_ConstraintViolation(t *testing.T) {
	repo := newMockRepo()
	pgErr := &pgconn.PgError{Code: "23503", ConstraintName: "atenciones_tipo_atencion_id_fkey", Message: "violates foreign key"}
	repo.createErr = pgErr

	_, err := NewFactory(repo).Create(context.Background(), validInput())
	if !errors.Is(err, ErrEncounterCreationFailed) {
		t.Fatalf("expected ErrEncounterCreationFailed, got %v", err)
	}
	var got *pgconn.PgError
	if !errors.As(err, &got) || got != pgErr {
		t.Error("expected PgError to remain in the chain")
	}
	if !strings.Contains(err.Error(), "atenciones_tipo_atencion_id_fkey") {
		t.Errorf("expected constraint name in message, got %v", err)
	}
}

func TestFactory_Create_StoreError(t *testing.T) {
	repo := newMockRepo()
	cause := errors.New("connection reset")
	repo.createErr = cause

	_, err := NewFactory(repo).Create(context.Background(), validInput())
	if !errors.Is(err, ErrEncounterCreationFailed) || !errors.Is(err, cause) {
		t.Errorf("expected both sentinel and cause, got %v", err)
	}
	if len(repo.encounters) != 0 {
		t.Error("no encounter should be stored")
	}
}

func TestService_ListOrphans(t *testing.T) {
	repo := newMockRepo()
	f := NewFactory(repo)
	a, _ := f.Create(context.Background(), validInput())
	b, _ := f.Create(context.Background(), validInput())
	repo.withForm[a.ID] = true

	orphans, err := NewService(repo).ListOrphans(context.Background(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(orphans) != 1 || orphans[0].ID != b.ID {
		t.Errorf("expected only %s, got %+v", b.ID, orphans)
	}
}

func TestHandler_Get(t *testing.T) {
	repo := newMockRepo()
	enc, _ := NewFactory(repo).Create(context.Background(), validInput())
	h := NewHandler(NewService(repo))
	e := echo.New()

	tests := []struct {
		name string
		id   string
		code int
	}{
		{"found", enc.ID.String(), http.StatusOK},
		{"missing", uuid.NewString(), http.StatusNotFound},
		{"invalid", "x", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
			c.SetParamNames("id")
			c.SetParamValues(tt.id)

			err := h.Get(c)
			code := rec.Code
			if he, ok := err.(*echo.HTTPError); ok {
				code = he.Code
			}
			if code != tt.code {
				t.Errorf("expected %d, got %d", tt.code, code)
			}
		})
	}
}

func TestHandler_ListBySubject(t *testing.T) {
	repo := newMockRepo()
	f := NewFactory(repo)
	in := validInput()
	f.Create(context.Background(), in)
	f.Create(context.Background(), in)
	f.Create(context.Background(), validInput())

	h := NewHandler(NewService(repo))
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues(in.SubjectID.String())

	if err := h.ListBySubject(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"total":2`) {
		t.Errorf("expected two encounters for subject, got %s", rec.Body.String())
	}
}
