package submission

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/expedientes/expedientes/internal/domain/attentiontype"
	"github.com/expedientes/expedientes/internal/domain/encounter"
	"github.com/expedientes/expedientes/internal/domain/formcatalog"
	"github.com/expedientes/expedientes/internal/domain/formsubmission"
	"github.com/expedientes/expedientes/internal/domain/professional"
	"github.com/expedientes/expedientes/internal/domain/projection"
	"github.com/expedientes/expedientes/internal/platform/guard"
)

// store is an in-memory stand-in for every table the pipeline touches.
type store struct {
	mu sync.Mutex

	subjects    map[uuid.UUID]bool
	profiles    map[uuid.UUID]*professional.Professional
	types       []*attentiontype.AttentionType
	encounters  []*encounter.Encounter
	submissions []*formsubmission.Submission

	profileErr    error
	subjectErr    error
	encounterErr  error
	submissionErr error

	profileLookups int
}

func newStore() *store {
	return &store{
		subjects: make(map[uuid.UUID]bool),
		profiles: make(map[uuid.UUID]*professional.Professional),
	}
}

func (s *store) addSubject() uuid.UUID {
	id := uuid.New()
	s.subjects[id] = true
	return id
}

func (s *store) addProfile(role professional.Role) *professional.Professional {
	p := &professional.Professional{ID: uuid.New(), DisplayName: "Profesional " + string(role), Role: role}
	s.profiles[p.ID] = p
	return p
}

func (s *store) addType(role string) *attentiontype.AttentionType {
	at := &attentiontype.AttentionType{
		ID:              uuid.New(),
		Name:            attentiontype.DefaultName(role),
		ResponsibleRole: role,
		CreatedAt:       time.Now().Add(time.Duration(len(s.types)) * time.Second),
	}
	s.types = append(s.types, at)
	return at
}

// orphans mirrors the LEFT JOIN used by the reconciliation report.
func (s *store) orphans() []*encounter.Encounter {
	var out []*encounter.Encounter
	for _, e := range s.encounters {
		found := false
		for _, sub := range s.submissions {
			if sub.EncounterID == e.ID {
				found = true
			}
		}
		if !found {
			out = append(out, e)
		}
	}
	return out
}

func (s *store) subjectDir() SubjectDirectory { return (*subjectDir)(s) }

type subjectDir store

func (d *subjectDir) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	if d.subjectErr != nil {
		return false, d.subjectErr
	}
	return d.subjects[id], nil
}

type profileRepo store

func (r *profileRepo) GetByID(_ context.Context, id uuid.UUID) (*professional.Professional, error) {
	r.profileLookups++
	if r.profileErr != nil {
		return nil, r.profileErr
	}
	p, ok := r.profiles[id]
	if !ok {
		return nil, professional.ErrProfileMissing
	}
	return p, nil
}

type typeRepo store

func (r *typeRepo) FindByRole(_ context.Context, role string) (*attentiontype.AttentionType, error) {
	for _, at := range r.types {
		if at.ResponsibleRole == role {
			return at, nil
		}
	}
	return nil, attentiontype.ErrNotFound
}

func (r *typeRepo) First(_ context.Context) (*attentiontype.AttentionType, error) {
	if len(r.types) == 0 {
		return nil, attentiontype.ErrNotFound
	}
	return r.types[0], nil
}

func (r *typeRepo) Create(_ context.Context, at *attentiontype.AttentionType) error {
	at.ID = uuid.New()
	at.CreatedAt = time.Now()
	r.types = append(r.types, at)
	return nil
}

func (r *typeRepo) List(_ context.Context) ([]*attentiontype.AttentionType, error) {
	return r.types, nil
}

type encounterRepo store

func (r *encounterRepo) Create(_ context.Context, e *encounter.Encounter) error {
	if r.encounterErr != nil {
		return r.encounterErr
	}
	if !r.subjects[e.SubjectID] {
		return &pgconn.PgError{Code: "23503", ConstraintName: "atenciones_joven_id_fkey"}
	}
	e.ID = uuid.New()
	e.CreatedAt = time.Now()
	r.mu.Lock()
	r.encounters = append(r.encounters, e)
	r.mu.Unlock()
	return nil
}

func (r *encounterRepo) GetByID(_ context.Context, id uuid.UUID) (*encounter.Encounter, error) {
	for _, e := range r.encounters {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, encounter.ErrNotFound
}

func (r *encounterRepo) ListBySubject(_ context.Context, subjectID uuid.UUID, limit, offset int) ([]*encounter.Encounter, int, error) {
	var out []*encounter.Encounter
	for _, e := range r.encounters {
		if e.SubjectID == subjectID {
			out = append(out, e)
		}
	}
	return out, len(out), nil
}

func (r *encounterRepo) ListOrphans(_ context.Context, limit int) ([]*encounter.Encounter, error) {
	return (*store)(r).orphans(), nil
}

type submissionRepo store

func (r *submissionRepo) Create(_ context.Context, s *formsubmission.Submission) error {
	if r.submissionErr != nil {
		return r.submissionErr
	}
	s.ID = uuid.New()
	s.CreatedAt = time.Now()
	r.mu.Lock()
	r.submissions = append(r.submissions, s)
	r.mu.Unlock()
	return nil
}

func (r *submissionRepo) GetByID(_ context.Context, id uuid.UUID) (*formsubmission.Submission, error) {
	for _, s := range r.submissions {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, formsubmission.ErrNotFound
}

func (r *submissionRepo) GetByEncounter(_ context.Context, encounterID uuid.UUID) (*formsubmission.Submission, error) {
	for _, s := range r.submissions {
		if s.EncounterID == encounterID {
			return s, nil
		}
	}
	return nil, formsubmission.ErrNotFound
}

func (r *submissionRepo) ListBySubject(_ context.Context, subjectID uuid.UUID, formType string, limit, offset int) ([]*formsubmission.Submission, int, error) {
	var out []*formsubmission.Submission
	for _, s := range r.submissions {
		if s.SubjectID == subjectID && (formType == "" || s.FormType == formType) {
			out = append(out, s)
		}
	}
	return out, len(out), nil
}

// projectionDB records projection statements. fail makes every statement error.
type projectionDB struct {
	fail  error
	execs []string
}

func (d *projectionDB) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	d.execs = append(d.execs, sql)
	if d.fail != nil {
		return pgconn.CommandTag{}, d.fail
	}
	return pgconn.NewCommandTag("SELECT 1"), nil
}

type erroringGuard struct{}

func (erroringGuard) Acquire(context.Context, string, time.Duration) (func(), bool, error) {
	return func() {}, false, errors.New("redis: connection refused")
}

type harness struct {
	st    *store
	db    *projectionDB
	guard guard.Guard
	logs  *bytes.Buffer
	orch  *Orchestrator
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{st: newStore(), db: &projectionDB{}, guard: guard.NewMemoryGuard(), logs: &bytes.Buffer{}}
	h.build()
	return h
}

// build wires the real components over the in-memory store.
func (h *harness) build() {
	h.orch = New(Deps{
		Forms:           formcatalog.Default(),
		Subjects:        h.st.subjectDir(),
		Identity:        professional.NewResolver((*profileRepo)(h.st)),
		Classifications: attentiontype.NewResolver((*typeRepo)(h.st)),
		Encounters:      encounter.NewFactory((*encounterRepo)(h.st)),
		Payloads:        formsubmission.NewWriter((*submissionRepo)(h.st)),
		Projections:     projection.NewWriter(h.db, projection.DefaultDefinitions()),
		Guard:           h.guard,
		LockTTL:         time.Minute,
	}, zerolog.New(h.logs))
}

func (h *harness) request(caller *professional.Professional, subjectID uuid.UUID, formType string, payload formsubmission.Payload) Request {
	c := professional.Caller{}
	if caller != nil {
		c.UserID = caller.ID.String()
	}
	return Request{Caller: c, SubjectID: subjectID, FormType: formType, InstanceID: uuid.NewString(), Payload: payload}
}

func (h *harness) logged(s string) bool {
	return strings.Contains(h.logs.String(), s)
}
