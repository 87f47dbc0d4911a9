package subject

import (
	"time"

	"github.com/google/uuid"
)

// Subject maps to the jovenes table, joined with the facility name.
type Subject struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	FirstNames   string     `db:"nombres" json:"first_names"`
	LastNames    string     `db:"apellidos" json:"last_names"`
	BirthDate    *time.Time `db:"fecha_nacimiento" json:"birth_date,omitempty"`
	FacilityID   *uuid.UUID `db:"centro_id" json:"facility_id,omitempty"`
	FacilityName *string    `db:"centro_nombre" json:"facility_name,omitempty"`
	CaseNumber   *string    `db:"numero_causa" json:"case_number,omitempty"`
	FileNumber   *string    `db:"numero_expediente" json:"file_number,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// FullName returns names followed by surnames.
func (s *Subject) FullName() string {
	if s.LastNames == "" {
		return s.FirstNames
	}
	return s.FirstNames + " " + s.LastNames
}

// Age returns completed years at now, or nil when the birth date is unknown.
func (s *Subject) Age(now time.Time) *int {
	if s.BirthDate == nil {
		return nil
	}
	b := s.BirthDate.UTC()
	n := now.UTC()
	years := n.Year() - b.Year()
	if n.Month() < b.Month() || (n.Month() == b.Month() && n.Day() < b.Day()) {
		years--
	}
	if years < 0 {
		years = 0
	}
	return &years
}

// View is the JSON shape returned by the API, with the derived age.
type View struct {
	*Subject
	FullName string `json:"full_name"`
	Age      *int   `json:"age,omitempty"`
}

func (s *Subject) View(now time.Time) View {
	return View{Subject: s, FullName: s.FullName(), Age: s.Age(now)}
}
