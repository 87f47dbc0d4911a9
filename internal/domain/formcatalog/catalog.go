package formcatalog

import (
	"sort"
	"strings"
	"time"

	"github.com/expedientes/expedientes/internal/domain/professional"
)

// Form describes one fillable form type and how its submissions are
// recorded as encounters.
type Form struct {
	Type  string            `json:"type"`
	Title string            `json:"title"`
	Role  professional.Role `json:"role"`
	// DateField names the payload field holding the occurrence date.
	DateField string `json:"date_field,omitempty"`
	// ReasonField names the payload field used as the encounter reason.
	// The title is used when it is absent or empty.
	ReasonField string `json:"reason_field,omitempty"`
	NotesField  string `json:"notes_field,omitempty"`
	// SeedClassification lets the pipeline create a catalog entry for Role
	// when none exists at all.
	SeedClassification bool `json:"seed_classification"`
}

type Catalog struct {
	forms map[string]Form
}

func New(forms ...Form) *Catalog {
	c := &Catalog{forms: make(map[string]Form, len(forms))}
	for _, f := range forms {
		c.forms[f.Type] = f
	}
	return c
}

// Default returns the forms used by the facility teams.
func Default() *Catalog {
	return New(
		Form{Type: "ficha_ingreso_legal", Title: "Ficha de ingreso legal", Role: professional.RoleLawyer,
			DateField: "fecha_ingreso", NotesField: "observaciones"},
		Form{Type: "informe_juridico", Title: "Informe jurídico", Role: professional.RoleLawyer,
			DateField: "fecha_informe", ReasonField: "materia", NotesField: "observaciones"},
		Form{Type: "ficha_medica_ingreso", Title: "Ficha médica de ingreso", Role: professional.RolePhysician,
			DateField: "fecha_evaluacion", NotesField: "observaciones"},
		Form{Type: "control_medico", Title: "Control médico", Role: professional.RolePhysician,
			DateField: "fecha_control", ReasonField: "motivo_consulta", NotesField: "indicaciones"},
		Form{Type: "evaluacion_psicologica", Title: "Evaluación psicológica", Role: professional.RolePsychologist,
			DateField: "fecha_evaluacion", ReasonField: "motivo_consulta", NotesField: "recomendaciones"},
		Form{Type: "ficha_social", Title: "Ficha social", Role: professional.RoleSocialWorker,
			DateField: "fecha_entrevista", NotesField: "observaciones"},
		Form{Type: "informe_seguridad", Title: "Informe de seguridad", Role: professional.RoleSecurity,
			DateField: "fecha_incidente", ReasonField: "tipo_incidente", NotesField: "medidas_adoptadas",
			SeedClassification: true},
		Form{Type: "plan_pedagogico", Title: "Plan pedagógico", Role: professional.RolePedagogue,
			DateField: "fecha_plan", NotesField: "observaciones"},
		Form{Type: "registro_visita", Title: "Registro de visita", Role: professional.RoleSecurity,
			DateField: "fecha_visita", ReasonField: "tipo_visita", NotesField: "observaciones"},
	)
}

func (c *Catalog) Lookup(formType string) (Form, bool) {
	f, ok := c.forms[formType]
	return f, ok
}

// List returns forms ordered by type, optionally restricted to role.
func (c *Catalog) List(role professional.Role) []Form {
	out := make([]Form, 0, len(c.forms))
	for _, f := range c.forms {
		if role != "" && f.Role != role {
			continue
		}
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

var dateLayouts = []string{"2006-01-02", "2006-01-02T15:04", time.RFC3339}

// OccurredAt reads the form's date field from payload. Values without a
// zone are facility wall-clock time in loc (UTC when nil). Absent or
// unparsable values yield now.
func OccurredAt(f Form, payload map[string]any, now time.Time, loc *time.Location) time.Time {
	s := stringField(payload, f.DateField)
	if s == "" {
		return now
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t
		}
	}
	return now
}

// Reason returns the encounter reason for a submission.
func Reason(f Form, payload map[string]any) string {
	if s := stringField(payload, f.ReasonField); s != "" {
		return s
	}
	return f.Title
}

func Notes(f Form, payload map[string]any) *string {
	if s := stringField(payload, f.NotesField); s != "" {
		return &s
	}
	return nil
}

func stringField(payload map[string]any, field string) string {
	if field == "" {
		return ""
	}
	s, _ := payload[field].(string)
	return strings.TrimSpace(s)
}
