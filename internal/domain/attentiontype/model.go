package attentiontype

import (
	"time"

	"github.com/google/uuid"
)

// AttentionType maps to the tipos_atencion catalog.
type AttentionType struct {
	ID              uuid.UUID `db:"id" json:"id"`
	Name            string    `db:"nombre" json:"name"`
	Description     *string   `db:"descripcion" json:"description,omitempty"`
	ResponsibleRole string    `db:"rol_responsable" json:"responsible_role"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

var defaultNames = map[string]string{
	"admin":             "Atención administrativa",
	"pedagogo":          "Atención pedagógica",
	"abogado":           "Atención jurídica",
	"medico":            "Atención médica",
	"psicologo":         "Atención psicológica",
	"trabajador_social": "Atención social",
	"seguridad":         "Registro de seguridad",
}

// DefaultName is the catalog name used when a row is seeded for role.
func DefaultName(role string) string {
	if n, ok := defaultNames[role]; ok {
		return n
	}
	return "Atención " + role
}
