package professional

import (
	"time"

	"github.com/google/uuid"
)

// Role is the fixed set of staff roles. The string values double as the
// responsible-role tags of the attention-type catalog.
type Role string

const (
	RoleAdmin        Role = "admin"
	RolePedagogue    Role = "pedagogo"
	RoleLawyer       Role = "abogado"
	RolePhysician    Role = "medico"
	RolePsychologist Role = "psicologo"
	RoleSocialWorker Role = "trabajador_social"
	RoleSecurity     Role = "seguridad"
)

// Roles lists every role in display order.
var Roles = []Role{
	RoleAdmin, RolePedagogue, RoleLawyer, RolePhysician,
	RolePsychologist, RoleSocialWorker, RoleSecurity,
}

func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

func (r Role) String() string { return string(r) }

// Professional maps to the perfiles table. ID equals the identity provider's
// subject claim.
type Professional struct {
	ID          uuid.UUID `db:"id" json:"id"`
	DisplayName string    `db:"nombre" json:"display_name"`
	Role        Role      `db:"rol" json:"role"`
	Email       *string   `db:"email" json:"email,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Caller is the authenticated identity handed to the pipeline explicitly.
type Caller struct {
	UserID string
}
