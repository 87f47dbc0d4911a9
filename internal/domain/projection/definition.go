package projection

import "github.com/google/uuid"

// Kind is the column type a payload value is coerced to.
type Kind string

const (
	KindText Kind = "text"
	KindBool Kind = "bool"
	KindInt  Kind = "int"
	KindDate Kind = "date"
)

// Column maps a dotted payload path such as "familia.situacion" to a
// column of the typed table.
type Column struct {
	Name string
	Path string
	Kind Kind
}

// Definition describes the typed table for one form type. Routine, when
// set, names a stored function taking the three ids followed by Columns in
// order.
type Definition struct {
	FormType string
	Table    string
	Routine  string
	Columns  []Column
}

// IDs links a projected row back to its canonical records.
type IDs struct {
	SubmissionID uuid.UUID
	EncounterID  uuid.UUID
	SubjectID    uuid.UUID
}

// Row is a flattened payload ready for a strategy.
type Row struct {
	IDs
	Values map[string]any
}

// Args returns the ids followed by the column values in definition order.
func (r Row) Args(def Definition) []any {
	args := []any{r.SubmissionID, r.EncounterID, r.SubjectID}
	for _, col := range def.Columns {
		args = append(args, r.Values[col.Name])
	}
	return args
}

// DefaultDefinitions returns the typed tables shipped with the schema.
func DefaultDefinitions() []Definition {
	return []Definition{
		{
			FormType: "ficha_social",
			Table:    "fichas_sociales",
			Routine:  "registrar_ficha_social",
			Columns: []Column{
				{Name: "situacion_familiar", Path: "familia.situacion", Kind: KindText},
				{Name: "tipo_vivienda", Path: "vivienda.tipo", Kind: KindText},
				{Name: "escolaridad", Path: "educacion.escolaridad", Kind: KindText},
				{Name: "ingreso_familiar", Path: "familia.ingreso_mensual", Kind: KindInt},
				{Name: "red_apoyo", Path: "familia.red_apoyo", Kind: KindBool},
				{Name: "fecha_entrevista", Path: "fecha_entrevista", Kind: KindDate},
			},
		},
		{
			FormType: "evaluacion_psicologica",
			Table:    "evaluaciones_psicologicas",
			Columns: []Column{
				{Name: "motivo_consulta", Path: "motivo_consulta", Kind: KindText},
				{Name: "diagnostico", Path: "diagnostico", Kind: KindText},
				{Name: "riesgo_suicida", Path: "riesgo.suicida", Kind: KindBool},
				{Name: "recomendaciones", Path: "recomendaciones", Kind: KindText},
				{Name: "fecha_evaluacion", Path: "fecha_evaluacion", Kind: KindDate},
			},
		},
		{
			FormType: "informe_seguridad",
			Table:    "incidentes_seguridad",
			Columns: []Column{
				{Name: "tipo_incidente", Path: "tipo_incidente", Kind: KindText},
				{Name: "lugar", Path: "lugar", Kind: KindText},
				{Name: "descripcion", Path: "descripcion", Kind: KindText},
				{Name: "medidas_adoptadas", Path: "medidas_adoptadas", Kind: KindText},
				{Name: "uso_fuerza", Path: "uso_fuerza", Kind: KindBool},
				{Name: "fecha_incidente", Path: "fecha_incidente", Kind: KindDate},
			},
		},
	}
}
