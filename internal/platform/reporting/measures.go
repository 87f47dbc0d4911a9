package reporting

// Measure is a predefined SQL report. Parameters are bound in order as
// $1..$n after any form-role arrays; an absent value is bound as NULL.
type Measure struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	SQL         string   `json:"-"`
	Parameters  []string `json:"parameters"`
	// FormRoles binds the form-type and role arrays of the form catalog
	// ahead of the declared parameters.
	FormRoles bool `json:"-"`
}

var PredefinedMeasures = []Measure{
	{
		ID:          "encounters-by-classification",
		Name:        "Atenciones por tipo de atención",
		Description: "Number of encounters per attention type, optionally since a date",
		SQL: `SELECT t.nombre AS tipo_atencion, t.rol_responsable, COUNT(a.id) AS total
			FROM tipos_atencion t
			LEFT JOIN atenciones a ON a.tipo_atencion_id = t.id
				AND ($1::date IS NULL OR a.fecha_atencion >= $1::date)
			GROUP BY t.id, t.nombre, t.rol_responsable
			ORDER BY total DESC, t.nombre`,
		Parameters: []string{"since"},
	},
	{
		ID:          "submissions-by-form-type",
		Name:        "Formularios por tipo",
		Description: "Number of form submissions per form type with the latest submission time",
		SQL: `SELECT tipo_formulario, COUNT(*) AS total, MAX(created_at) AS ultimo
			FROM formularios
			WHERE ($1::date IS NULL OR created_at >= $1::date)
			GROUP BY tipo_formulario
			ORDER BY total DESC, tipo_formulario`,
		Parameters: []string{"since"},
	},
	{
		ID:          "orphan-encounters",
		Name:        "Atenciones sin formulario",
		Description: "Encounters left without form content after a failed payload write",
		SQL: `SELECT a.id AS atencion_id, a.joven_id, j.nombres || ' ' || j.apellidos AS joven,
				a.profesional_id, a.fecha_atencion, a.motivo, a.created_at
			FROM atenciones a
			JOIN jovenes j ON j.id = a.joven_id
			LEFT JOIN formularios f ON f.atencion_id = a.id
			WHERE f.id IS NULL
			ORDER BY a.created_at DESC`,
		Parameters: []string{},
	},
	{
		ID:          "classification-fallback-candidates",
		Name:        "Atenciones con clasificación de otro rol",
		Description: "Encounters whose attention type belongs to a different role than the submitted form",
		SQL: `SELECT a.id AS atencion_id, f.tipo_formulario, fr.rol AS rol_formulario,
				t.nombre AS tipo_atencion, t.rol_responsable, a.fecha_atencion
			FROM atenciones a
			JOIN formularios f ON f.atencion_id = a.id
			JOIN tipos_atencion t ON t.id = a.tipo_atencion_id
			JOIN unnest($1::text[], $2::text[]) AS fr(tipo_formulario, rol) ON fr.tipo_formulario = f.tipo_formulario
			WHERE t.rol_responsable <> fr.rol
			ORDER BY a.fecha_atencion DESC`,
		Parameters: []string{},
		FormRoles:  true,
	},
}

// FindMeasure looks up a predefined measure by ID.
func FindMeasure(id string) *Measure {
	for i := range PredefinedMeasures {
		if PredefinedMeasures[i].ID == id {
			return &PredefinedMeasures[i]
		}
	}
	return nil
}
