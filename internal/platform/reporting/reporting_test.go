package reporting

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/xuri/excelize/v2"

	"github.com/expedientes/expedientes/internal/domain/formcatalog"
)

type fakeSource struct {
	cols []string
	rows [][]any
	err  error

	sql  string
	args []any
}

func (f *fakeSource) Query(_ context.Context, sql string, args ...any) ([]string, [][]any, error) {
	f.sql, f.args = sql, args
	return f.cols, f.rows, f.err
}

func TestPredefinedMeasures_UniqueIDs(t *testing.T) {
	seen := map[string]bool{}
	for _, m := range PredefinedMeasures {
		if seen[m.ID] {
			t.Errorf("duplicate measure id %s", m.ID)
		}
		seen[m.ID] = true
		if m.SQL == "" || m.Name == "" {
			t.Errorf("measure %s is incomplete", m.ID)
		}
	}
	for _, id := range []string{"encounters-by-classification", "submissions-by-form-type", "orphan-encounters", "classification-fallback-candidates"} {
		if FindMeasure(id) == nil {
			t.Errorf("missing measure %s", id)
		}
	}
	if FindMeasure("nope") != nil {
		t.Error("unknown id must return nil")
	}
}

func TestRunner_BindsParametersInOrder(t *testing.T) {
	src := &fakeSource{cols: []string{"tipo_formulario", "total"}, rows: [][]any{{"ficha_social", int64(3)}}}
	r := NewRunner(src, nil)

	report, err := r.Evaluate(context.Background(), "submissions-by-form-type", map[string]string{"since": "2026-01-01", "ignored": "x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(src.args) != 1 || src.args[0] != "2026-01-01" {
		t.Errorf("unexpected args %v", src.args)
	}
	if report.Parameters["since"] != "2026-01-01" || len(report.Parameters) != 1 {
		t.Errorf("unexpected parameters %v", report.Parameters)
	}
	if len(report.Results) != 1 || report.Results[0]["total"] != int64(3) {
		t.Errorf("unexpected results %v", report.Results)
	}

	if _, err := r.Evaluate(context.Background(), "submissions-by-form-type", nil); err != nil {
		t.Fatal(err)
	}
	if len(src.args) != 1 || src.args[0] != nil {
		t.Errorf("absent parameter must bind NULL, got %v", src.args)
	}
}

func TestRunner_BindsFormRoles(t *testing.T) {
	src := &fakeSource{}
	r := NewRunner(src, formcatalog.Default().List(""))

	if _, err := r.Evaluate(context.Background(), "classification-fallback-candidates", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(src.args) != 2 {
		t.Fatalf("expected two array args, got %d", len(src.args))
	}
	types, _ := src.args[0].([]string)
	roles, _ := src.args[1].([]string)
	if len(types) == 0 || len(types) != len(roles) {
		t.Fatalf("expected parallel arrays, got %v / %v", types, roles)
	}
	for i, ft := range types {
		if ft == "ficha_social" && roles[i] != "trabajador_social" {
			t.Errorf("ficha_social bound to role %s", roles[i])
		}
	}
}

func TestRunner_Errors(t *testing.T) {
	r := NewRunner(&fakeSource{err: errors.New("relation does not exist")}, nil)
	if _, err := r.Evaluate(context.Background(), "missing", nil); !errors.Is(err, ErrUnknownMeasure) {
		t.Errorf("expected ErrUnknownMeasure, got %v", err)
	}
	if _, err := r.Evaluate(context.Background(), "orphan-encounters", nil); err == nil || errors.Is(err, ErrUnknownMeasure) {
		t.Errorf("expected query error, got %v", err)
	}
}

func TestWriteXLSX(t *testing.T) {
	occurred := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	report := &Report{
		MeasureID: "orphan-encounters",
		Columns:   []string{"atencion_id", "joven", "fecha_atencion", "motivo"},
		Results: []map[string]any{
			{"atencion_id": "7d7c0a52-7f0e-4a59-9d53-2c5f2f3f6a10", "joven": "Juan Pérez", "fecha_atencion": occurred, "motivo": "Ficha social"},
			{"atencion_id": "a0c1e6f4-3b61-4d8b-8c4a-6b1c9f0e2d77", "joven": "María Soto", "fecha_atencion": occurred, "motivo": nil},
		},
	}

	var buf bytes.Buffer
	if err := WriteXLSX(&buf, report); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	if sheets := f.GetSheetList(); len(sheets) != 1 || sheets[0] != "orphan-encounters" {
		t.Fatalf("unexpected sheets %v", sheets)
	}
	rows, err := f.GetRows("orphan-encounters")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(rows))
	}
	if strings.Join(rows[0], ",") != "atencion_id,joven,fecha_atencion,motivo" {
		t.Errorf("unexpected header %v", rows[0])
	}
	if rows[1][1] != "Juan Pérez" || rows[1][3] != "Ficha social" {
		t.Errorf("unexpected first row %v", rows[1])
	}
}

func TestWriteXLSX_TruncatesSheetName(t *testing.T) {
	report := &Report{MeasureID: "classification-fallback-candidates", Columns: []string{"total"}}
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, report); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if name := f.GetSheetList()[0]; len(name) > maxSheetName {
		t.Errorf("sheet name too long: %s", name)
	}
}

func TestHandler_Evaluate(t *testing.T) {
	src := &fakeSource{cols: []string{"tipo_atencion", "total"}, rows: [][]any{{"Atención social", int64(4)}}}
	h := NewHandler(NewRunner(src, nil))
	e := echo.New()

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/?since=2026-02-01", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues("encounters-by-classification")
	if err := h.EvaluateMeasure(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"total":4`) {
		t.Errorf("unexpected body %s", rec.Body.String())
	}

	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("unknown")
	err := h.EvaluateMeasure(c)
	if he, ok := err.(*echo.HTTPError); !ok || he.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %v", err)
	}
}

func TestHandler_Export(t *testing.T) {
	src := &fakeSource{cols: []string{"tipo_formulario", "total"}, rows: [][]any{{"control_medico", int64(2)}}}
	h := NewHandler(NewRunner(src, nil))
	e := echo.New()

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues("submissions-by-form-type")
	if err := h.ExportMeasure(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Header().Get(echo.HeaderContentDisposition), "submissions-by-form-type.xlsx") {
		t.Errorf("unexpected disposition %q", rec.Header().Get(echo.HeaderContentDisposition))
	}
	if _, err := excelize.OpenReader(rec.Body); err != nil {
		t.Errorf("response is not a workbook: %v", err)
	}
}
