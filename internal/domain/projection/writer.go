package projection

import (
	"context"
	"errors"
	"fmt"
)

var ErrProjectionWriteFailed = errors.New("typed projection write failed")

// Writer fills the typed table for form types that have one. Its output is
// advisory: callers treat failures as warnings.
type Writer struct {
	defs       map[string]Definition
	strategies []Strategy
}

// NewWriter uses the routine strategy then the insert strategy over db.
func NewWriter(db Execer, defs []Definition) *Writer {
	return NewWriterWithStrategies(defs, NewRoutineStrategy(db), NewInsertStrategy(db))
}

func NewWriterWithStrategies(defs []Definition, strategies ...Strategy) *Writer {
	m := make(map[string]Definition, len(defs))
	for _, d := range defs {
		m[d.FormType] = d
	}
	return &Writer{defs: m, strategies: strategies}
}

// Has reports whether formType has a typed table.
func (w *Writer) Has(formType string) bool {
	_, ok := w.defs[formType]
	return ok
}

func (w *Writer) Definition(formType string) (Definition, bool) {
	d, ok := w.defs[formType]
	return d, ok
}

// Write returns false with a nil error when formType has no definition.
// Otherwise strategies run in order until one succeeds.
func (w *Writer) Write(ctx context.Context, formType string, ids IDs, payload map[string]any) (bool, error) {
	def, ok := w.defs[formType]
	if !ok {
		return false, nil
	}
	row := Flatten(def, ids, payload)

	var errs []error
	for _, s := range w.strategies {
		err := s.Write(ctx, def, row)
		if err == nil {
			return true, nil
		}
		if errors.Is(err, ErrNotApplicable) {
			continue
		}
		errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
	}
	if len(errs) == 0 {
		errs = append(errs, errors.New("no applicable strategy"))
	}
	return false, fmt.Errorf("%w for %s: %w", ErrProjectionWriteFailed, formType, errors.Join(errs...))
}
