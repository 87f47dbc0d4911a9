package formsubmission

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// Payload is the complete form state exactly as the client sent it.
type Payload map[string]any

// Submission maps to the formularios table, one row per accepted form.
type Submission struct {
	ID          uuid.UUID `db:"id" json:"id"`
	FormType    string    `db:"tipo_formulario" json:"form_type"`
	SubjectID   uuid.UUID `db:"joven_id" json:"subject_id"`
	EncounterID uuid.UUID `db:"atencion_id" json:"encounter_id"`
	Payload     Payload   `db:"datos" json:"data"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

type NewSubmission struct {
	FormType    string
	SubjectID   uuid.UUID
	EncounterID uuid.UUID
	Payload     Payload
}

var ErrTrailingData = errors.New("trailing data after JSON value")

// DecodeStrict reads exactly one JSON value into v. Numbers stay
// json.Number and anything but whitespace after the value is rejected.
func DecodeStrict(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return ErrTrailingData
	}
	return nil
}

// DecodePayload reads a single JSON object. Numbers are kept as
// json.Number so large integers and decimals are not rounded.
func DecodePayload(r io.Reader) (Payload, error) {
	var p Payload
	if err := DecodeStrict(r, &p); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	if p == nil {
		return nil, errors.New("decode payload: expected a JSON object")
	}
	return p, nil
}

// UnmarshalJSON decodes with UseNumber, matching DecodePayload.
func (p *Payload) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return err
	}
	*p = m
	return nil
}
