package projection

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var dateLayouts = []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04", "02-01-2006", "02/01/2006"}

// Flatten extracts every column of def from payload. Missing or
// unconvertible values become nil; the canonical payload is untouched.
func Flatten(def Definition, ids IDs, payload map[string]any) Row {
	values := make(map[string]any, len(def.Columns))
	for _, col := range def.Columns {
		v, ok := lookup(payload, col.Path)
		if !ok {
			values[col.Name] = nil
			continue
		}
		values[col.Name] = coerce(col.Kind, v)
	}
	return Row{IDs: ids, Values: values}
}

func lookup(payload map[string]any, path string) (any, bool) {
	var cur any = payload
	for _, key := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[key]; !ok {
			return nil, false
		}
	}
	return cur, true
}

func coerce(kind Kind, v any) any {
	if v == nil {
		return nil
	}
	switch kind {
	case KindText:
		return asText(v)
	case KindBool:
		return asBool(v)
	case KindInt:
		return asInt(v)
	case KindDate:
		return asDate(v)
	}
	return nil
}

func asText(v any) any {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case bool, float64, int, int64:
		return fmt.Sprint(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return nil
		}
		return string(b)
	}
}

func asBool(v any) any {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "si", "sí", "1", "yes":
			return true
		case "false", "no", "0":
			return false
		}
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n != 0
		}
	case float64:
		return t != 0
	}
	return nil
}

// asInt targets INTEGER columns; values outside int32 become NULL.
func asInt(v any) any {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return inInt32(n)
		}
		if f, err := t.Float64(); err == nil {
			return roundInt32(f)
		}
	case float64:
		return roundInt32(t)
	case int:
		return inInt32(int64(t))
	case int64:
		return inInt32(t)
	case string:
		s := strings.TrimSpace(t)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return inInt32(n)
		}
	}
	return nil
}

func inInt32(n int64) any {
	if n < math.MinInt32 || n > math.MaxInt32 {
		return nil
	}
	return n
}

func roundInt32(f float64) any {
	r := math.Round(f)
	if math.IsNaN(r) || r < math.MinInt32 || r > math.MaxInt32 {
		return nil
	}
	return int64(r)
}

func asDate(v any) any {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		}
	}
	return nil
}
