// Package schema provides declarative field schemas for validating data at
// the generation boundary. A schema is an explicit list of field
// descriptions — name, type, required flag, numeric range — interpreted by a
// small validation pass. No reflection, no struct tags.
package schema

import (
	"fmt"
	"math"
)

// FieldType is the declared type of a schema field.
type FieldType string

const (
	Number FieldType = "number"
	String FieldType = "string"
)

// Field describes one field of a structured output.
type Field struct {
	Name     string
	Type     FieldType
	Required bool

	// Min/Max bound numeric fields inclusively. Nil means unbounded.
	Min *float64
	Max *float64
}

// Schema describes an expected payload shape. Either Text is true (the
// payload is a plain non-empty string) or Fields lists the structured
// field set in declaration order.
type Schema struct {
	Name   string
	Text   bool
	Fields []Field
}

// PlainText returns a schema accepting any non-empty string.
func PlainText(name string) *Schema {
	return &Schema{Name: name, Text: true}
}

// Object returns a structured schema over the given fields.
func Object(name string, fields ...Field) *Schema {
	return &Schema{Name: name, Fields: fields}
}

// Score returns a required number field bounded to [0,100].
func Score(name string) Field {
	return Ranged(name, 0, 100)
}

// Ranged returns a required number field bounded to [min,max].
func Ranged(name string, min, max float64) Field {
	return Field{Name: name, Type: Number, Required: true, Min: &min, Max: &max}
}

// Str returns a required non-empty string field.
func Str(name string) Field {
	return Field{Name: name, Type: String, Required: true}
}

// Validate checks a decoded payload against the schema. It returns nil only
// when every required field is present, correctly typed, and within range.
// The first violation found is reported; nothing is coerced or defaulted.
func (s *Schema) Validate(payload map[string]any) error {
	if s.Text {
		return fmt.Errorf("schema %s: plain-text schema cannot validate structured payload", s.Name)
	}

	for _, f := range s.Fields {
		raw, ok := payload[f.Name]
		if !ok || raw == nil {
			if f.Required {
				return fmt.Errorf("schema %s: missing required field %q", s.Name, f.Name)
			}
			continue
		}

		switch f.Type {
		case Number:
			n, ok := asNumber(raw)
			if !ok {
				return fmt.Errorf("schema %s: field %q is not a number (got %T)", s.Name, f.Name, raw)
			}
			if math.IsNaN(n) || math.IsInf(n, 0) {
				return fmt.Errorf("schema %s: field %q is not a finite number", s.Name, f.Name)
			}
			if f.Min != nil && n < *f.Min {
				return fmt.Errorf("schema %s: field %q = %v below minimum %v", s.Name, f.Name, n, *f.Min)
			}
			if f.Max != nil && n > *f.Max {
				return fmt.Errorf("schema %s: field %q = %v above maximum %v", s.Name, f.Name, n, *f.Max)
			}

		case String:
			str, ok := raw.(string)
			if !ok {
				return fmt.Errorf("schema %s: field %q is not a string (got %T)", s.Name, f.Name, raw)
			}
			if f.Required && str == "" {
				return fmt.Errorf("schema %s: required string field %q is empty", s.Name, f.Name)
			}

		default:
			return fmt.Errorf("schema %s: field %q has unknown type %q", s.Name, f.Name, f.Type)
		}
	}

	return nil
}

// NumberAt extracts a validated numeric field from a payload. It assumes
// Validate has already passed; absent or mistyped fields return 0.
func NumberAt(payload map[string]any, name string) float64 {
	n, _ := asNumber(payload[name])
	return n
}

// StringAt extracts a validated string field from a payload.
func StringAt(payload map[string]any, name string) string {
	s, _ := payload[name].(string)
	return s
}

// asNumber accepts the numeric shapes json.Unmarshal may produce.
func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
