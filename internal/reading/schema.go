package reading

import (
	"fmt"
	"regexp"
	"strings"
)

// Field names of the wire payload.
const (
	FieldTemperatureID = "temperatureId"
	FieldValue         = "value"
)

// DefaultIDPattern is the identifier pattern of the temperature message schema.
const DefaultIDPattern = `^temp-[a-zA-Z0-9]{5}$`

// defaultRequired is used when the schema does not name its required fields.
var defaultRequired = []string{FieldTemperatureID, FieldValue}

// Schema validates payloads against an identifier pattern and a set of
// required fields. A Schema is immutable and safe for concurrent use.
type Schema struct {
	pattern  *regexp.Regexp
	required []string
}

// NewSchema compiles pattern and records the required field names.
// An empty pattern selects DefaultIDPattern; an empty required list
// selects temperatureId and value.
func NewSchema(pattern string, required []string) (*Schema, error) {
	if pattern == "" {
		pattern = DefaultIDPattern
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: id pattern %q: %w", ErrInvalidSchema, pattern, err)
	}

	if len(required) == 0 {
		required = defaultRequired
	}
	fields := make([]string, 0, len(required))
	seen := make(map[string]struct{}, len(required))
	for _, name := range required {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("%w: empty required field name", ErrInvalidSchema)
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		fields = append(fields, name)
	}

	return &Schema{pattern: re, required: fields}, nil
}

// DefaultSchema returns the schema of the temperature/changed message.
func DefaultSchema() *Schema {
	s, err := NewSchema(DefaultIDPattern, nil)
	if err != nil {
		panic(err) // constant pattern
	}
	return s
}

// Pattern returns the source of the identifier pattern.
func (s *Schema) Pattern() string {
	return s.pattern.String()
}

// Required returns a copy of the required field names.
func (s *Schema) Required() []string {
	out := make([]string, len(s.required))
	copy(out, s.required)
	return out
}

// CheckID reports whether id matches the identifier pattern.
func (s *Schema) CheckID(id string) error {
	if !s.pattern.MatchString(id) {
		return &FormatError{ID: id, Pattern: s.pattern.String()}
	}
	return nil
}

// CheckFields validates an assembled payload map.
//
// Missing required fields are reported first, all of them in one
// SchemaError. Present fields are then checked: the identifier against the
// pattern and the value for a finite number.
func (s *Schema) CheckFields(fields map[string]any) error {
	var missing []string
	for _, name := range s.required {
		if _, ok := fields[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return &SchemaError{Missing: missing}
	}

	if raw, ok := fields[FieldTemperatureID]; ok {
		id, isString := raw.(string)
		if !isString {
			return &TypeError{Field: FieldTemperatureID, Value: raw}
		}
		if err := s.CheckID(id); err != nil {
			return err
		}
	}

	if raw, ok := fields[FieldValue]; ok {
		if _, err := toFloat(raw); err != nil {
			return &TypeError{Field: FieldValue, Value: raw}
		}
	}

	return nil
}
