package reading

import (
	"errors"
	"regexp"
	"testing"
)

func TestNewID_MatchesSchema(t *testing.T) {
	schema := DefaultSchema()
	hex := regexp.MustCompile(`^temp-[0-9a-f]{5}$`)

	for i := 0; i < 500; i++ {
		id := NewID()
		if !hex.MatchString(id) {
			t.Fatalf("NewID() = %q, want temp- followed by 5 lowercase hex digits", id)
		}
		if err := schema.CheckID(id); err != nil {
			t.Fatalf("CheckID(%q) error = %v", id, err)
		}
	}
}

func TestSchema_CheckID(t *testing.T) {
	schema := DefaultSchema()

	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{name: "lowercase", id: "temp-abcde"},
		{name: "mixed case and digits", id: "temp-A1b2C"},
		{name: "too short", id: "temp-123", wantErr: true},
		{name: "too long", id: "temp-123456", wantErr: true},
		{name: "uppercase prefix", id: "TEMP-abcde", wantErr: true},
		{name: "trailing symbol", id: "temp-abcde!", wantErr: true},
		{name: "symbol inside", id: "temp-ab_de", wantErr: true},
		{name: "empty", id: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := schema.CheckID(tt.id)
			if !tt.wantErr {
				if err != nil {
					t.Errorf("CheckID(%q) error = %v, want nil", tt.id, err)
				}
				return
			}

			var formatErr *FormatError
			if !errors.As(err, &formatErr) {
				t.Fatalf("CheckID(%q) error = %v, want *FormatError", tt.id, err)
			}
			if formatErr.ID != tt.id {
				t.Errorf("FormatError.ID = %q, want %q", formatErr.ID, tt.id)
			}
			if !errors.Is(err, ErrInvalidFormat) {
				t.Error("FormatError should wrap ErrInvalidFormat")
			}
		})
	}
}

func TestSchema_CheckFields(t *testing.T) {
	schema := DefaultSchema()

	t.Run("missing value is named", func(t *testing.T) {
		err := schema.CheckFields(map[string]any{"temperatureId": "temp-abcde"})

		var schemaErr *SchemaError
		if !errors.As(err, &schemaErr) {
			t.Fatalf("CheckFields() error = %v, want *SchemaError", err)
		}
		if len(schemaErr.Missing) != 1 || schemaErr.Missing[0] != "value" {
			t.Errorf("Missing = %v, want [value]", schemaErr.Missing)
		}
		if !errors.Is(err, ErrMissingFields) {
			t.Error("SchemaError should wrap ErrMissingFields")
		}
	})

	t.Run("every missing field is listed", func(t *testing.T) {
		err := schema.CheckFields(map[string]any{})

		var schemaErr *SchemaError
		if !errors.As(err, &schemaErr) {
			t.Fatalf("CheckFields() error = %v, want *SchemaError", err)
		}
		if len(schemaErr.Missing) != 2 {
			t.Errorf("Missing = %v, want both required fields", schemaErr.Missing)
		}
	})

	t.Run("bad identifier in map", func(t *testing.T) {
		err := schema.CheckFields(map[string]any{"temperatureId": "temp-1", "value": 20.0})
		if !errors.Is(err, ErrInvalidFormat) {
			t.Errorf("CheckFields() error = %v, want ErrInvalidFormat", err)
		}
	})

	t.Run("non-string identifier", func(t *testing.T) {
		err := schema.CheckFields(map[string]any{"temperatureId": 42, "value": 20.0})
		if !errors.Is(err, ErrInvalidType) {
			t.Errorf("CheckFields() error = %v, want ErrInvalidType", err)
		}
	})

	t.Run("non-numeric value", func(t *testing.T) {
		err := schema.CheckFields(map[string]any{"temperatureId": "temp-abcde", "value": "hot"})
		if !errors.Is(err, ErrInvalidType) {
			t.Errorf("CheckFields() error = %v, want ErrInvalidType", err)
		}
	})

	t.Run("valid map", func(t *testing.T) {
		err := schema.CheckFields(map[string]any{"temperatureId": "temp-abcde", "value": 21})
		if err != nil {
			t.Errorf("CheckFields() error = %v, want nil", err)
		}
	})
}

func TestNewSchema(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		schema, err := NewSchema("", nil)
		if err != nil {
			t.Fatalf("NewSchema() error = %v", err)
		}
		if schema.Pattern() != DefaultIDPattern {
			t.Errorf("Pattern() = %q, want %q", schema.Pattern(), DefaultIDPattern)
		}
		required := schema.Required()
		if len(required) != 2 || required[0] != FieldTemperatureID || required[1] != FieldValue {
			t.Errorf("Required() = %v, want [temperatureId value]", required)
		}
	})

	t.Run("duplicates collapse", func(t *testing.T) {
		schema, err := NewSchema(DefaultIDPattern, []string{"value", " value ", "temperatureId"})
		if err != nil {
			t.Fatalf("NewSchema() error = %v", err)
		}
		if got := schema.Required(); len(got) != 2 {
			t.Errorf("Required() = %v, want 2 unique names", got)
		}
	})

	t.Run("bad pattern", func(t *testing.T) {
		_, err := NewSchema("^temp-[", nil)
		if !errors.Is(err, ErrInvalidSchema) {
			t.Errorf("NewSchema() error = %v, want ErrInvalidSchema", err)
		}
	})

	t.Run("blank field name", func(t *testing.T) {
		_, err := NewSchema("", []string{"value", "  "})
		if !errors.Is(err, ErrInvalidSchema) {
			t.Errorf("NewSchema() error = %v, want ErrInvalidSchema", err)
		}
	})

	t.Run("required copy is detached", func(t *testing.T) {
		schema := DefaultSchema()
		got := schema.Required()
		got[0] = "mutated"
		if schema.Required()[0] != FieldTemperatureID {
			t.Error("Required() must return a copy")
		}
	})
}

func TestSchema_ExtraRequiredField(t *testing.T) {
	schema, err := NewSchema(DefaultIDPattern, []string{FieldTemperatureID, FieldValue, "unit"})
	if err != nil {
		t.Fatalf("NewSchema() error = %v", err)
	}

	_, err = schema.NewPayload("temp-abcde", 21.0)

	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("NewPayload() error = %v, want *SchemaError", err)
	}
	if len(schemaErr.Missing) != 1 || schemaErr.Missing[0] != "unit" {
		t.Errorf("Missing = %v, want [unit]", schemaErr.Missing)
	}
}
