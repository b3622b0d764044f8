package reading

import (
	"encoding/json"
	"math"
)

// Payload is one temperature reading as it goes on the wire.
//
// Payloads are built only through Schema.NewPayload, so a Payload value
// always satisfies the schema it was built with.
type Payload struct {
	TemperatureID string  `json:"temperatureId"`
	Value         float64 `json:"value"`
}

// NewPayload validates id and value and builds a payload.
//
// The identifier is checked first so a bad id fails before anything else
// happens. The value must be numeric (any Go integer or float kind, or a
// json.Number) and finite; it is rounded to one decimal place. The
// assembled fields are then validated once more as a whole.
func (s *Schema) NewPayload(id string, value any) (Payload, error) {
	if err := s.CheckID(id); err != nil {
		return Payload{}, err
	}

	v, err := toFloat(value)
	if err != nil {
		return Payload{}, &TypeError{Field: FieldValue, Value: value}
	}

	p := Payload{TemperatureID: id, Value: Round(v)}
	if err := s.CheckFields(p.Fields()); err != nil {
		return Payload{}, err
	}

	return p, nil
}

// Fields returns the payload as a field map keyed by wire names.
func (p Payload) Fields() map[string]any {
	return map[string]any{
		FieldTemperatureID: p.TemperatureID,
		FieldValue:         p.Value,
	}
}

// Encode returns the JSON wire form of the payload.
func (p Payload) Encode() ([]byte, error) {
	return json.Marshal(p)
}

// Round rounds v to one decimal place, halves away from zero.
func Round(v float64) float64 {
	return math.Round(v*10) / 10
}

// toFloat converts any numeric kind to float64 and rejects everything else,
// including NaN and infinities which have no JSON representation.
func toFloat(value any) (float64, error) {
	var f float64
	switch v := value.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int8:
		f = float64(v)
	case int16:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case uint:
		f = float64(v)
	case uint8:
		f = float64(v)
	case uint16:
		f = float64(v)
	case uint32:
		f = float64(v)
	case uint64:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, ErrInvalidType
		}
		f = parsed
	default:
		return 0, ErrInvalidType
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, ErrInvalidType
	}
	return f, nil
}
