// Package reading defines the temperature reading payload and the rules
// a payload must satisfy before it is handed to the transport.
//
// A Schema holds the single compiled identifier pattern and the set of
// required field names. Both validation paths (the early identifier check
// and the check over the assembled field map) go through the same Schema,
// so they can never disagree about what a valid identifier looks like.
//
//	schema := reading.DefaultSchema()
//	payload, err := schema.NewPayload(reading.NewID(), 22.456)
//	// payload.Value == 22.5
//
// Validation failures are typed (FormatError, SchemaError, TypeError) and
// wrap the package sentinels, so callers may use errors.As or errors.Is.
package reading
