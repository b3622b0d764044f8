package publisher

import "errors"

// ErrInvalidOptions is returned by New when required options are missing
// or out of range.
var ErrInvalidOptions = errors.New("publisher: invalid options")
