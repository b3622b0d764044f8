package reading

import (
	"github.com/google/uuid"
)

const (
	idPrefix    = "temp-"
	idSuffixLen = 5
)

// NewID returns a fresh identifier of the form temp-XXXXX where XXXXX are
// the first five lowercase hex digits of a random UUID.
func NewID() string {
	return idPrefix + uuid.NewString()[:idSuffixLen]
}
