package reactive

import (
	"github.com/google/uuid"
)

// IDGenerator produces graph identifiers. Tests inject a fixed generator
// so logs and traces are reproducible.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-ordered UUIDv7 identifiers.
type UUIDv7Generator struct{}

// Generate returns a new UUIDv7 string.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
