package ir

// Version constants for values and the binary.
const (
	// ValueVersion is the value encoding version.
	ValueVersion = "1"

	// Version is the exprdash release version.
	Version = "0.1.0"
)
