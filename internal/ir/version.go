package ir

// Version constants for the rule IR and compiler.
const (
	// IRVersion is the rule IR schema version.
	IRVersion = "1"

	// CompilerVersion is the deonto compiler version.
	CompilerVersion = "0.1.0"
)
