package errors

// Environment controls how much internal detail errors expose when they are
// serialized or formatted. It is injected at the construction/formatting call
// site instead of being read from a process-wide flag, so behavior stays
// deterministic and testable.
type Environment struct {
	// IsDevelopment enables stack traces in serialized errors, verbatim
	// messages for unrecognized errors, and disables secret redaction.
	IsDevelopment bool
}

// Development returns an Environment with development behavior enabled.
func Development() Environment {
	return Environment{IsDevelopment: true}
}

// Production returns an Environment with production behavior.
func Production() Environment {
	return Environment{}
}
