package domain

// InterpretationKind tags the variant held by an Interpretation.
type InterpretationKind string

const (
	// InterpretDescriptor: the model answered with a structured action.
	InterpretDescriptor InterpretationKind = "descriptor"
	// InterpretRawText: the model answered with prose; it is surfaced as-is.
	InterpretRawText InterpretationKind = "raw_text"
	// InterpretError: the completion call itself failed.
	InterpretError InterpretationKind = "error"
)

// Interpretation is the result of parsing a user request with the language model.
// Exactly one payload field is meaningful, selected by Kind.
type Interpretation struct {
	Kind       InterpretationKind `json:"kind"`
	Descriptor *ActionDescriptor  `json:"descriptor,omitempty"`
	Text       string             `json:"text,omitempty"`

	// Message is the user-facing error text, set when Kind is InterpretError.
	Message string `json:"error,omitempty"`
	Err     error  `json:"-"`
}

// Interpreted wraps a parsed descriptor.
func Interpreted(d ActionDescriptor) Interpretation {
	return Interpretation{Kind: InterpretDescriptor, Descriptor: &d}
}

// RawText wraps a reply that could not be parsed as an action.
func RawText(text string) Interpretation {
	return Interpretation{Kind: InterpretRawText, Text: text}
}

// InterpretFailure wraps a failed completion call.
func InterpretFailure(message string, err error) Interpretation {
	return Interpretation{Kind: InterpretError, Message: message, Err: err}
}
