package domain

// Chat roles as understood by the completion endpoint.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry of a conversation.
type Message struct {
	Role    string `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

// TurnOutcome describes which path a chat turn took through the pipeline.
type TurnOutcome string

const (
	// OutcomeRawText: the model answered in prose; nothing was dispatched.
	OutcomeRawText TurnOutcome = "raw_text"
	// OutcomeInterpretError: the interpreter failed; nothing was dispatched.
	OutcomeInterpretError TurnOutcome = "interpret_error"
	// OutcomeComposed: an action was dispatched and its result narrated.
	OutcomeComposed TurnOutcome = "composed"
)

// Prefixes of the replies produced when the pipeline short-circuits.
const (
	RawTextPrefix = "AI Response: "
	ErrorPrefix   = "Error: "
)

// TurnResult is the reply of one chat turn and the steps that produced it.
type TurnResult struct {
	ID             string          `json:"id,omitempty"`
	Reply          string          `json:"reply"`
	Outcome        TurnOutcome     `json:"outcome"`
	Interpretation Interpretation  `json:"interpretation"`
	Dispatch       *DispatchResult `json:"dispatch,omitempty"`
}
