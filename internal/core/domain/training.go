package domain

const (
	// DefaultLanguage and DefaultMaxChar are the documented fallbacks used
	// when the parameter-suggestion service is unavailable or uncredentialed.
	DefaultLanguage = "English"
	DefaultMaxChar  = 150
)

// GenerationConfig controls training-example generation. Style is free
// text appended verbatim to the system instruction.
type GenerationConfig struct {
	Language string
	MaxChar  int
	Style    string
}

// ParameterSuggestion is the optional output of the parameter-suggestion
// service: recommended generation parameters for a sample of transcripts.
type ParameterSuggestion struct {
	Language  string `json:"language"`
	MaxChar   int    `json:"max_char"`
	Reasoning string `json:"reasoning"`
}

// MessagePart is one text fragment of a chat message.
type MessagePart struct {
	Text string `json:"text"`
}

// Message is one role-tagged entry of a training example.
type Message struct {
	Role  string        `json:"role"`
	Parts []MessagePart `json:"parts"`
}

// TrainingExample is one fine-tuning sample: a user request, the expected
// model response and the shared system instruction. Generation is a pure
// function of (VideoRecord, GenerationConfig), so examples are read-only
// once built.
type TrainingExample struct {
	Contents          []Message `json:"contents"`
	SystemInstruction Message   `json:"systemInstruction"`
}
