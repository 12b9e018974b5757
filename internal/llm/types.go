package llm

import "time"

const (
	// DefaultTemperature is the sampling temperature used by Generate.
	DefaultTemperature = 0.7
	// DefaultMaxTokens bounds the length of generated answers.
	DefaultMaxTokens = 500
)

// Message represents a single message in a chat conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatParams holds parameters for chat completion requests.
type ChatParams struct {
	// Model specifies the model to use. If empty, the client's default model is used.
	Model string

	// MaxTokens specifies the maximum number of tokens to generate.
	// If 0, no limit is applied.
	MaxTokens int

	// Temperature controls the randomness of the output.
	Temperature float32
}

// Options bounds every call a client makes.
type Options struct {
	// Timeout applies to each HTTP attempt. Zero means no timeout.
	Timeout time.Duration
	// MaxRetries is the number of extra attempts after a retryable failure.
	MaxRetries int
	// BaseDelay is the first backoff delay; it doubles on every retry.
	BaseDelay time.Duration
	// RateLimit is the allowed requests per second. Zero means unlimited.
	RateLimit float64
}

// messages builds the chat messages for a system prompt, optional context and user text.
// The context travels as a second system message.
func messages(system, contextText, user string) []Message {
	msgs := []Message{{Role: "system", Content: system}}
	if contextText != "" {
		msgs = append(msgs, Message{Role: "system", Content: contextText})
	}
	return append(msgs, Message{Role: "user", Content: user})
}
