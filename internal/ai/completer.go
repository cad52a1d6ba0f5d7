package ai

import "context"

// Chat roles understood by every Completer.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Message is a single chat turn.
type Message struct {
	Role    string
	Content string
}

// ChatRequest describes one chat completion call.
type ChatRequest struct {
	Messages    []Message
	Temperature float32
	MaxTokens   int
	// JSON asks the provider for a JSON-only response when it supports that mode.
	JSON bool
}

// Completer runs a chat completion and returns the raw model text.
type Completer interface {
	Complete(ctx context.Context, req ChatRequest) (string, error)
	Model() string
}

// PromptLength returns the combined byte length of all message contents.
func (r ChatRequest) PromptLength() int {
	total := 0
	for _, m := range r.Messages {
		total += len(m.Content)
	}
	return total
}
