package domain

import "context"

// Chat message roles as sent to the model provider.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat message in a generation request.
type Message struct {
	Role    string
	Content string
}

// Generator is the shared text generation contract between layers.
// Stream opens a completion and returns immediately; fragments arrive
// through the stream.
type Generator interface {
	Stream(ctx context.Context, messages []Message) (AnswerStream, error)
}

// AnswerStream delivers a completion incrementally. Recv returns the next
// text fragment, io.EOF after the final one, or a wrapped ErrGeneration if
// the provider fails mid-stream. Close releases the underlying connection
// and is safe to call more than once.
type AnswerStream interface {
	Recv() (string, error)
	Close() error
}
