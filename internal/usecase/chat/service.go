// Package chat answers questions over the index: retrieve the closest
// segments, stream a completion conditioned on them, record the finished
// turn. One question runs one retrieve-generate attempt, never more.
package chat

import (
	"go.uber.org/zap"
)

// DefaultTopK is how many segments condition an answer.
const DefaultTopK = 3

const systemPrompt = "You are a helpful assistant. Answer using only the provided context. " +
	"Cite the pdf file name and page number for every fact you use. " +
	"If the context does not contain the answer, say \"I don't know\"."

// State is the per-question position of a session.
type State string

// Session states. A session rests in AwaitingQuestion between questions;
// Failed is terminal for the current question only.
const (
	StateAwaitingQuestion State = "awaiting_question"
	StateRetrieving       State = "retrieving"
	StateGenerating       State = "generating"
	StateFailed           State = "failed"
)

// Service holds the question-answering dependencies shared by all sessions.
type Service struct {
	embed  Embedder
	search Searcher
	gen    Generator
	topK   int
	logger *zap.Logger
}

// New creates a chat service.
func New(embed Embedder, search Searcher, gen Generator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{embed: embed, search: search, gen: gen, topK: DefaultTopK, logger: logger}
}

// WithTopK overrides how many segments are retrieved per question.
func (s *Service) WithTopK(k int) *Service {
	if k > 0 {
		s.topK = k
	}
	return s
}

// NewSession starts an empty conversation.
func (s *Service) NewSession() *Session {
	return &Session{svc: s, state: StateAwaitingQuestion}
}
