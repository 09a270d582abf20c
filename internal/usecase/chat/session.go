package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/domain"
)

// ErrEmptyQuestion rejects a blank question before any state transition.
var ErrEmptyQuestion = errors.New("empty question")

// Session is one conversation. Questions are answered strictly one at a
// time: Ask blocks until the previous answer's stream is finished or
// closed. The conversation records completed turns only.
type Session struct {
	svc *Service

	// askMu serializes questions; held from Ask until the answer finishes.
	askMu sync.Mutex

	// mu guards state and conv for History/State readers.
	mu    sync.Mutex
	state State
	conv  domain.Conversation
}

// State returns the session's current position.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// History returns a copy of the completed turns.
func (s *Session) History() []domain.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conv.Turns()
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// Ask runs one retrieve-generate attempt for the question. On success the
// returned Answer streams fragments; the turn is appended to the
// conversation only after the stream ends cleanly. On failure the session
// moves to Failed, the turn is discarded, and the next Ask starts fresh.
func (s *Session) Ask(ctx context.Context, question string) (*Answer, error) {
	s.askMu.Lock()

	// A failed previous turn does not poison the session.
	if s.State() == StateFailed {
		s.setState(StateAwaitingQuestion)
	}

	question = strings.TrimSpace(question)
	if question == "" {
		s.askMu.Unlock()
		return nil, ErrEmptyQuestion
	}

	s.setState(StateRetrieving)

	embRes, err := s.svc.embed.Embed(ctx, question)
	if err != nil {
		return nil, s.failAsk(fmt.Errorf("embed question: %w", err))
	}
	domain.UsageFromContext(ctx).AddTokens(embRes.TotalTokens)

	hits, err := s.svc.search.Search(embRes.Embedding, s.svc.topK)
	if err != nil {
		return nil, s.failAsk(fmt.Errorf("retrieve context: %w", err))
	}

	s.setState(StateGenerating)

	stream, err := s.svc.gen.Stream(ctx, buildMessages(hits, s.History(), question))
	if err != nil {
		return nil, s.failAsk(fmt.Errorf("open completion: %w", err))
	}

	s.svc.logger.Debug("generating answer",
		zap.String("question", question),
		zap.Int("retrieved", len(hits)),
	)

	return &Answer{session: s, question: question, stream: stream, sources: hits}, nil
}

// failAsk records the failure and releases the question slot.
func (s *Session) failAsk(err error) error {
	s.setState(StateFailed)
	s.svc.logger.Warn("turn failed", zap.Error(err))
	s.askMu.Unlock()
	return err
}

// complete appends the finished turn and returns to AwaitingQuestion.
func (s *Session) complete(question, answer string) {
	s.mu.Lock()
	s.conv.Append(domain.Turn{Question: question, Answer: answer})
	s.state = StateAwaitingQuestion
	s.mu.Unlock()
}

// buildMessages assembles the prompt: system instructions with the
// retrieved context block, the prior turns, then the current question.
func buildMessages(hits []domain.ScoredSegment, turns []domain.Turn, question string) []domain.Message {
	var b strings.Builder
	b.WriteString(systemPrompt)
	b.WriteString("\n\nContext:\n")
	for _, h := range hits {
		fmt.Fprintf(&b, "[%s p.%d] %s\n", h.Document, h.Page, h.Text)
	}

	messages := make([]domain.Message, 0, 2*len(turns)+2)
	messages = append(messages, domain.Message{Role: domain.RoleSystem, Content: b.String()})
	for _, t := range turns {
		messages = append(messages,
			domain.Message{Role: domain.RoleUser, Content: t.Question},
			domain.Message{Role: domain.RoleAssistant, Content: t.Answer},
		)
	}
	return append(messages, domain.Message{Role: domain.RoleUser, Content: question})
}

// Answer is one in-flight streamed answer. Exactly one of a clean EOF, a
// stream error, or Close settles it; settling releases the session for the
// next question.
type Answer struct {
	session  *Session
	question string
	stream   domain.AnswerStream
	sources  []domain.ScoredSegment
	text     strings.Builder
	done     bool
	err      error // settling error, re-returned by later Recv calls
}

// Recv returns the next fragment, io.EOF after the answer is complete, or
// the provider error that killed the stream. After EOF the turn is part of
// the conversation; after an error it is not.
func (a *Answer) Recv() (string, error) {
	if a.done {
		// A failed stream keeps reporting its error, never a clean EOF.
		if a.err != nil {
			return "", a.err
		}
		return "", io.EOF
	}

	frag, err := a.stream.Recv()
	if errors.Is(err, io.EOF) {
		a.settle()
		a.session.complete(a.question, a.text.String())
		a.session.askMu.Unlock()
		return "", io.EOF
	}
	if err != nil {
		a.err = err
		a.settle()
		a.session.setState(StateFailed)
		a.session.svc.logger.Warn("stream failed mid-answer", zap.Error(err))
		a.session.askMu.Unlock()
		return "", err
	}

	a.text.WriteString(frag)
	return frag, nil
}

// Text returns the fragments received so far, concatenated.
func (a *Answer) Text() string { return a.text.String() }

// Sources returns the segments the answer was conditioned on.
func (a *Answer) Sources() []domain.ScoredSegment { return a.sources }

// Close abandons an unfinished stream: the partial turn is discarded and
// the session accepts the next question. Safe after Recv returned EOF or
// an error, and safe to call more than once.
func (a *Answer) Close() error {
	if a.done {
		return nil
	}
	a.settle()
	a.session.setState(StateAwaitingQuestion)
	a.session.askMu.Unlock()
	return nil
}

func (a *Answer) settle() {
	a.done = true
	_ = a.stream.Close()
}
