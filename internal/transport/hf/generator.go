package hf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/domain"
	"github.com/kailas-cloud/docqa/internal/metrics"
)

// DefaultGenerationModel answers questions unless the deployment overrides it.
const DefaultGenerationModel = "meta-llama/Llama-3.1-8B-Instruct"

// DefaultMaxTokens caps one answer's length.
const DefaultMaxTokens = 512

// Generator opens chat completion streams over the OpenAI-compatible API.
type Generator struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	logger      *zap.Logger
}

// GeneratorConfig holds the chat completion settings.
type GeneratorConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
	Logger      *zap.Logger
}

// NewGenerator creates a chat completion provider, filling empty config
// fields with the published defaults. Temperature 0 keeps decoding
// deterministic.
func NewGenerator(cfg *GeneratorConfig) *Generator {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultGenerationModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL

	return &Generator{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		logger:      cfg.Logger,
	}
}

// Stream implements domain.Generator. A failed open is reported here;
// mid-stream failures surface on Recv. No retries at any point.
func (g *Generator) Stream(ctx context.Context, messages []domain.Message) (domain.AnswerStream, error) {
	if len(messages) == 0 {
		return nil, fmt.Errorf("%w: no messages", domain.ErrGeneration)
	}

	chatMessages := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		chatMessages[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}

	req := openai.ChatCompletionRequest{
		Model:       g.model,
		Messages:    chatMessages,
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
		Stream:      true,
	}

	start := time.Now()

	stream, err := g.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues(g.model, "error").Inc()
		return nil, parseAPIError(err, "generation", domain.ErrGeneration)
	}

	metrics.GenerationRequestsTotal.WithLabelValues(g.model, "success").Inc()

	return &answerStream{
		stream: stream,
		model:  g.model,
		start:  start,
	}, nil
}

// answerStream adapts the openai stream to domain.AnswerStream. Fragments
// with empty deltas (role-only first chunk, finish chunk) are skipped so
// every Recv returns visible text.
type answerStream struct {
	stream *openai.ChatCompletionStream
	model  string
	start  time.Time
	closed bool
}

// Recv returns the next text fragment, io.EOF at the end of the answer, or
// a wrapped ErrGeneration when the provider fails mid-stream.
func (s *answerStream) Recv() (string, error) {
	for {
		resp, err := s.stream.Recv()
		if errors.Is(err, io.EOF) {
			return "", io.EOF
		}
		if err != nil {
			return "", parseAPIError(err, "generation stream", domain.ErrGeneration)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		content := resp.Choices[0].Delta.Content
		if content == "" {
			continue
		}
		metrics.GenerationFragmentsTotal.WithLabelValues(s.model).Inc()
		return content, nil
	}
}

// Close releases the underlying HTTP stream. Safe to call more than once.
func (s *answerStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	metrics.GenerationStreamDuration.WithLabelValues(s.model).Observe(time.Since(s.start).Seconds())
	return s.stream.Close()
}
