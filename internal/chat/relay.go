// Package chat relays user questions to a completion model and keeps the
// transcript shown by the chat widget.
package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/paddock/internal/adapters/llm"
	"github.com/okian/paddock/internal/config"
	"github.com/okian/paddock/pkg/logger"
	"github.com/okian/paddock/pkg/metrics"
)

// Completer is the upstream completion API.
type Completer interface {
	Complete(ctx context.Context, req llm.ChatRequest) (string, error)
}

// Relayer turns one user message into one reply.
type Relayer interface {
	Relay(ctx context.Context, message string) (string, error)
}

// Relay forwards single messages with a fixed system prompt. It keeps no
// conversation state: each call sends exactly [system, user].
type Relay struct {
	completer    Completer
	model        string
	temperature  float64
	systemPrompt string
	log          logger.Logger
}

// Option configures a Relay.
type Option func(*Relay)

// WithModel sets the model identifier.
func WithModel(model string) Option {
	return func(r *Relay) {
		if model != "" {
			r.model = model
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(r *Relay) { r.temperature = t }
}

// WithSystemPrompt sets the instruction sent before every message.
func WithSystemPrompt(prompt string) Option {
	return func(r *Relay) {
		if prompt != "" {
			r.systemPrompt = prompt
		}
	}
}

// WithLogger sets the relay logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Relay) {
		if l != nil {
			r.log = l
		}
	}
}

// NewRelay creates a relay over completer.
func NewRelay(completer Completer, opts ...Option) *Relay {
	r := &Relay{
		completer:    completer,
		model:        "gemma-2-9b-it",
		temperature:  0.7,
		systemPrompt: config.DefaultSystemPrompt,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = logger.Get().Named("chat")
	}
	return r
}

// Relay returns the model's reply to message. An empty message yields
// ErrEmptyMessage without contacting upstream; whitespace is forwarded as
// is. Any upstream failure yields ErrUpstream.
func (r *Relay) Relay(ctx context.Context, message string) (string, error) {
	if message == "" {
		metrics.RecordChatRelay(metrics.OutcomeReject, 0)
		return "", ErrEmptyMessage
	}

	start := time.Now()
	reply, err := r.completer.Complete(ctx, llm.ChatRequest{
		Model: r.model,
		Messages: []llm.Message{
			{Role: "system", Content: r.systemPrompt},
			{Role: "user", Content: message},
		},
		Temperature: r.temperature,
		Stream:      false,
	})
	elapsed := float64(time.Since(start).Milliseconds())
	if err != nil {
		metrics.RecordChatRelay(metrics.OutcomeError, elapsed)
		r.log.Error(ctx, "chat relay failed", logger.String("model", r.model), logger.Error(err))
		return "", fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	metrics.RecordChatRelay(metrics.OutcomeOK, elapsed)
	r.log.Debug(ctx, "chat relayed",
		logger.String("model", r.model),
		logger.Int("reply_len", len(reply)),
		logger.Float64("latency_ms", elapsed))
	return reply, nil
}
