package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dskvich/simba-ai/pkg/domain"
	"github.com/dskvich/simba-ai/pkg/logger"
)

const (
	DefaultMaxHistoryLength = 10
	DefaultSummaryMaxWords  = 200
)

type Generator interface {
	Generate(ctx context.Context, messages []domain.Message, params domain.GenerationParams) (*domain.Completion, error)
	GenerateStream(ctx context.Context, messages []domain.Message, params domain.GenerationParams, onChunk func(delta string)) (*domain.Completion, error)
}

type SpecialistResolver interface {
	Resolve(key string) domain.Specialist
}

type Config struct {
	// MaxHistoryLength is the number of exchanges included in a prompt. A conversation retains
	// twice as many messages.
	MaxHistoryLength int
	SummaryMaxWords  int
}

func DefaultConfig() Config {
	return Config{
		MaxHistoryLength: DefaultMaxHistoryLength,
		SummaryMaxWords:  DefaultSummaryMaxWords,
	}
}

// SendOptions enumerates every per-call option of Send and SendStream. The zero value sends
// with the default specialist, full history and the specialist's parameters.
type SendOptions struct {
	// Specialist is a registry key; unknown or empty keys use the default specialist.
	Specialist string
	// SkipHistory leaves previous messages out of the prompt.
	SkipHistory bool
	// MaxHistoryLength overrides Config.MaxHistoryLength for this call when positive.
	MaxHistoryLength int
	// SystemPrompt replaces the specialist's system prompt when set.
	SystemPrompt string
	Temperature  *float64
	MaxTokens    int
	// Reason is copied to the reply; the router uses it to report why a specialist was chosen.
	Reason string

	// prompt is sent to the model in place of the text; history still records the text.
	prompt string
}

type Manager struct {
	store       Store
	generator   Generator
	specialists SpecialistResolver
	cfg         Config
}

func NewManager(store Store, generator Generator, specialists SpecialistResolver, cfg Config) *Manager {
	if cfg.MaxHistoryLength <= 0 {
		cfg.MaxHistoryLength = DefaultMaxHistoryLength
	}
	if cfg.SummaryMaxWords <= 0 {
		cfg.SummaryMaxWords = DefaultSummaryMaxWords
	}
	return &Manager{
		store:       store,
		generator:   generator,
		specialists: specialists,
		cfg:         cfg,
	}
}

// Send appends text and the generated answer to the conversation and returns the reply.
// Blank text is a no-op and yields nil. Failures never surface as errors: the reply then
// carries a fallback text and its ErrorKind.
func (m *Manager) Send(ctx context.Context, conversationID, text string, opts SendOptions) *domain.Reply {
	return m.collapse(ctx, conversationID, opts, func() (*domain.Reply, error) {
		return m.send(ctx, conversationID, text, opts, nil)
	})
}

// SendStream is Send with incremental delivery: onChunk receives each delta and the text
// accumulated so far. History is committed only when the stream completes.
func (m *Manager) SendStream(ctx context.Context, conversationID, text string, opts SendOptions, onChunk func(delta, full string)) *domain.Reply {
	return m.collapse(ctx, conversationID, opts, func() (*domain.Reply, error) {
		return m.send(ctx, conversationID, text, opts, onChunk)
	})
}

func (m *Manager) collapse(ctx context.Context, conversationID string, opts SendOptions, fn func() (*domain.Reply, error)) *domain.Reply {
	reply, err := fn()
	if err == nil {
		return reply
	}

	kind := domain.KindOf(err)
	slog.ErrorContext(ctx, "generation failed",
		"conversation_id", conversationID,
		"error_kind", kind,
		logger.Err(err),
	)

	return &domain.Reply{
		Text:           domain.FallbackText(kind),
		Specialist:     m.specialists.Resolve(opts.Specialist).Key,
		Reason:         opts.Reason,
		ConversationID: conversationID,
		ErrorKind:      kind,
		Error:          err.Error(),
	}
}

func (m *Manager) send(ctx context.Context, conversationID, text string, opts SendOptions, onChunk func(delta, full string)) (*domain.Reply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	conv, err := m.store.Get(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("loading conversation: %w", err)
	}

	prompt := text
	if opts.prompt != "" {
		prompt = opts.prompt
	}

	specialist := m.specialists.Resolve(opts.Specialist)
	messages := m.buildPrompt(conv.Messages, specialist, prompt, opts)
	params := m.params(specialist, opts)

	slog.InfoContext(ctx, "calling generation",
		"conversation_id", conversationID,
		"specialist", specialist.Key,
		"messages", len(messages),
		"temperature", params.Temperature,
	)

	var completion *domain.Completion
	if onChunk == nil {
		completion, err = m.generator.Generate(ctx, messages, params)
	} else {
		var full strings.Builder
		completion, err = m.generator.GenerateStream(ctx, messages, params, func(delta string) {
			full.WriteString(delta)
			onChunk(delta, full.String())
		})
	}
	if err != nil {
		return nil, err
	}

	answer := strings.TrimSpace(completion.Text)
	exchange := domain.Exchange{
		Specialist: specialist.Key,
		Messages: []domain.Message{
			domain.NewMessage(domain.RoleUser, text),
			domain.NewMessage(domain.RoleAssistant, answer),
		},
	}
	if err := m.store.Append(ctx, conversationID, exchange); err != nil {
		return nil, fmt.Errorf("saving exchange: %w", err)
	}
	if err := m.store.Truncate(ctx, conversationID, m.cfg.MaxHistoryLength*2); err != nil {
		return nil, fmt.Errorf("truncating history: %w", err)
	}

	return &domain.Reply{
		Text:           answer,
		Specialist:     specialist.Key,
		Reason:         opts.Reason,
		ConversationID: conversationID,
		Model:          completion.Model,
		Usage:          completion.Usage,
	}, nil
}

func (m *Manager) buildPrompt(history []domain.Message, specialist domain.Specialist, text string, opts SendOptions) []domain.Message {
	systemPrompt := specialist.SystemPrompt
	if opts.SystemPrompt != "" {
		systemPrompt = opts.SystemPrompt
	}

	messages := []domain.Message{domain.NewMessage(domain.RoleSystem, systemPrompt)}

	if !opts.SkipHistory {
		window := m.cfg.MaxHistoryLength
		if opts.MaxHistoryLength > 0 {
			window = opts.MaxHistoryLength
		}
		messages = append(messages, recent(history, window*2)...)
	}

	return append(messages, domain.NewMessage(domain.RoleUser, text))
}

func (m *Manager) params(specialist domain.Specialist, opts SendOptions) domain.GenerationParams {
	params := specialist.Params()
	if opts.Temperature != nil {
		params.Temperature = *opts.Temperature
	}
	if opts.MaxTokens > 0 {
		params.MaxTokens = opts.MaxTokens
	}
	return params
}

func recent(messages []domain.Message, n int) []domain.Message {
	if n <= 0 {
		return nil
	}
	if len(messages) > n {
		return messages[len(messages)-n:]
	}
	return messages
}

// History returns a snapshot of the conversation's messages; unknown ids yield an empty slice.
func (m *Manager) History(ctx context.Context, conversationID string) []domain.Message {
	conv, err := m.store.Get(ctx, conversationID)
	if err != nil {
		slog.ErrorContext(ctx, "loading history", "conversation_id", conversationID, logger.Err(err))
		return []domain.Message{}
	}
	return append([]domain.Message{}, conv.Messages...)
}

func (m *Manager) Metadata(ctx context.Context, conversationID string) domain.ConversationMetadata {
	conv, err := m.store.Get(ctx, conversationID)
	if err != nil {
		slog.ErrorContext(ctx, "loading conversation metadata", "conversation_id", conversationID, logger.Err(err))
		return domain.NewConversation(conversationID).Metadata()
	}
	return conv.Metadata()
}

// Clear empties the conversation and resets its counters. It is idempotent.
func (m *Manager) Clear(ctx context.Context, conversationID string) {
	if err := m.store.Clear(ctx, conversationID); err != nil {
		slog.ErrorContext(ctx, "clearing conversation", "conversation_id", conversationID, logger.Err(err))
		return
	}
	slog.InfoContext(ctx, "conversation cleared", "conversation_id", conversationID)
}
