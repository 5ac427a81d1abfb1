// Package router picks a specialist for each message and hands the message to the
// conversation manager.
package router

import (
	"context"
	"log/slog"
	"time"

	"github.com/dskvich/simba-ai/pkg/classifier"
	"github.com/dskvich/simba-ai/pkg/conversation"
	"github.com/dskvich/simba-ai/pkg/domain"
	"github.com/dskvich/simba-ai/pkg/logger"
)

type Conversations interface {
	Send(ctx context.Context, conversationID, text string, opts conversation.SendOptions) *domain.Reply
	SendStream(ctx context.Context, conversationID, text string, opts conversation.SendOptions, onChunk func(delta, full string)) *domain.Reply
}

type SpecialistRegistry interface {
	IsExposed(key string) bool
}

type DecisionRecorder interface {
	Save(ctx context.Context, decision *domain.RoutingDecision) error
}

// Options enumerates every per-call routing option.
type Options struct {
	ConversationID string
	// Specialist, when it names an exposed specialist, bypasses classification.
	Specialist   string
	SkipHistory  bool
	SystemPrompt string
	Temperature  *float64
	MaxTokens    int
	// OnChunk switches to the streaming send path.
	OnChunk func(delta, full string)
}

type Router struct {
	classifier    classifier.Classifier
	specialists   SpecialistRegistry
	conversations Conversations
	recorder      DecisionRecorder
}

func New(c classifier.Classifier, specialists SpecialistRegistry, conversations Conversations) *Router {
	return &Router{classifier: c, specialists: specialists, conversations: conversations}
}

// WithRecorder makes the router persist every routing decision.
func (r *Router) WithRecorder(recorder DecisionRecorder) *Router {
	r.recorder = recorder
	return r
}

// Route answers message with an explicitly requested specialist or with the one the
// classifier picks. The reply is returned exactly as the conversation manager produced it.
func (r *Router) Route(ctx context.Context, message string, opts Options) *domain.Reply {
	decision := r.decide(ctx, message, opts)

	sendOpts := conversation.SendOptions{
		SkipHistory:  opts.SkipHistory,
		SystemPrompt: opts.SystemPrompt,
		Temperature:  opts.Temperature,
		MaxTokens:    opts.MaxTokens,
		Reason:       decision.Reason,
	}
	if decision.Specialist != domain.SpecialistDefault {
		sendOpts.Specialist = decision.Specialist
	}

	if opts.OnChunk != nil {
		return r.conversations.SendStream(ctx, opts.ConversationID, message, sendOpts, opts.OnChunk)
	}
	return r.conversations.Send(ctx, opts.ConversationID, message, sendOpts)
}

func (r *Router) decide(ctx context.Context, message string, opts Options) domain.Classification {
	if opts.Specialist != domain.SpecialistSmart && r.specialists.IsExposed(opts.Specialist) {
		r.record(ctx, message, opts.ConversationID, domain.Classification{Specialist: opts.Specialist}, true)
		return domain.Classification{Specialist: opts.Specialist}
	}

	result := r.classifier.Classify(ctx, message)
	r.record(ctx, message, opts.ConversationID, result, false)
	return result
}

func (r *Router) record(ctx context.Context, message, conversationID string, c domain.Classification, explicit bool) {
	slog.InfoContext(ctx, "routing message",
		"conversation_id", conversationID,
		"specialist", c.Specialist,
		"explicit", explicit,
	)

	if r.recorder == nil {
		return
	}

	err := r.recorder.Save(ctx, &domain.RoutingDecision{
		ConversationID: conversationID,
		Message:        message,
		Specialist:     c.Specialist,
		Reason:         c.Reason,
		Explicit:       explicit,
		CreatedAt:      time.Now(),
	})
	if err != nil {
		slog.ErrorContext(ctx, "recording routing decision", logger.Err(err))
	}
}

// Classify exposes the classifier on its own.
func (r *Router) Classify(ctx context.Context, message string) domain.Classification {
	return r.classifier.Classify(ctx, message)
}
