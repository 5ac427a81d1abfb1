package classifier

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dskvich/simba-ai/pkg/domain"
	"github.com/dskvich/simba-ai/pkg/logger"
)

type Generator interface {
	Generate(ctx context.Context, messages []domain.Message, params domain.GenerationParams) (*domain.Completion, error)
}

// LLM asks the model itself which specialist should answer. The call uses the analytical
// specialist and no conversation history.
type LLM struct {
	generator   Generator
	specialists SpecialistLister
}

func NewLLM(generator Generator, specialists SpecialistLister) *LLM {
	return &LLM{generator: generator, specialists: specialists}
}

func (c *LLM) Classify(ctx context.Context, message string) domain.Classification {
	result, err := c.classify(ctx, message)
	if err != nil {
		slog.ErrorContext(ctx, "intent classification failed", logger.Err(err))
		return fallback()
	}
	return result
}

func (c *LLM) classify(ctx context.Context, message string) (domain.Classification, error) {
	analyst := c.specialists.Resolve(domain.SpecialistAnalytical)

	completion, err := c.generator.Generate(ctx, []domain.Message{
		domain.NewMessage(domain.RoleSystem, analyst.SystemPrompt),
		domain.NewMessage(domain.RoleUser, c.prompt(message)),
	}, analyst.Params())
	if err != nil {
		return domain.Classification{}, fmt.Errorf("classifying message: %w", err)
	}

	result := c.parse(completion.Text)
	slog.InfoContext(ctx, "message classified", "specialist", result.Specialist, "reason", result.Reason)
	return result, nil
}

func (c *LLM) prompt(message string) string {
	var sb strings.Builder
	sb.WriteString("Analyze the following user message and determine which type of AI specialist would be most helpful.\n\n")
	fmt.Fprintf(&sb, "Message: %q\n\nAvailable specialists:\n", message)
	for _, s := range c.specialists.Routable() {
		fmt.Fprintf(&sb, "- %s: %s\n", s.Key, s.Description)
	}
	sb.WriteString("\nRespond with just the specialist name and a brief reason (max 20 words).\n")
	sb.WriteString("Format: specialist_name: reason")
	return sb.String()
}

// parse matches specialist names only in the text before the first colon, so a reason that
// mentions another specialist cannot change the choice. Replies without a colon are scanned
// whole.
func (c *LLM) parse(reply string) domain.Classification {
	reply = strings.TrimSpace(reply)

	head, reason, hasColon := strings.Cut(reply, ":")
	if !hasColon {
		head = reply
	}
	head = strings.ToLower(head)

	for _, s := range c.specialists.Routable() {
		if !strings.Contains(head, s.Key) {
			continue
		}
		reason = strings.TrimSpace(reason)
		if reason == "" {
			reason = ReasonBestFit
		}
		return domain.Classification{Specialist: s.Key, Reason: reason}
	}

	return general()
}
