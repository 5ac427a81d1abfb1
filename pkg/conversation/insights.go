package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/dskvich/simba-ai/pkg/domain"
	"github.com/dskvich/simba-ai/pkg/logger"
	"github.com/samber/lo"
)

const (
	maxFollowUps          = 3
	followUpContextWindow = 4

	summaryTemperature    = 0.4
	followUpTemperature   = 0.6
	actionItemTemperature = 0.3
)

var enumerationPrefix = regexp.MustCompile(`^\d+\.?\s*`)

// SummaryOptions bound the summary produced by Summary.
type SummaryOptions struct {
	MaxWords         int
	IncludeKeyPoints bool
}

// UserContext feeds RespondWithContext.
type UserContext struct {
	Profile        map[string]string `json:"user_profile"`
	PreviousTopics []string          `json:"previous_topics"`
	CurrentTask    string            `json:"current_task"`
	Preferences    map[string]string `json:"preferences"`
}

// Summary asks for a bounded summary of the whole retained history.
func (m *Manager) Summary(ctx context.Context, conversationID string) string {
	return m.SummaryWithOptions(ctx, conversationID, SummaryOptions{MaxWords: m.cfg.SummaryMaxWords, IncludeKeyPoints: true})
}

func (m *Manager) SummaryWithOptions(ctx context.Context, conversationID string, opts SummaryOptions) string {
	summary, err := m.summarize(ctx, conversationID, opts)
	if err != nil {
		slog.ErrorContext(ctx, "summarizing conversation", "conversation_id", conversationID, logger.Err(err))
		return domain.FallbackSummary
	}
	return summary
}

func (m *Manager) summarize(ctx context.Context, conversationID string, opts SummaryOptions) (string, error) {
	if opts.MaxWords <= 0 {
		opts.MaxWords = m.cfg.SummaryMaxWords
	}

	history, err := m.history(ctx, conversationID)
	if err != nil {
		return "", err
	}

	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Summarize this conversation in %d words or less.\n", opts.MaxWords)
	if opts.IncludeKeyPoints {
		prompt.WriteString("Include key points and decisions made.\n")
	}
	prompt.WriteString("\nConversation:\n")
	prompt.WriteString(transcript(history))

	return m.analyze(ctx, prompt.String(), summaryTemperature)
}

// FollowUpSuggestions returns up to three questions that continue the conversation.
func (m *Manager) FollowUpSuggestions(ctx context.Context, conversationID string) []string {
	suggestions, err := m.followUps(ctx, conversationID)
	if err != nil {
		slog.ErrorContext(ctx, "generating follow-ups", "conversation_id", conversationID, logger.Err(err))
		return append([]string{}, domain.FallbackFollowUps...)
	}
	return suggestions
}

func (m *Manager) followUps(ctx context.Context, conversationID string) ([]string, error) {
	history, err := m.history(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	recentJSON, err := json.Marshal(lo.Map(recent(history, followUpContextWindow), func(msg domain.Message, _ int) map[string]string {
		return map[string]string{"role": string(msg.Role), "content": msg.Content}
	}))
	if err != nil {
		return nil, fmt.Errorf("encoding recent messages: %w", err)
	}

	prompt := fmt.Sprintf(`Based on this conversation, generate 3 thoughtful follow-up questions that would help continue the discussion naturally.

Context: %s
Recent conversation: %s

Return as a JSON array of strings. Each question should be engaging and relevant.`, conversationID, recentJSON)

	reply, err := m.analyze(ctx, prompt, followUpTemperature)
	if err != nil {
		return nil, err
	}

	return parseFollowUps(reply), nil
}

// parseFollowUps reads a JSON array of strings, or failing that the first lines that contain
// a question mark with any "N. " enumeration removed.
func parseFollowUps(reply string) []string {
	var questions []string
	if err := json.Unmarshal([]byte(stripCodeFence(reply)), &questions); err == nil {
		questions = lo.Filter(lo.Map(questions, func(q string, _ int) string { return strings.TrimSpace(q) }),
			func(q string, _ int) bool { return q != "" })
		return lo.Slice(questions, 0, maxFollowUps)
	}

	lines := lo.Filter(strings.Split(reply, "\n"), func(line string, _ int) bool {
		return strings.Contains(line, "?")
	})
	return lo.Map(lo.Slice(lines, 0, maxFollowUps), func(line string, _ int) string {
		return strings.TrimSpace(enumerationPrefix.ReplaceAllString(strings.TrimSpace(line), ""))
	})
}

// ActionItems extracts tasks mentioned in the conversation. Unparseable replies yield none.
func (m *Manager) ActionItems(ctx context.Context, conversationID string) []domain.ActionItem {
	items, err := m.actionItems(ctx, conversationID)
	if err != nil {
		slog.ErrorContext(ctx, "extracting action items", "conversation_id", conversationID, logger.Err(err))
		return []domain.ActionItem{}
	}
	return items
}

func (m *Manager) actionItems(ctx context.Context, conversationID string) ([]domain.ActionItem, error) {
	history, err := m.history(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(`Review this conversation and extract any actionable items, tasks, or next steps mentioned.

Conversation:
%s

Return as a JSON array of objects with: { "task": string, "priority": "high"|"medium"|"low", "mentioned_by": "user"|"assistant" }
If no action items found, return empty array.`, transcript(history))

	reply, err := m.analyze(ctx, prompt, actionItemTemperature)
	if err != nil {
		return nil, err
	}

	return parseActionItems(reply)
}

func parseActionItems(reply string) ([]domain.ActionItem, error) {
	var raw []domain.ActionItem
	if err := json.Unmarshal([]byte(stripCodeFence(reply)), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrParse, err)
	}

	items := make([]domain.ActionItem, 0, len(raw))
	for _, item := range raw {
		item.Task = strings.TrimSpace(item.Task)
		if item.Task == "" {
			continue
		}

		item.Priority = domain.Priority(strings.ToLower(string(item.Priority)))
		if !lo.Contains([]domain.Priority{domain.PriorityHigh, domain.PriorityMedium, domain.PriorityLow}, item.Priority) {
			item.Priority = domain.PriorityMedium
		}

		item.MentionedBy = domain.Role(strings.ToLower(string(item.MentionedBy)))
		if item.MentionedBy != domain.RoleUser && item.MentionedBy != domain.RoleAssistant {
			item.MentionedBy = domain.RoleUser
		}

		items = append(items, item)
	}

	return items, nil
}

// RespondWithContext answers text taking the user's profile and preferences into account.
// If that fails it falls back to a plain Send of text.
func (m *Manager) RespondWithContext(ctx context.Context, conversationID, text string, uc UserContext) *domain.Reply {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	profile, _ := json.Marshal(orEmpty(uc.Profile))
	preferences, _ := json.Marshal(orEmpty(uc.Preferences))

	prompt := fmt.Sprintf(`User Profile: %s
Recent Topics: %s
Current Task: %s
User Preferences: %s

User Message: %q

Provide a response that takes into account the user's context, preferences, and conversation history.`,
		profile,
		strings.Join(uc.PreviousTopics, ", "),
		lo.CoalesceOrEmpty(uc.CurrentTask, "None"),
		preferences,
		text,
	)

	reply, err := m.send(ctx, conversationID, text, SendOptions{Specialist: domain.SpecialistDefault, prompt: prompt}, nil)
	if err == nil {
		return reply
	}

	slog.ErrorContext(ctx, "context-aware response failed, sending plain message", "conversation_id", conversationID, logger.Err(err))
	return m.Send(ctx, conversationID, text, SendOptions{})
}

func (m *Manager) history(ctx context.Context, conversationID string) ([]domain.Message, error) {
	conv, err := m.store.Get(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("loading conversation: %w", err)
	}
	return conv.Messages, nil
}

// analyze runs a one-off prompt with the analytical specialist. It never touches history.
func (m *Manager) analyze(ctx context.Context, prompt string, temperature float64) (string, error) {
	analyst := m.specialists.Resolve(domain.SpecialistAnalytical)
	params := analyst.Params()
	params.Temperature = temperature

	completion, err := m.generator.Generate(ctx, []domain.Message{
		domain.NewMessage(domain.RoleSystem, analyst.SystemPrompt),
		domain.NewMessage(domain.RoleUser, prompt),
	}, params)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(completion.Text), nil
}

func transcript(messages []domain.Message) string {
	return strings.Join(lo.Map(messages, func(msg domain.Message, _ int) string {
		return fmt.Sprintf("%s: %s", msg.Role, msg.Content)
	}), "\n")
}

// stripCodeFence removes a surrounding ``` or ```json fence.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

func orEmpty(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
