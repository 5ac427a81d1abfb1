package conversation

import (
	"context"
	"errors"
	"testing"

	"github.com/dskvich/simba-ai/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded(t *testing.T, gen *stubGenerator) *Manager {
	t.Helper()
	m := newTestManager(t, gen, DefaultConfig())
	gen.replies = []string{"Sure, I can help with the launch plan."}
	require.NotNil(t, m.Send(context.Background(), "c", "Help me plan the launch", SendOptions{}))
	return m
}

func TestSummaryRendersTranscript(t *testing.T) {
	gen := &stubGenerator{}
	m := seeded(t, gen)

	gen.replies = []string{"  A short summary.  "}
	summary := m.Summary(context.Background(), "c")
	assert.Equal(t, "A short summary.", summary)

	require.Len(t, gen.calls, 2)
	call := gen.lastCall(t)
	prompt := call.messages[len(call.messages)-1].Content
	assert.Contains(t, prompt, "200 words or less")
	assert.Contains(t, prompt, "Include key points")
	assert.Contains(t, prompt, "user: Help me plan the launch\nassistant: Sure, I can help with the launch plan.")
	assert.Equal(t, 0.4, call.params.Temperature)

	assert.Len(t, m.History(context.Background(), "c"), 2, "analysis calls must not touch history")
}

func TestSummaryFailureFallback(t *testing.T) {
	gen := &stubGenerator{}
	m := seeded(t, gen)
	gen.err = errors.New("timeout")

	assert.Equal(t, domain.FallbackSummary, m.Summary(context.Background(), "c"))
}

func TestFollowUpSuggestions(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  []string
	}{
		{
			name:  "json array",
			reply: `["What is the budget?", "Who is the audience?", "When do we ship?", "Extra?"]`,
			want:  []string{"What is the budget?", "Who is the audience?", "When do we ship?"},
		},
		{
			name:  "fenced json",
			reply: "```json\n[\"Why now?\"]\n```",
			want:  []string{"Why now?"},
		},
		{
			name:  "numbered lines",
			reply: "Here are some ideas:\n1. What is the budget?\nThanks for asking.\nWho is the audience?\n3 When?\n4. Where?",
			want:  []string{"What is the budget?", "Who is the audience?", "When?"},
		},
		{
			name:  "two question lines",
			reply: "Some thoughts\n1. Could we start earlier?\n2. Should we hire help?\nGood luck",
			want:  []string{"Could we start earlier?", "Should we hire help?"},
		},
		{
			name:  "no questions",
			reply: "I have nothing to add.",
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &stubGenerator{}
			m := seeded(t, gen)
			gen.replies = []string{tt.reply}

			got := m.FollowUpSuggestions(context.Background(), "c")
			assert.Equal(t, tt.want, got)

			call := gen.lastCall(t)
			assert.Equal(t, 0.6, call.params.Temperature)
			assert.Contains(t, call.messages[len(call.messages)-1].Content, `"content":"Help me plan the launch"`)
		})
	}
}

func TestFollowUpSuggestionsFailureFallback(t *testing.T) {
	gen := &stubGenerator{}
	m := seeded(t, gen)
	gen.err = domain.ErrRateLimited

	got := m.FollowUpSuggestions(context.Background(), "c")
	assert.Equal(t, domain.FallbackFollowUps, got)

	got[0] = "mutated"
	assert.NotEqual(t, "mutated", domain.FallbackFollowUps[0])
}

func TestActionItems(t *testing.T) {
	gen := &stubGenerator{}
	m := seeded(t, gen)
	gen.replies = []string{`[
		{"task": "Draft the launch email", "priority": "HIGH", "mentioned_by": "assistant"},
		{"task": "  ", "priority": "low", "mentioned_by": "user"},
		{"task": "Book the venue", "priority": "urgent", "mentioned_by": "someone"}
	]`}

	items := m.ActionItems(context.Background(), "c")
	assert.Equal(t, []domain.ActionItem{
		{Task: "Draft the launch email", Priority: domain.PriorityHigh, MentionedBy: domain.RoleAssistant},
		{Task: "Book the venue", Priority: domain.PriorityMedium, MentionedBy: domain.RoleUser},
	}, items)
	assert.Equal(t, 0.3, gen.lastCall(t).params.Temperature)
}

func TestActionItemsUnparseableOrFailed(t *testing.T) {
	gen := &stubGenerator{}
	m := seeded(t, gen)

	gen.replies = []string{"You should draft an email."}
	items := m.ActionItems(context.Background(), "c")
	assert.NotNil(t, items)
	assert.Empty(t, items)

	_, err := parseActionItems("not json")
	assert.ErrorIs(t, err, domain.ErrParse)

	gen.err = errors.New("boom")
	assert.Empty(t, m.ActionItems(context.Background(), "c"))
}

func TestRespondWithContext(t *testing.T) {
	ctx := context.Background()
	gen := &stubGenerator{replies: []string{"Tailored answer"}}
	m := newTestManager(t, gen, DefaultConfig())

	reply := m.RespondWithContext(ctx, "c", "What should I read next?", UserContext{
		Profile:        map[string]string{"name": "Ada"},
		PreviousTopics: []string{"poetry", "math"},
		Preferences:    map[string]string{"tone": "brief"},
	})
	require.NotNil(t, reply)
	assert.Equal(t, "Tailored answer", reply.Text)

	prompt := gen.lastCall(t).messages[1].Content
	assert.Contains(t, prompt, `User Profile: {"name":"Ada"}`)
	assert.Contains(t, prompt, "Recent Topics: poetry, math")
	assert.Contains(t, prompt, "Current Task: None")
	assert.Contains(t, prompt, `User Message: "What should I read next?"`)

	history := m.History(ctx, "c")
	require.Len(t, history, 2)
	assert.Equal(t, "What should I read next?", history[0].Content)
	assert.Equal(t, "Tailored answer", history[1].Content)

	gen.replies = []string{"Another answer"}
	require.NotNil(t, m.Send(ctx, "c", "Thanks", SendOptions{}))
	for _, msg := range gen.lastCall(t).messages {
		assert.NotContains(t, msg.Content, "User Profile")
	}
}

func TestRespondWithContextFallsBackToPlainSend(t *testing.T) {
	ctx := context.Background()
	gen := &stubGenerator{err: domain.ErrAuthentication}
	m := newTestManager(t, gen, DefaultConfig())

	reply := m.RespondWithContext(ctx, "c", "hello", UserContext{})
	require.NotNil(t, reply)
	assert.Equal(t, domain.KindAuthentication, reply.ErrorKind)
	require.Len(t, gen.calls, 2)
	assert.Equal(t, "hello", gen.lastCall(t).messages[1].Content)
}
