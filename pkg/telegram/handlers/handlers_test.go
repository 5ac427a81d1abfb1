package handlers

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/dskvich/simba-ai/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitMessage(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		maxLength int
		want      []string
	}{
		{name: "fits", text: "hello", maxLength: 10, want: []string{"hello"}},
		{name: "empty", text: "", maxLength: 10, want: nil},
		{name: "newline", text: "first line\nsecond", maxLength: 12, want: []string{"first line", "\nsecond"}},
		{name: "before pre", text: "intro\n<pre>code</pre>", maxLength: 15, want: []string{"intro\n", "<pre>code</pre>"}},
		{name: "hard cut", text: "abcdefghij", maxLength: 4, want: []string{"abcd", "efgh", "ij"}},
		{name: "runes", text: "привет мир", maxLength: 6, want: []string{"привет", " мир"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitMessage(tt.text, tt.maxLength))
		})
	}
}

func TestSplitMessageRespectsTelegramLimit(t *testing.T) {
	text := strings.Repeat("строка текста\n", 1000)

	parts := splitMessage(text, maxTelegramMessageLength)

	require.Greater(t, len(parts), 1)
	for _, p := range parts {
		assert.LessOrEqual(t, utf8.RuneCountInString(p), maxTelegramMessageLength)
	}
	assert.Equal(t, text, strings.Join(parts, ""))
}

func TestCommandArgs(t *testing.T) {
	assert.Equal(t, "be brief", commandArgs("/system_prompt   be brief "))
	assert.Equal(t, "", commandArgs("/system_prompt"))
}

func TestParseCallback(t *testing.T) {
	key, err := parseCallback("set_specialist_coder", domain.SetSpecialistCallbackPrefix)
	require.NoError(t, err)
	assert.Equal(t, "coder", key)

	_, err = parseCallback("set_voice_on", domain.SetSpecialistCallbackPrefix)
	assert.Error(t, err)

	_, err = parseCallback("set_specialist_", domain.SetSpecialistCallbackPrefix)
	assert.Error(t, err)
}

func TestParseVoice(t *testing.T) {
	on, err := parseVoice("set_voice_on")
	require.NoError(t, err)
	assert.True(t, on)

	off, err := parseVoice("set_voice_off")
	require.NoError(t, err)
	assert.False(t, off)

	_, err = parseVoice("set_voice_loud")
	assert.Error(t, err)
}

func TestSpecialistsKeyboard(t *testing.T) {
	kb := specialistsKeyboard([]domain.Specialist{
		{Key: "default", Name: "Simba", Emoji: "🦁"},
		{Key: "coder", Name: "Coder", Emoji: "💻"},
		{Key: "tutor", Name: "Tutor", Emoji: "📚"},
	})

	require.Len(t, kb.InlineKeyboard, 2)
	assert.Equal(t, "set_specialist_smart", kb.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "set_specialist_default", kb.InlineKeyboard[0][1].CallbackData)
	assert.Equal(t, "💻 Coder", kb.InlineKeyboard[1][0].Text)
	assert.Equal(t, "set_specialist_tutor", kb.InlineKeyboard[1][1].CallbackData)
}

func TestFormatFollowUps(t *testing.T) {
	got := formatFollowUps([]string{"Why?", "How?"})
	assert.Equal(t, "💡 You could ask next:\n1. Why?\n2. How?", got)
}

func TestFormatActionItems(t *testing.T) {
	assert.Equal(t, "✅ No action items found in this conversation.", formatActionItems(nil))

	got := formatActionItems([]domain.ActionItem{
		{Task: "Ship it", Priority: domain.PriorityHigh, MentionedBy: domain.RoleUser},
		{Task: "Write docs", Priority: domain.PriorityLow, MentionedBy: domain.RoleAssistant},
	})
	assert.Equal(t, "📋 Action items:\n🔴 Ship it (user)\n🟢 Write docs (assistant)", got)
}
