package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const resetSystemPromptArg = "reset"

// SetSystemPrompt handles "/system_prompt [text]". Without text it shows the current prompt,
// "reset" removes it, anything else pins it for the chat.
func SetSystemPrompt(prefsProvider PreferenceProvider) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		chatID := update.Message.Chat.ID
		topicID := update.Message.MessageThreadID
		prompt := commandArgs(update.Message.Text)

		prefs, err := loadPreferences(ctx, prefsProvider, chatID, topicID)
		if err != nil {
			sendText(ctx, b, chatID, topicID, fmt.Sprintf("❌ Failed to load chat settings: %s", err))
			return
		}

		if prompt == "" {
			current := prefs.SystemPrompt
			if current == "" {
				current = "not set, the specialist's own instructions are used"
			}
			sendText(ctx, b, chatID, topicID, "⚙️ System prompt: "+current+
				"\n\nUse /system_prompt <text> to set it or /system_prompt reset to remove it.")
			return
		}

		if strings.EqualFold(prompt, resetSystemPromptArg) {
			prompt = ""
		}
		prefs.SystemPrompt = prompt

		if err = prefsProvider.Save(ctx, prefs); err != nil {
			sendText(ctx, b, chatID, topicID, fmt.Sprintf("❌ Failed to save chat settings: %s", err))
			return
		}

		if prompt == "" {
			sendText(ctx, b, chatID, topicID, "✅ System prompt removed")
			return
		}
		sendText(ctx, b, chatID, topicID, "✅ System prompt set: "+prompt)
	}
}
