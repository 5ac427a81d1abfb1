package handlers

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

func Start(specialists SpecialistLister) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		var sb strings.Builder
		sb.WriteString("👋 Hi, I'm Simba AI. Ask me anything and I'll route your message to the right specialist.\n\n")
		sb.WriteString(specialistsText(specialists.Exposed()))
		sb.WriteString("\n\nCommands:\n")
		sb.WriteString("/new - start a new conversation\n")
		sb.WriteString("/specialists - choose a specialist\n")
		sb.WriteString("/voice - toggle voice replies\n")
		sb.WriteString("/system_prompt - show or set custom instructions\n")
		sb.WriteString("/summary - summarize the conversation\n")
		sb.WriteString("/followup - suggest follow-up questions\n")
		sb.WriteString("/tasks - extract action items")

		sendText(ctx, b, update.Message.Chat.ID, update.Message.MessageThreadID, sb.String())
	}
}
