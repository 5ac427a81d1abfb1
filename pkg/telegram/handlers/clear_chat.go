package handlers

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

type ChatClearer interface {
	Clear(ctx context.Context, conversationID string)
}

func ClearChat(clearer ChatClearer) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		slog.InfoContext(ctx, "clearing chat")

		clearer.Clear(ctx, conversationID(update))

		sendText(ctx, b, update.Message.Chat.ID, update.Message.MessageThreadID, "🧹 History cleared! Start a new chat. 🚀")
	}
}
