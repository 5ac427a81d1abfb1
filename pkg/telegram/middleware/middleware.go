package middleware

import (
	"context"
	"log/slog"

	"github.com/dskvich/simba-ai/pkg/logger"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// RequestID tags the context with a fresh id so every log line of one update can be correlated.
func RequestID(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		ctx = logger.WithRequestID(ctx, uuid.NewString())
		next(ctx, b, update)
	}
}

// Auth drops updates from users outside authorizedUserIDs. An empty list allows everyone.
func Auth(authorizedUserIDs []int64) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			userID, ok := SenderID(update)
			if len(authorizedUserIDs) > 0 && (!ok || !lo.Contains(authorizedUserIDs, userID)) {
				slog.WarnContext(ctx, "unauthorized update", "user_id", userID)
				return
			}
			next(ctx, b, update)
		}
	}
}

// Typing shows the typing indicator while text messages are processed.
func Typing(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		if update.Message != nil && update.Message.Text != "" {
			_, err := b.SendChatAction(ctx, &bot.SendChatActionParams{
				ChatID:          update.Message.Chat.ID,
				MessageThreadID: update.Message.MessageThreadID,
				Action:          models.ChatActionTyping,
			})
			if err != nil {
				slog.WarnContext(ctx, "sending typing action", logger.Err(err))
			}
		}
		next(ctx, b, update)
	}
}

func SenderID(update *models.Update) (int64, bool) {
	switch {
	case update == nil:
		return 0, false
	case update.Message != nil && update.Message.From != nil:
		return update.Message.From.ID, true
	case update.CallbackQuery != nil:
		return update.CallbackQuery.From.ID, true
	default:
		return 0, false
	}
}
