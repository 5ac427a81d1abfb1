package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/dskvich/simba-ai/pkg/domain"
	"github.com/dskvich/simba-ai/pkg/logger"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const maxTelegramMessageLength = 4096

type PreferenceProvider interface {
	Get(ctx context.Context, chatID int64, topicID int) (*domain.ChatPreferences, error)
	Save(ctx context.Context, prefs *domain.ChatPreferences) error
}

func loadPreferences(ctx context.Context, provider PreferenceProvider, chatID int64, topicID int) (*domain.ChatPreferences, error) {
	prefs, err := provider.Get(ctx, chatID, topicID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NewChatPreferences(chatID, topicID), nil
		}
		return nil, fmt.Errorf("loading chat preferences: %w", err)
	}
	return prefs, nil
}

func sendText(ctx context.Context, b *bot.Bot, chatID int64, topicID int, text string) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:          chatID,
		MessageThreadID: topicID,
		Text:            text,
	})
	if err != nil {
		slog.ErrorContext(ctx, "sending telegram message", "chat_id", chatID, logger.Err(err))
	}
}

func sendHTML(ctx context.Context, b *bot.Bot, chatID int64, topicID int, htmlText string) {
	for _, part := range splitMessage(htmlText, maxTelegramMessageLength) {
		_, err := b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:          chatID,
			MessageThreadID: topicID,
			Text:            part,
			ParseMode:       models.ParseModeHTML,
		})
		if err != nil {
			slog.ErrorContext(ctx, "sending telegram message", "chat_id", chatID, logger.Err(err))
			sendText(ctx, b, chatID, topicID, fmt.Sprintf("❌ Failed to deliver the reply: %s", err))
			return
		}
	}
}

// splitMessage cuts text into parts of at most maxLength runes, preferring to cut before a
// <pre> block and then at a newline.
func splitMessage(text string, maxLength int) []string {
	var parts []string

	for text != "" {
		if utf8.RuneCountInString(text) <= maxLength {
			parts = append(parts, text)
			break
		}

		cut := findCutIndex(text, maxLength)
		parts = append(parts, text[:cut])
		text = text[cut:]
	}

	return parts
}

// findCutIndex returns a byte offset within the first maxLength runes of text.
func findCutIndex(text string, maxLength int) int {
	limit := byteOffset(text, maxLength)
	head := text[:limit]

	if i := strings.LastIndex(head, "<pre>"); i > 0 {
		return i
	}
	if i := strings.LastIndex(head, "\n"); i > 0 {
		return i
	}
	return limit
}

func byteOffset(text string, runes int) int {
	n := 0
	for i := range text {
		if n == runes {
			return i
		}
		n++
	}
	return len(text)
}

func commandArgs(text string) string {
	_, args, _ := strings.Cut(strings.TrimSpace(text), " ")
	return strings.TrimSpace(args)
}

func parseCallback(data, prefix string) (string, error) {
	if !strings.HasPrefix(data, prefix) {
		return "", fmt.Errorf("invalid format, expected prefix '%s'", prefix)
	}
	value := strings.TrimPrefix(data, prefix)
	if value == "" {
		return "", errors.New("empty callback value")
	}
	return value, nil
}

func conversationID(update *models.Update) string {
	return domain.TelegramConversationID(update.Message.Chat.ID, update.Message.MessageThreadID)
}
