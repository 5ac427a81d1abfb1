package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/dskvich/simba-ai/pkg/domain"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/samber/lo"
)

const (
	voiceOn  = "on"
	voiceOff = "off"
)

func ShowVoice() bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		kb := &models.InlineKeyboardMarkup{
			InlineKeyboard: [][]models.InlineKeyboardButton{{
				{Text: "🔊 On", CallbackData: domain.SetVoiceCallbackPrefix + voiceOn},
				{Text: "🔇 Off", CallbackData: domain.SetVoiceCallbackPrefix + voiceOff},
			}},
		}

		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:          update.Message.Chat.ID,
			MessageThreadID: update.Message.MessageThreadID,
			Text:            "🎙 Voice replies:",
			ReplyMarkup:     kb,
		})
	}
}

func parseVoice(data string) (bool, error) {
	value, err := parseCallback(data, domain.SetVoiceCallbackPrefix)
	if err != nil {
		return false, err
	}

	switch value {
	case voiceOn:
		return true, nil
	case voiceOff:
		return false, nil
	default:
		return false, errors.New("unsupported voice option")
	}
}

func SetVoice(prefsProvider PreferenceProvider) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		chatID := update.CallbackQuery.Message.Message.Chat.ID
		topicID := update.CallbackQuery.Message.Message.MessageThreadID

		b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
			CallbackQueryID: update.CallbackQuery.ID,
			ShowAlert:       false,
		})

		enabled, err := parseVoice(update.CallbackQuery.Data)
		if err != nil {
			sendText(ctx, b, chatID, topicID, fmt.Sprintf("❌ Failed to read the voice option: %s", err))
			return
		}

		prefs, err := loadPreferences(ctx, prefsProvider, chatID, topicID)
		if err != nil {
			sendText(ctx, b, chatID, topicID, fmt.Sprintf("❌ Failed to load chat settings: %s", err))
			return
		}

		prefs.VoiceReplies = enabled

		if err = prefsProvider.Save(ctx, prefs); err != nil {
			sendText(ctx, b, chatID, topicID, fmt.Sprintf("❌ Failed to save chat settings: %s", err))
			return
		}

		sendText(ctx, b, chatID, topicID, "✅ Voice replies "+lo.Ternary(enabled, "enabled", "disabled"))
	}
}
