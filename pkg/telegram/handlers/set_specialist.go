package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/dskvich/simba-ai/pkg/domain"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

type SetSpecialistRegistry interface {
	IsExposed(key string) bool
	Resolve(key string) domain.Specialist
}

func SetSpecialist(prefsProvider PreferenceProvider, specialists SetSpecialistRegistry) bot.HandlerFunc {
	parseSpecialist := func(data string) (string, error) {
		key, err := parseCallback(data, domain.SetSpecialistCallbackPrefix)
		if err != nil {
			return "", err
		}
		if key != domain.SpecialistSmart && !specialists.IsExposed(key) {
			return "", errors.New("unsupported specialist")
		}
		return key, nil
	}

	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		chatID := update.CallbackQuery.Message.Message.Chat.ID
		topicID := update.CallbackQuery.Message.Message.MessageThreadID

		b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
			CallbackQueryID: update.CallbackQuery.ID,
			ShowAlert:       false,
		})

		key, err := parseSpecialist(update.CallbackQuery.Data)
		if err != nil {
			sendText(ctx, b, chatID, topicID, fmt.Sprintf("❌ Failed to read the specialist: %s", err))
			return
		}

		prefs, err := loadPreferences(ctx, prefsProvider, chatID, topicID)
		if err != nil {
			sendText(ctx, b, chatID, topicID, fmt.Sprintf("❌ Failed to load chat settings: %s", err))
			return
		}

		prefs.Specialist = key

		if err = prefsProvider.Save(ctx, prefs); err != nil {
			sendText(ctx, b, chatID, topicID, fmt.Sprintf("❌ Failed to save chat settings: %s", err))
			return
		}

		sendText(ctx, b, chatID, topicID, "✅ Specialist set: "+specialistLabel(specialists, key))
	}
}

func specialistLabel(specialists SetSpecialistRegistry, key string) string {
	if key == domain.SpecialistSmart {
		return smartRoutingLabel
	}
	s := specialists.Resolve(key)
	return s.Emoji + " " + s.Name
}
