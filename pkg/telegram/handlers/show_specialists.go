package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/dskvich/simba-ai/pkg/domain"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/samber/lo"
)

const smartRoutingLabel = "🧠 Smart routing"

type SpecialistLister interface {
	Exposed() []domain.Specialist
}

func ShowSpecialists(specialists SpecialistLister) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:          update.Message.Chat.ID,
			MessageThreadID: update.Message.MessageThreadID,
			Text:            specialistsText(specialists.Exposed()),
			ReplyMarkup:     specialistsKeyboard(specialists.Exposed()),
		})
	}
}

func specialistsText(specialists []domain.Specialist) string {
	lines := lo.Map(specialists, func(s domain.Specialist, _ int) string {
		return fmt.Sprintf("%s %s: %s", s.Emoji, s.Name, s.Description)
	})
	return "🧑‍🏫 Choose who answers your messages:\n\n" +
		smartRoutingLabel + ": picks the best specialist for every message\n" +
		strings.Join(lines, "\n")
}

func specialistsKeyboard(specialists []domain.Specialist) *models.InlineKeyboardMarkup {
	buttons := lo.Map(specialists, func(s domain.Specialist, _ int) models.InlineKeyboardButton {
		return models.InlineKeyboardButton{
			Text:         s.Emoji + " " + s.Name,
			CallbackData: domain.SetSpecialistCallbackPrefix + s.Key,
		}
	})
	buttons = append([]models.InlineKeyboardButton{{
		Text:         smartRoutingLabel,
		CallbackData: domain.SetSpecialistCallbackPrefix + domain.SpecialistSmart,
	}}, buttons...)

	return &models.InlineKeyboardMarkup{
		InlineKeyboard: lo.Chunk(buttons, 2), // 2 buttons in a row
	}
}
