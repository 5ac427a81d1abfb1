package handlers

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dskvich/simba-ai/pkg/domain"
	"github.com/dskvich/simba-ai/pkg/llm/openai"
	"github.com/dskvich/simba-ai/pkg/logger"
	"github.com/dskvich/simba-ai/pkg/render"
	"github.com/dskvich/simba-ai/pkg/router"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/samber/lo"
)

type generateContentRouter interface {
	Route(ctx context.Context, message string, opts router.Options) *domain.Reply
}

type generateContentSpecialists interface {
	Resolve(key string) domain.Specialist
	FormatReply(specialistKey, text string) string
}

type Speaker interface {
	Speak(ctx context.Context, text, voice string, format openai.AudioFormat) ([]byte, error)
}

// GenerateContent answers any non-command text through the router with the chat's pinned
// specialist and system prompt, and optionally follows up with a voice message.
func GenerateContent(
	prefsProvider PreferenceProvider,
	r generateContentRouter,
	specialists generateContentSpecialists,
	speaker Speaker,
) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		if update.Message == nil {
			return
		}

		chatID := update.Message.Chat.ID
		topicID := update.Message.MessageThreadID
		text := strings.TrimSpace(lo.CoalesceOrEmpty(update.Message.Text, update.Message.Caption))
		if text == "" {
			sendText(ctx, b, chatID, topicID, "✍️ Send me a text message.")
			return
		}

		prefs, err := loadPreferences(ctx, prefsProvider, chatID, topicID)
		if err != nil {
			sendText(ctx, b, chatID, topicID, fmt.Sprintf("❌ Failed to load chat settings: %s", err))
			return
		}

		reply := r.Route(ctx, text, router.Options{
			ConversationID: conversationID(update),
			Specialist:     prefs.Specialist,
			SystemPrompt:   prefs.SystemPrompt,
		})
		if reply == nil {
			return
		}

		slog.InfoContext(ctx, "reply generated",
			"specialist", reply.Specialist,
			"failed", reply.Failed(),
			"total_tokens", reply.Usage.TotalTokens,
		)

		sendHTML(ctx, b, chatID, topicID, render.ToHTML(specialists.FormatReply(reply.Specialist, reply.Text)))

		if !prefs.VoiceReplies || reply.Failed() {
			return
		}

		voice := specialists.Resolve(reply.Specialist).Voice
		audio, err := speaker.Speak(ctx, reply.Text, voice, openai.AudioFormatOpus)
		if err != nil {
			slog.ErrorContext(ctx, "synthesizing voice reply", logger.Err(err))
			sendText(ctx, b, chatID, topicID, "❌ Failed to generate a voice reply.")
			return
		}

		_, err = b.SendVoice(ctx, &bot.SendVoiceParams{
			ChatID:          chatID,
			MessageThreadID: topicID,
			Voice:           &models.InputFileUpload{Filename: "reply.ogg", Data: bytes.NewReader(audio)},
		})
		if err != nil {
			slog.ErrorContext(ctx, "sending voice reply", logger.Err(err))
		}
	}
}
