package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/dskvich/simba-ai/pkg/domain"
	"github.com/dskvich/simba-ai/pkg/render"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/samber/lo"
)

type ConversationSummarizer interface {
	Summary(ctx context.Context, conversationID string) string
}

type FollowUpSuggester interface {
	FollowUpSuggestions(ctx context.Context, conversationID string) []string
}

type ActionItemExtractor interface {
	ActionItems(ctx context.Context, conversationID string) []domain.ActionItem
}

func Summary(summarizer ConversationSummarizer) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		summary := summarizer.Summary(ctx, conversationID(update))
		sendHTML(ctx, b, update.Message.Chat.ID, update.Message.MessageThreadID, render.ToHTML("📝 "+summary))
	}
}

func FollowUps(suggester FollowUpSuggester) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		suggestions := suggester.FollowUpSuggestions(ctx, conversationID(update))
		sendText(ctx, b, update.Message.Chat.ID, update.Message.MessageThreadID, formatFollowUps(suggestions))
	}
}

func ActionItems(extractor ActionItemExtractor) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		items := extractor.ActionItems(ctx, conversationID(update))
		sendText(ctx, b, update.Message.Chat.ID, update.Message.MessageThreadID, formatActionItems(items))
	}
}

func formatFollowUps(suggestions []string) string {
	lines := lo.Map(suggestions, func(s string, i int) string {
		return fmt.Sprintf("%d. %s", i+1, s)
	})
	return "💡 You could ask next:\n" + strings.Join(lines, "\n")
}

var priorityMarks = map[domain.Priority]string{
	domain.PriorityHigh:   "🔴",
	domain.PriorityMedium: "🟡",
	domain.PriorityLow:    "🟢",
}

func formatActionItems(items []domain.ActionItem) string {
	if len(items) == 0 {
		return "✅ No action items found in this conversation."
	}

	lines := lo.Map(items, func(item domain.ActionItem, _ int) string {
		return fmt.Sprintf("%s %s (%s)", priorityMarks[item.Priority], item.Task, item.MentionedBy)
	})
	return "📋 Action items:\n" + strings.Join(lines, "\n")
}
