package middleware

import (
	"context"
	"testing"

	"github.com/dskvich/simba-ai/pkg/logger"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
)

func messageFrom(userID int64) *models.Update {
	return &models.Update{Message: &models.Message{From: &models.User{ID: userID}, Chat: models.Chat{ID: 1}}}
}

func TestSenderID(t *testing.T) {
	id, ok := SenderID(messageFrom(42))
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)

	id, ok = SenderID(&models.Update{CallbackQuery: &models.CallbackQuery{From: models.User{ID: 7}}})
	assert.True(t, ok)
	assert.Equal(t, int64(7), id)

	_, ok = SenderID(&models.Update{})
	assert.False(t, ok)
}

func TestAuth(t *testing.T) {
	tests := []struct {
		name    string
		allowed []int64
		update  *models.Update
		want    bool
	}{
		{name: "allowed", allowed: []int64{1, 42}, update: messageFrom(42), want: true},
		{name: "denied", allowed: []int64{1}, update: messageFrom(42), want: false},
		{name: "empty list allows everyone", update: messageFrom(42), want: true},
		{name: "unknown sender denied", allowed: []int64{1}, update: &models.Update{}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			h := Auth(tt.allowed)(func(context.Context, *bot.Bot, *models.Update) { called = true })

			h(context.Background(), nil, tt.update)

			assert.Equal(t, tt.want, called)
		})
	}
}

func TestRequestID(t *testing.T) {
	var got string
	h := RequestID(func(ctx context.Context, _ *bot.Bot, _ *models.Update) {
		got = logger.RequestID(ctx)
	})

	h(context.Background(), nil, &models.Update{})

	assert.Len(t, got, 36)
}
