package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type funcService struct {
	name  string
	start func(ctx context.Context) error
}

func (f funcService) Name() string                    { return f.name }
func (f funcService) Start(ctx context.Context) error { return f.start(ctx) }

func TestGroupStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	blocking := funcService{name: "blocking", start: func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	}}

	done := make(chan error, 1)
	go func() { done <- Group{blocking, blocking}.Start(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("group did not stop")
	}
}

func TestGroupFailureCancelsOthers(t *testing.T) {
	boom := errors.New("boom")
	failing := funcService{name: "failing", start: func(context.Context) error { return boom }}
	blocking := funcService{name: "blocking", start: func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	}}

	err := Group{failing, blocking}.Start(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestNewHTTPServerRequiresAddr(t *testing.T) {
	_, err := NewHTTPServer("", nil)
	assert.Error(t, err)
}

func TestNewTelegramBotRequiresBot(t *testing.T) {
	_, err := NewTelegramBot(nil)
	assert.Error(t, err)
}
