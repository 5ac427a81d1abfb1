package repository

import (
	"context"
	"testing"

	"github.com/dskvich/simba-ai/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryPreferenceRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryPreferenceRepository()

	_, err := repo.Get(ctx, 1, 0)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	prefs := domain.NewChatPreferences(1, 0)
	prefs.VoiceReplies = true
	require.NoError(t, repo.Save(ctx, prefs))

	got, err := repo.Get(ctx, 1, 0)
	require.NoError(t, err)
	assert.True(t, got.VoiceReplies)
	assert.Equal(t, domain.SpecialistSmart, got.Specialist)

	got.Specialist = domain.SpecialistCoder
	stored, err := repo.Get(ctx, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, domain.SpecialistSmart, stored.Specialist)

	_, err = repo.Get(ctx, 1, 7)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
