package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dskvich/simba-ai/pkg/domain"
	"github.com/uptrace/bun"
)

type preferenceRepository struct {
	db *bun.DB
}

func NewPreferenceRepository(db *bun.DB) *preferenceRepository {
	return &preferenceRepository{db: db}
}

func (p *preferenceRepository) Save(ctx context.Context, prefs *domain.ChatPreferences) error {
	prefs.LastUpdate = time.Now()

	_, err := p.db.NewInsert().
		Model(prefs).
		On("CONFLICT (chat_id, topic_id) DO UPDATE").
		Set("specialist = EXCLUDED.specialist").
		Set("voice_replies = EXCLUDED.voice_replies").
		Set("system_prompt = EXCLUDED.system_prompt").
		Set("last_update = EXCLUDED.last_update").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("saving chat preferences: %w", err)
	}
	return nil
}

func (p *preferenceRepository) Get(ctx context.Context, chatID int64, topicID int) (*domain.ChatPreferences, error) {
	var prefs domain.ChatPreferences

	err := p.db.NewSelect().
		Model(&prefs).
		Where("chat_id = ?", chatID).
		Where("topic_id = ?", topicID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("fetching chat preferences: %w", err)
	}

	return &prefs, nil
}

type preferenceKey struct {
	chatID  int64
	topicID int
}

type memoryPreferenceRepository struct {
	mu    sync.Mutex
	prefs map[preferenceKey]domain.ChatPreferences
}

func NewMemoryPreferenceRepository() *memoryPreferenceRepository {
	return &memoryPreferenceRepository{prefs: make(map[preferenceKey]domain.ChatPreferences)}
}

func (m *memoryPreferenceRepository) Save(_ context.Context, prefs *domain.ChatPreferences) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	prefs.LastUpdate = time.Now()
	m.prefs[preferenceKey{chatID: prefs.ChatID, topicID: prefs.TopicID}] = *prefs
	return nil
}

func (m *memoryPreferenceRepository) Get(_ context.Context, chatID int64, topicID int) (*domain.ChatPreferences, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prefs, ok := m.prefs[preferenceKey{chatID: chatID, topicID: topicID}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &prefs, nil
}
