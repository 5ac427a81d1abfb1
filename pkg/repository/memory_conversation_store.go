package repository

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/dskvich/simba-ai/pkg/domain"
)

// memoryConversationStore keeps conversations for the lifetime of the process.
// The mutex protects the map only; callers are not serialized per conversation.
type memoryConversationStore struct {
	mu            sync.Mutex
	conversations map[string]*domain.Conversation
	now           func() time.Time
}

func NewMemoryConversationStore() *memoryConversationStore {
	return &memoryConversationStore{
		conversations: make(map[string]*domain.Conversation),
		now:           time.Now,
	}
}

func (s *memoryConversationStore) Get(_ context.Context, id string) (*domain.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv := s.getOrCreate(id)
	snapshot := *conv
	snapshot.Messages = slices.Clone(conv.Messages)
	if snapshot.Messages == nil {
		snapshot.Messages = []domain.Message{}
	}
	return &snapshot, nil
}

func (s *memoryConversationStore) Append(_ context.Context, id string, exchange domain.Exchange) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv := s.getOrCreate(id)
	conv.Messages = append(conv.Messages, exchange.Messages...)
	if exchange.Specialist != "" {
		conv.Specialist = exchange.Specialist
	}
	conv.MessageCount++
	conv.LastUpdatedAt = s.now()
	return nil
}

func (s *memoryConversationStore) Truncate(_ context.Context, id string, keep int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv := s.getOrCreate(id)
	if keep < 0 {
		keep = 0
	}
	if len(conv.Messages) > keep {
		conv.Messages = slices.Clone(conv.Messages[len(conv.Messages)-keep:])
	}
	return nil
}

func (s *memoryConversationStore) Clear(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv := s.getOrCreate(id)
	conv.Messages = nil
	conv.MessageCount = 0
	conv.LastUpdatedAt = s.now()
	return nil
}

func (s *memoryConversationStore) getOrCreate(id string) *domain.Conversation {
	conv, ok := s.conversations[id]
	if !ok {
		conv = domain.NewConversation(id)
		s.conversations[id] = conv
	}
	return conv
}
