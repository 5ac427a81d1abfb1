package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/dskvich/simba-ai/pkg/domain"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "simba:conversation:"

const (
	fieldSpecialist    = "specialist"
	fieldCreatedAt     = "created_at"
	fieldLastUpdatedAt = "last_updated_at"
	fieldMessageCount  = "message_count"
)

// redisConversationStore keeps conversation metadata in a hash and messages in a list.
type redisConversationStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisConversationStore returns a store whose keys expire after ttl of inactivity.
// Zero ttl keeps conversations forever.
func NewRedisConversationStore(rdb *redis.Client, ttl time.Duration) *redisConversationStore {
	return &redisConversationStore{rdb: rdb, ttl: ttl}
}

func metaKey(id string) string {
	return redisKeyPrefix + id + ":meta"
}

func messagesKey(id string) string {
	return redisKeyPrefix + id + ":messages"
}

func (s *redisConversationStore) Get(ctx context.Context, id string) (*domain.Conversation, error) {
	if err := s.ensure(ctx, id); err != nil {
		return nil, err
	}

	pipe := s.rdb.Pipeline()
	metaCmd := pipe.HGetAll(ctx, metaKey(id))
	msgsCmd := pipe.LRange(ctx, messagesKey(id), 0, -1)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("fetching conversation %s: %w", id, err)
	}

	conv, err := decodeMeta(id, metaCmd.Val())
	if err != nil {
		return nil, err
	}
	conv.Messages, err = decodeMessages(msgsCmd.Val())
	if err != nil {
		return nil, fmt.Errorf("decoding messages of %s: %w", id, err)
	}

	return conv, nil
}

func (s *redisConversationStore) Append(ctx context.Context, id string, exchange domain.Exchange) error {
	if err := s.ensure(ctx, id); err != nil {
		return err
	}

	values := make([]any, 0, len(exchange.Messages))
	for _, m := range exchange.Messages {
		data, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("encoding message: %w", err)
		}
		values = append(values, data)
	}

	pipe := s.rdb.TxPipeline()
	if len(values) > 0 {
		pipe.RPush(ctx, messagesKey(id), values...)
	}
	pipe.HIncrBy(ctx, metaKey(id), fieldMessageCount, 1)
	meta := map[string]any{fieldLastUpdatedAt: formatTime(time.Now())}
	if exchange.Specialist != "" {
		meta[fieldSpecialist] = exchange.Specialist
	}
	pipe.HSet(ctx, metaKey(id), meta)
	s.expire(ctx, pipe, id)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("appending to conversation %s: %w", id, err)
	}
	return nil
}

func (s *redisConversationStore) Truncate(ctx context.Context, id string, keep int) error {
	var err error
	if keep <= 0 {
		err = s.rdb.Del(ctx, messagesKey(id)).Err()
	} else {
		err = s.rdb.LTrim(ctx, messagesKey(id), int64(-keep), -1).Err()
	}
	if err != nil {
		return fmt.Errorf("truncating conversation %s: %w", id, err)
	}
	return nil
}

func (s *redisConversationStore) Clear(ctx context.Context, id string) error {
	if err := s.ensure(ctx, id); err != nil {
		return err
	}

	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, messagesKey(id))
	pipe.HSet(ctx, metaKey(id), map[string]any{
		fieldMessageCount:  0,
		fieldLastUpdatedAt: formatTime(time.Now()),
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("clearing conversation %s: %w", id, err)
	}
	return nil
}

// ensure creates the metadata hash of a new conversation without touching an existing one.
func (s *redisConversationStore) ensure(ctx context.Context, id string) error {
	conv := domain.NewConversation(id)

	pipe := s.rdb.Pipeline()
	for field, value := range encodeMeta(conv) {
		pipe.HSetNX(ctx, metaKey(id), field, value)
	}
	s.expire(ctx, pipe, id)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("creating conversation %s: %w", id, err)
	}
	return nil
}

func (s *redisConversationStore) expire(ctx context.Context, pipe redis.Pipeliner, id string) {
	if s.ttl <= 0 {
		return
	}
	pipe.Expire(ctx, metaKey(id), s.ttl)
	pipe.Expire(ctx, messagesKey(id), s.ttl)
}

func encodeMeta(conv *domain.Conversation) map[string]string {
	return map[string]string{
		fieldSpecialist:    conv.Specialist,
		fieldCreatedAt:     formatTime(conv.CreatedAt),
		fieldLastUpdatedAt: formatTime(conv.LastUpdatedAt),
		fieldMessageCount:  strconv.Itoa(conv.MessageCount),
	}
}

func decodeMeta(id string, fields map[string]string) (*domain.Conversation, error) {
	conv := domain.NewConversation(id)

	if v, ok := fields[fieldSpecialist]; ok && v != "" {
		conv.Specialist = v
	}
	if v, ok := fields[fieldCreatedAt]; ok {
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return nil, fmt.Errorf("parsing %s of %s: %w", fieldCreatedAt, id, err)
		}
		conv.CreatedAt = t
	}
	if v, ok := fields[fieldLastUpdatedAt]; ok {
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return nil, fmt.Errorf("parsing %s of %s: %w", fieldLastUpdatedAt, id, err)
		}
		conv.LastUpdatedAt = t
	}
	if v, ok := fields[fieldMessageCount]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("parsing %s of %s: %w", fieldMessageCount, id, err)
		}
		conv.MessageCount = n
	}

	return conv, nil
}

func decodeMessages(raw []string) ([]domain.Message, error) {
	messages := make([]domain.Message, 0, len(raw))
	for _, r := range raw {
		var m domain.Message
		if err := json.Unmarshal([]byte(r), &m); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
