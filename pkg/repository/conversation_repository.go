package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dskvich/simba-ai/pkg/domain"
	"github.com/uptrace/bun"
)

// conversationRepository stores conversations in postgres. Messages live in a jsonb column.
type conversationRepository struct {
	db *bun.DB
}

func NewConversationRepository(db *bun.DB) *conversationRepository {
	return &conversationRepository{db: db}
}

func (c *conversationRepository) Get(ctx context.Context, id string) (*domain.Conversation, error) {
	var conv *domain.Conversation

	err := c.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		conv, err = c.getOrCreate(ctx, tx, id, false)
		return err
	})
	if err != nil {
		return nil, err
	}

	if conv.Messages == nil {
		conv.Messages = []domain.Message{}
	}
	return conv, nil
}

func (c *conversationRepository) Append(ctx context.Context, id string, exchange domain.Exchange) error {
	return c.update(ctx, id, func(conv *domain.Conversation) {
		conv.Messages = append(conv.Messages, exchange.Messages...)
		if exchange.Specialist != "" {
			conv.Specialist = exchange.Specialist
		}
		conv.MessageCount++
		conv.LastUpdatedAt = time.Now()
	})
}

func (c *conversationRepository) Truncate(ctx context.Context, id string, keep int) error {
	return c.update(ctx, id, func(conv *domain.Conversation) {
		if keep < 0 {
			keep = 0
		}
		if len(conv.Messages) > keep {
			conv.Messages = conv.Messages[len(conv.Messages)-keep:]
		}
	})
}

func (c *conversationRepository) Clear(ctx context.Context, id string) error {
	return c.update(ctx, id, func(conv *domain.Conversation) {
		conv.Messages = []domain.Message{}
		conv.MessageCount = 0
		conv.LastUpdatedAt = time.Now()
	})
}

func (c *conversationRepository) update(ctx context.Context, id string, fn func(conv *domain.Conversation)) error {
	return c.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		conv, err := c.getOrCreate(ctx, tx, id, true)
		if err != nil {
			return err
		}

		fn(conv)

		_, err = tx.NewUpdate().
			Model(conv).
			Column("messages", "specialist", "last_updated_at", "message_count").
			WherePK().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("updating conversation %s: %w", id, err)
		}
		return nil
	})
}

func (c *conversationRepository) getOrCreate(ctx context.Context, tx bun.Tx, id string, forUpdate bool) (*domain.Conversation, error) {
	_, err := tx.NewInsert().
		Model(domain.NewConversation(id)).
		On("CONFLICT (id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating conversation %s: %w", id, err)
	}

	var conv domain.Conversation
	q := tx.NewSelect().
		Model(&conv).
		Where("id = ?", id)
	if forUpdate {
		q = q.For("UPDATE")
	}

	if err := q.Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("fetching conversation %s: %w", id, err)
	}

	return &conv, nil
}
