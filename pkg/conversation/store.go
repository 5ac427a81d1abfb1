package conversation

import (
	"context"

	"github.com/dskvich/simba-ai/pkg/domain"
)

// Store holds conversations keyed by id. Get creates a conversation on first access.
// Implementations guard their own data structures but do not serialize callers: two sends on
// the same id may read the same history and append in whichever order they finish.
type Store interface {
	Get(ctx context.Context, id string) (*domain.Conversation, error)
	Append(ctx context.Context, id string, exchange domain.Exchange) error
	// Truncate keeps the newest keep messages, dropping the oldest first.
	Truncate(ctx context.Context, id string, keep int) error
	Clear(ctx context.Context, id string) error
}
