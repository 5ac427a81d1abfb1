package router

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dskvich/simba-ai/pkg/domain"
)

const DefaultBatchDelay = time.Second

type BatchOptions struct {
	// Specialist is "smart" to route each query, an exposed key to force that specialist,
	// anything else for the default specialist.
	Specialist     string
	ConversationID string
	// Delay is waited after each successful query to stay under vendor rate limits.
	// Nil means DefaultBatchDelay; zero disables the wait.
	Delay *time.Duration
}

func (o BatchOptions) delay() time.Duration {
	if o.Delay == nil {
		return DefaultBatchDelay
	}
	return *o.Delay
}

type BatchResult struct {
	Query   string        `json:"query"`
	Reply   *domain.Reply `json:"result,omitempty"`
	Error   string        `json:"error,omitempty"`
	Success bool          `json:"success"`
}

// BatchProcess answers queries one after another and returns one result per query, in order.
// A failed query does not stop the batch.
func (r *Router) BatchProcess(ctx context.Context, queries []string, opts BatchOptions) []BatchResult {
	results := make([]BatchResult, 0, len(queries))
	delay := opts.delay()

	for i, query := range queries {
		if err := ctx.Err(); err != nil {
			results = append(results, BatchResult{Query: query, Error: err.Error()})
			continue
		}

		reply := r.batchOne(ctx, query, opts)
		switch {
		case reply == nil:
			results = append(results, BatchResult{Query: query, Error: domain.ErrEmptyInput.Error()})
			continue
		case reply.Failed():
			results = append(results, BatchResult{Query: query, Reply: reply, Error: reply.Error})
			continue
		}

		results = append(results, BatchResult{Query: query, Reply: reply, Success: true})

		if delay > 0 && i < len(queries)-1 {
			if err := sleep(ctx, delay); err != nil {
				slog.WarnContext(ctx, "batch interrupted", "processed", i+1, "total", len(queries))
			}
		}
	}

	return results
}

func (r *Router) batchOne(ctx context.Context, query string, opts BatchOptions) *domain.Reply {
	routeOpts := Options{ConversationID: opts.ConversationID}

	switch {
	case opts.Specialist == domain.SpecialistSmart:
	case r.specialists.IsExposed(opts.Specialist):
		routeOpts.Specialist = opts.Specialist
	default:
		routeOpts.Specialist = domain.SpecialistDefault
	}

	return r.Route(ctx, query, routeOpts)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("waiting between batch items: %w", ctx.Err())
	case <-t.C:
		return nil
	}
}
