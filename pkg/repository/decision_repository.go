package repository

import (
	"context"
	"fmt"

	"github.com/dskvich/simba-ai/pkg/domain"
	"github.com/uptrace/bun"
)

type decisionRepository struct {
	db *bun.DB
}

func NewDecisionRepository(db *bun.DB) *decisionRepository {
	return &decisionRepository{db: db}
}

func (d *decisionRepository) Save(ctx context.Context, decision *domain.RoutingDecision) error {
	_, err := d.db.NewInsert().
		Model(decision).
		Returning("id").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("saving routing decision: %w", err)
	}

	return nil
}
