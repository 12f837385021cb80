package gorm

import (
	"context"
	"fmt"

	"github.com/convivio/convivio/internal/domain/menu"
	"github.com/convivio/convivio/internal/ports/outbound"
	"gorm.io/gorm"
)

// CaseRepository implements outbound.CaseRepository using GORM. Unlike the
// file store, durability is per row: appending a case inserts one record
// inside a transaction instead of rewriting the collection.
type CaseRepository struct {
	db *gorm.DB
}

// NewCaseRepository creates a case repository.
func NewCaseRepository(db *gorm.DB) outbound.CaseRepository {
	return &CaseRepository{db: db}
}

// All returns every persisted case in ordinal order.
func (r *CaseRepository) All(ctx context.Context) ([]*menu.MenuCase, error) {
	var models []CaseModel
	if err := r.db.WithContext(ctx).Order("ordinal ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("load case base: %w", err)
	}

	cases := make([]*menu.MenuCase, 0, len(models))
	for i := range models {
		c, err := CaseFromModel(&models[i])
		if err != nil {
			return nil, fmt.Errorf("restore case %s: %w", models[i].ID, err)
		}
		cases = append(cases, c)
	}
	return cases, nil
}

// NextOrdinal returns the sequential id the next retained case receives.
func (r *CaseRepository) NextOrdinal(ctx context.Context) (int, error) {
	var max int
	err := r.db.WithContext(ctx).
		Model(&CaseModel{}).
		Select("COALESCE(MAX(ordinal), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, fmt.Errorf("next ordinal: %w", err)
	}
	return max + 1, nil
}

// Append inserts the evaluated case. An unevaluated candidate is refused
// before touching the database.
func (r *CaseRepository) Append(ctx context.Context, c *menu.MenuCase) error {
	if c.Evaluation() == nil {
		return menu.ErrCaseNotEvaluated
	}
	model := ModelFromCase(c)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("append case: %w", err)
	}
	return nil
}
