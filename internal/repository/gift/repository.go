package gift

import (
	"context"

	"aquashop/internal/domain"
)

type Repository interface {
	// GetSettings returns inactive settings when none were saved.
	GetSettings(ctx context.Context) (domain.GiftSettings, error)
	SaveSettings(ctx context.Context, s domain.GiftSettings) error
	// ListRules returns active rules ordered by threshold.
	ListRules(ctx context.Context) ([]domain.GiftRule, error)
	CreateRule(ctx context.Context, rule domain.GiftRule) (*domain.GiftRule, error)
}
