package promotion

import (
	"context"
	"time"

	"aquashop/internal/domain"
)

type Repository interface {
	// GetActive returns the newest active promotion for (product, variant key) at now,
	// or domain.ErrNotFound.
	GetActive(ctx context.Context, productID, variantKey string, now time.Time) (*domain.Promotion, error)
	Create(ctx context.Context, p domain.Promotion) (*domain.Promotion, error)
}
