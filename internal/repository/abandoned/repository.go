package abandoned

import (
	"context"
	"time"

	"aquashop/internal/domain"
)

type Repository interface {
	// Upsert writes the cart snapshot for the email and resets its status to abandoned.
	Upsert(ctx context.Context, cart domain.AbandonedCart) error
	// MarkRecovered flags the record as recovered; a missing email is domain.ErrNotFound.
	MarkRecovered(ctx context.Context, email string, at time.Time) error
	Get(ctx context.Context, email string) (*domain.AbandonedCart, error)
}
