package abandoned

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"aquashop/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zerolog.Logger) Repository {
	l := zerolog.Nop()
	if logger != nil {
		l = *logger
	}
	return &postgresRepo{pool: pool, logger: l}
}

func (r *postgresRepo) Upsert(ctx context.Context, cart domain.AbandonedCart) error {
	items, err := json.Marshal(cart.Items)
	if err != nil {
		return fmt.Errorf("encode abandoned items: %w", err)
	}
	const q = `
INSERT INTO abandoned_carts (email, user_id, items, subtotal, item_count, status, created_at, updated_at)
VALUES ($1, NULLIF($2, ''), $3, $4, $5, 'abandoned', now(), now())
ON CONFLICT (email) DO UPDATE SET
    user_id = COALESCE(EXCLUDED.user_id, abandoned_carts.user_id),
    items = EXCLUDED.items,
    subtotal = EXCLUDED.subtotal,
    item_count = EXCLUDED.item_count,
    status = 'abandoned',
    recovered_at = NULL,
    updated_at = now()
`
	email := normalizeEmail(cart.Email)
	if _, err := r.pool.Exec(ctx, q, email, cart.UserID, items, cart.Subtotal.Round(2), cart.ItemCount); err != nil {
		r.logger.Error().Err(err).Str("email", email).Msg("abandoned repo: upsert")
		return err
	}
	r.logger.Debug().Str("email", email).Int("item_count", cart.ItemCount).Msg("abandoned repo: upserted")
	return nil
}

func (r *postgresRepo) MarkRecovered(ctx context.Context, email string, at time.Time) error {
	const q = `
UPDATE abandoned_carts
SET status = 'recovered',
    recovered_at = $2,
    updated_at = $2
WHERE email = $1
`
	cmd, err := r.pool.Exec(ctx, q, normalizeEmail(email), at)
	if err != nil {
		r.logger.Error().Err(err).Str("email", email).Msg("abandoned repo: mark recovered")
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) Get(ctx context.Context, email string) (*domain.AbandonedCart, error) {
	const q = `
SELECT email, COALESCE(user_id, ''), items, subtotal, item_count, status, created_at, updated_at, recovered_at
FROM abandoned_carts
WHERE email = $1
`
	var out domain.AbandonedCart
	var items []byte
	err := r.pool.QueryRow(ctx, q, normalizeEmail(email)).Scan(
		&out.Email,
		&out.UserID,
		&items,
		&out.Subtotal,
		&out.ItemCount,
		&out.Status,
		&out.CreatedAt,
		&out.UpdatedAt,
		&out.RecoveredAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(items, &out.Items); err != nil {
		return nil, fmt.Errorf("decode abandoned items: %w", err)
	}
	return &out, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
