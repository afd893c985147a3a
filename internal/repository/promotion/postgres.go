package promotion

import (
	"context"
	"errors"
	"time"

	"aquashop/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
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

func (r *postgresRepo) GetActive(ctx context.Context, productID, variantKey string, now time.Time) (*domain.Promotion, error) {
	const q = `
SELECT id::text, product_id, variant_key, base_price, discount_amount, discount_percentage,
       COALESCE(stripe_price_id, ''), COALESCE(stripe_discount_price_id, ''), starts_at, ends_at
FROM product_promotions
WHERE product_id = $1
  AND variant_key = $2
  AND is_active
  AND (starts_at IS NULL OR starts_at <= $3)
  AND (ends_at IS NULL OR ends_at >= $3)
ORDER BY created_at DESC
LIMIT 1
`
	var p domain.Promotion
	var amount, pct decimal.NullDecimal
	err := r.pool.QueryRow(ctx, q, productID, variantKey, now).Scan(
		&p.ID,
		&p.ProductID,
		&p.VariantKey,
		&p.BasePrice,
		&amount,
		&pct,
		&p.PriceRef,
		&p.DiscountPriceRef,
		&p.StartsAt,
		&p.EndsAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error().Err(err).Str("product_id", productID).Str("variant_key", variantKey).Msg("promotion repo: get active")
		return nil, err
	}
	if amount.Valid {
		p.DiscountAmount = &amount.Decimal
	}
	if pct.Valid {
		p.DiscountPercentage = &pct.Decimal
	}
	return &p, nil
}

func (r *postgresRepo) Create(ctx context.Context, p domain.Promotion) (*domain.Promotion, error) {
	const q = `
INSERT INTO product_promotions (product_id, variant_key, base_price, discount_amount, discount_percentage,
                                stripe_price_id, stripe_discount_price_id, starts_at, ends_at)
VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), $8, $9)
RETURNING id::text
`
	if p.VariantKey == "" {
		p.VariantKey = domain.DefaultVariantKey
	}
	err := r.pool.QueryRow(ctx, q,
		p.ProductID,
		p.VariantKey,
		p.BasePrice,
		nullable(p.DiscountAmount),
		nullable(p.DiscountPercentage),
		p.PriceRef,
		p.DiscountPriceRef,
		p.StartsAt,
		p.EndsAt,
	).Scan(&p.ID)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", p.ProductID).Msg("promotion repo: create")
		return nil, err
	}
	return &p, nil
}

func nullable(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}
