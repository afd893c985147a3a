package gift

import (
	"context"
	"errors"

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

func (r *postgresRepo) GetSettings(ctx context.Context) (domain.GiftSettings, error) {
	var s domain.GiftSettings
	err := r.pool.QueryRow(ctx, `SELECT active, COALESCE(product_id, '') FROM gift_settings WHERE id = 1`).Scan(&s.Active, &s.ProductID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.GiftSettings{}, nil
		}
		r.logger.Error().Err(err).Msg("gift repo: get settings")
		return domain.GiftSettings{}, err
	}
	return s, nil
}

func (r *postgresRepo) SaveSettings(ctx context.Context, s domain.GiftSettings) error {
	const q = `
INSERT INTO gift_settings (id, active, product_id, updated_at)
VALUES (1, $1, NULLIF($2, ''), now())
ON CONFLICT (id) DO UPDATE SET
    active = EXCLUDED.active,
    product_id = EXCLUDED.product_id,
    updated_at = now()
`
	if _, err := r.pool.Exec(ctx, q, s.Active, s.ProductID); err != nil {
		r.logger.Error().Err(err).Bool("active", s.Active).Msg("gift repo: save settings")
		return err
	}
	return nil
}

func (r *postgresRepo) ListRules(ctx context.Context) ([]domain.GiftRule, error) {
	const q = `
SELECT id::text, threshold, product_id
FROM gift_rules
WHERE active
ORDER BY threshold ASC
`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		r.logger.Error().Err(err).Msg("gift repo: list rules")
		return nil, err
	}
	defer rows.Close()

	var result []domain.GiftRule
	for rows.Next() {
		var rule domain.GiftRule
		if err := rows.Scan(&rule.ID, &rule.Threshold, &rule.ProductID); err != nil {
			return nil, err
		}
		result = append(result, rule)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("gift repo: list rules rows")
		return nil, err
	}
	return result, nil
}

func (r *postgresRepo) CreateRule(ctx context.Context, rule domain.GiftRule) (*domain.GiftRule, error) {
	out := rule
	err := r.pool.QueryRow(ctx, `INSERT INTO gift_rules (threshold, product_id) VALUES ($1, $2) RETURNING id::text`,
		rule.Threshold.Round(2), rule.ProductID).Scan(&out.ID)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", rule.ProductID).Msg("gift repo: create rule")
		return nil, err
	}
	return &out, nil
}
