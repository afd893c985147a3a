package cart

import (
	"context"
	"errors"

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

func (r *postgresRepo) ListByUser(ctx context.Context, userID string) ([]domain.CartRow, error) {
	const q = `
SELECT ci.user_id, ci.product_id, ci.quantity, ci.variant,
       COALESCE(ci.stripe_price_id, ''), COALESCE(ci.stripe_discount_price_id, ''),
       ci.original_price, ci.discount_percentage, ci.has_discount, ci.is_gift, ci.threshold_gift,
       COALESCE(ci.title, ''), ci.created_at,
       COALESCE(p.title, ''), p.price, COALESCE(p.image_url, ''), COALESCE(p.category_key, '')
FROM cart_items ci
LEFT JOIN products p ON p.id = ci.product_id
WHERE ci.user_id = $1
ORDER BY ci.created_at ASC, ci.id ASC
`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID).Msg("cart repo: list")
		return nil, err
	}
	defer rows.Close()

	var result []domain.CartRow
	for rows.Next() {
		var row domain.CartRow
		var orig, pct, productPrice decimal.NullDecimal
		if err := rows.Scan(
			&row.UserID,
			&row.ProductID,
			&row.Quantity,
			&row.Variant,
			&row.PriceRef,
			&row.DiscountPriceRef,
			&orig,
			&pct,
			&row.HasDiscount,
			&row.IsGift,
			&row.ThresholdGift,
			&row.Title,
			&row.CreatedAt,
			&row.ProductTitle,
			&productPrice,
			&row.ImageURL,
			&row.Category,
		); err != nil {
			return nil, err
		}
		row.OriginalPrice = decimalPtr(orig)
		row.DiscountPercentage = decimalPtr(pct)
		row.ProductPrice = decimalPtr(productPrice)
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Str("user_id", userID).Msg("cart repo: list rows")
		return nil, err
	}
	r.logger.Debug().Str("user_id", userID).Int("count", len(result)).Msg("cart repo: list")
	return result, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, row domain.CartRow) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var id int64
	err = tx.QueryRow(ctx, `
SELECT id
FROM cart_items
WHERE user_id = $1 AND product_id = $2 AND variant = $3 AND NOT is_gift AND NOT threshold_gift
FOR UPDATE
`, row.UserID, row.ProductID, row.Variant).Scan(&id)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	if err == nil {
		if _, err := tx.Exec(ctx, `
UPDATE cart_items
SET quantity = $1,
    stripe_price_id = NULLIF($2, ''),
    stripe_discount_price_id = NULLIF($3, ''),
    original_price = $4,
    discount_percentage = $5,
    has_discount = $6,
    updated_at = now()
WHERE id = $7
`, row.Quantity, row.PriceRef, row.DiscountPriceRef, nullable(row.OriginalPrice), nullable(row.DiscountPercentage), row.HasDiscount, id); err != nil {
			r.logger.Error().Err(err).Str("user_id", row.UserID).Str("product_id", row.ProductID).Msg("cart repo: update")
			return err
		}
	} else {
		if err := insertRow(ctx, tx, row); err != nil {
			r.logger.Error().Err(err).Str("user_id", row.UserID).Str("product_id", row.ProductID).Msg("cart repo: insert")
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *postgresRepo) UpdateQuantity(ctx context.Context, userID, productID, variant string, quantity int) error {
	if quantity <= 0 {
		_, err := r.pool.Exec(ctx, `
DELETE FROM cart_items
WHERE user_id = $1 AND product_id = $2 AND variant = $3 AND NOT is_gift AND NOT threshold_gift
`, userID, productID, variant)
		return err
	}
	cmd, err := r.pool.Exec(ctx, `
UPDATE cart_items
SET quantity = $4, updated_at = now()
WHERE user_id = $1 AND product_id = $2 AND variant = $3 AND NOT is_gift AND NOT threshold_gift
`, userID, productID, variant, quantity)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID).Str("product_id", productID).Msg("cart repo: update quantity")
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) DeleteProduct(ctx context.Context, userID, productID string) error {
	_, err := r.pool.Exec(ctx, `
DELETE FROM cart_items
WHERE user_id = $1 AND product_id = $2 AND NOT is_gift AND NOT threshold_gift
`, userID, productID)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID).Str("product_id", productID).Msg("cart repo: delete product")
	}
	return err
}

func (r *postgresRepo) DeleteByUser(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID).Msg("cart repo: delete by user")
	}
	return err
}

func (r *postgresRepo) ReplaceGifts(ctx context.Context, userID string, gifts []domain.CartRow) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
DELETE FROM cart_items
WHERE user_id = $1 AND (is_gift OR threshold_gift)
`, userID); err != nil {
		return err
	}
	for _, gift := range gifts {
		gift.UserID = userID
		if err := insertRow(ctx, tx, gift); err != nil {
			r.logger.Error().Err(err).Str("user_id", userID).Str("product_id", gift.ProductID).Msg("cart repo: insert gift")
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	r.logger.Debug().Str("user_id", userID).Int("gifts", len(gifts)).Msg("cart repo: replaced gifts")
	return nil
}

func insertRow(ctx context.Context, tx pgx.Tx, row domain.CartRow) error {
	_, err := tx.Exec(ctx, `
INSERT INTO cart_items (user_id, product_id, quantity, variant, stripe_price_id, stripe_discount_price_id,
                        original_price, discount_percentage, has_discount, is_gift, threshold_gift, title)
VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7, $8, $9, $10, $11, NULLIF($12, ''))
`,
		row.UserID,
		row.ProductID,
		row.Quantity,
		row.Variant,
		row.PriceRef,
		row.DiscountPriceRef,
		nullable(row.OriginalPrice),
		nullable(row.DiscountPercentage),
		row.HasDiscount,
		row.IsGift,
		row.ThresholdGift,
		row.Title,
	)
	return err
}

func nullable(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: d.Round(2), Valid: true}
}

func decimalPtr(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}
