package product

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

const selectColumns = `id, title, COALESCE(description, ''), price, COALESCE(image_url, ''), COALESCE(category_key, ''), created_at`

func (r *postgresRepo) List(ctx context.Context) ([]domain.Product, error) {
	q := `SELECT ` + selectColumns + ` FROM products ORDER BY created_at DESC, id`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		r.logger.Error().Err(err).Msg("product repo: list")
		return nil, err
	}
	defer rows.Close()

	var result []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("product repo: list rows")
		return nil, err
	}
	r.logger.Debug().Int("count", len(result)).Msg("product repo: list")
	return result, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	q := `SELECT ` + selectColumns + ` FROM products WHERE id = $1`
	p, err := scanProduct(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("id", id).Msg("product repo: get not found")
			return nil, domain.ErrNotFound
		}
		r.logger.Error().Err(err).Str("id", id).Msg("product repo: get")
		return nil, err
	}
	return p, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, product domain.Product) (*domain.Product, error) {
	const q = `
INSERT INTO products (id, title, description, price, image_url, category_key)
VALUES ($1, $2, NULLIF($3, ''), $4, NULLIF($5, ''), NULLIF($6, ''))
ON CONFLICT (id) DO UPDATE SET
    title = EXCLUDED.title,
    description = EXCLUDED.description,
    price = EXCLUDED.price,
    image_url = EXCLUDED.image_url,
    category_key = EXCLUDED.category_key
RETURNING created_at
`
	res := product
	var price decimal.NullDecimal
	if product.Price != nil {
		price = decimal.NullDecimal{Decimal: product.Price.Round(2), Valid: true}
		res.Price = domain.Amount(price.Decimal)
	}
	err := r.pool.QueryRow(ctx, q,
		product.ID,
		product.Title,
		product.Description,
		price,
		product.ImageURL,
		product.CategoryKey,
	).Scan(&res.CreatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("id", product.ID).Msg("product repo: upsert")
		return nil, err
	}
	r.logger.Debug().Str("id", res.ID).Str("category", res.CategoryKey).Msg("product repo: upserted")
	return &res, nil
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	var price decimal.NullDecimal
	if err := row.Scan(&p.ID, &p.Title, &p.Description, &price, &p.ImageURL, &p.CategoryKey, &p.CreatedAt); err != nil {
		return nil, err
	}
	if price.Valid {
		p.Price = domain.Amount(price.Decimal)
	}
	return &p, nil
}
