package content

import (
	"context"
	"errors"

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

func (r *postgresRepo) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.pool.QueryRow(ctx, `SELECT value FROM site_content WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		r.logger.Error().Err(err).Str("key", key).Msg("content repo: get")
		return "", false, err
	}
	return value, true, nil
}

func (r *postgresRepo) GetMany(ctx context.Context, keys []string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT key, value FROM site_content WHERE key = ANY($1)`, keys)
	if err != nil {
		r.logger.Error().Err(err).Int("keys", len(keys)).Msg("content repo: get many")
		return nil, err
	}
	return collect(rows, out)
}

func (r *postgresRepo) FindByPattern(ctx context.Context, pattern string) (map[string]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT key, value FROM site_content WHERE key LIKE $1 ORDER BY key`, pattern)
	if err != nil {
		r.logger.Error().Err(err).Str("pattern", pattern).Msg("content repo: find by pattern")
		return nil, err
	}
	out, err := collect(rows, map[string]string{})
	if err != nil {
		return nil, err
	}
	r.logger.Debug().Str("pattern", pattern).Int("count", len(out)).Msg("content repo: find by pattern")
	return out, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, key, value string) error {
	const q = `
INSERT INTO site_content (key, value, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET
    value = EXCLUDED.value,
    updated_at = now()
`
	if _, err := r.pool.Exec(ctx, q, key, value); err != nil {
		r.logger.Error().Err(err).Str("key", key).Msg("content repo: upsert")
		return err
	}
	return nil
}

func collect(rows pgx.Rows, out map[string]string) (map[string]string, error) {
	defer rows.Close()
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		out[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
