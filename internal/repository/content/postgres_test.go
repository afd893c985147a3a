package content

import (
	"context"
	"os"
	"testing"

	"aquashop/internal/domain"
	"aquashop/internal/migrate"
	"github.com/jackc/pgx/v5/pgxpool"
)

func TestPostgres_UpsertGetAndPattern(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	resetTables(ctx, t, pool)

	repo := NewPostgres(pool, nil)
	writes := [][2]string{
		{domain.VariantKey("bac_60", 0, domain.FieldLabel).String(), "Couleur"},
		{domain.VariantKey("bac_60", 1, domain.FieldLabel).String(), "Volume"},
		{domain.OptionKey("bac_60", 0, "Noir", domain.FieldLabel).String(), "ignored"},
		{domain.VariantKey("bac_600", 0, domain.FieldLabel).String(), "Couleur"},
		{domain.ProductKey("bac_60", domain.FieldStock).String(), "4"},
	}
	for _, w := range writes {
		if err := repo.Upsert(ctx, w[0], w[1]); err != nil {
			t.Fatalf("upsert %s: %v", w[0], err)
		}
	}
	if err := repo.Upsert(ctx, "product_bac_60_stock", "5"); err != nil {
		t.Fatalf("upsert update: %v", err)
	}

	value, ok, err := repo.Get(ctx, "product_bac_60_stock")
	if err != nil || !ok || value != "5" {
		t.Fatalf("expected updated stock 5, got %q ok=%v err=%v", value, ok, err)
	}
	if _, ok, err := repo.Get(ctx, "product_bac_60_price"); err != nil || ok {
		t.Fatalf("expected absent key, got ok=%v err=%v", ok, err)
	}

	many, err := repo.GetMany(ctx, []string{"product_bac_60_stock", "product_missing_stock"})
	if err != nil {
		t.Fatalf("GetMany: %v", err)
	}
	if len(many) != 1 || many["product_bac_60_stock"] != "5" {
		t.Fatalf("unexpected GetMany result %+v", many)
	}

	labels, err := repo.FindByPattern(ctx, domain.VariantLabelPattern("bac_60"))
	if err != nil {
		t.Fatalf("FindByPattern: %v", err)
	}
	// The option-scoped label also matches the pattern; callers filter it by parsing.
	if len(labels) != 3 {
		t.Fatalf("expected 3 label keys for bac_60 only, got %+v", labels)
	}
	if _, ok := labels["product_bac_600_variant_0_label"]; ok {
		t.Fatalf("escaped pattern must not match bac_600")
	}
}

func testPool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	return pool
}

func resetTables(ctx context.Context, t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	if _, err := pool.Exec(ctx, `TRUNCATE site_content`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}
