package category

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"aquashop/internal/domain"
	"aquashop/internal/migrate"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

func TestPostgres_UpsertAndList(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	resetTables(ctx, t, pool)

	repo := NewPostgres(pool, nil)
	cat, err := repo.Upsert(ctx, domain.Category{
		Key:  "eclairage",
		Name: "Éclairage",
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if cat.ID == "" || cat.Slug != "eclairage" {
		t.Fatalf("expected slug to default to key, got %+v", cat)
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Key != "eclairage" {
		t.Fatalf("unexpected list %+v", list)
	}
}

func TestPostgres_UpsertUpdatesExisting(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	resetTables(ctx, t, pool)

	repo := NewPostgres(pool, nil)
	first, err := repo.Upsert(ctx, domain.Category{Key: "decor", Name: "Décor", Slug: "decor"})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	second, err := repo.Upsert(ctx, domain.Category{Key: "decor", Name: "Décoration"})
	if err != nil {
		t.Fatalf("upsert update: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected same ID after update")
	}
	if second.Name != "Décoration" || second.Slug != "decor" {
		t.Fatalf("expected updated name and kept slug, got %+v", second)
	}
}

func TestPostgres_LogsQueryErrors(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	buf := &bytes.Buffer{}
	log := zerolog.New(buf)
	repo := NewPostgres(pool, &log)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := repo.Upsert(cancelled, domain.Category{Key: "sol", Name: "Sol"}); err == nil {
		t.Fatalf("expected error on cancelled context")
	}
	if !strings.Contains(buf.String(), "category repo: upsert") {
		t.Fatalf("expected error to be logged, got %q", buf.String())
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
	if _, err := pool.Exec(ctx, `TRUNCATE products, categories RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}
