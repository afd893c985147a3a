package abandoned

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"aquashop/internal/domain"
	"aquashop/internal/migrate"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

func TestPostgres_UpsertAndRecover(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	resetTables(ctx, t, pool)

	repo := NewPostgres(pool, nil)
	err := repo.Upsert(ctx, domain.AbandonedCart{
		Email:     "Nemo@Example.com ",
		UserID:    "u1",
		Items:     []domain.AbandonedCartItem{{ID: "p1", Title: "Pompe", Quantity: 2, Price: decimal.NewFromInt(15)}},
		Subtotal:  decimal.NewFromInt(30),
		ItemCount: 2,
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := repo.Get(ctx, "nemo@example.com")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != domain.AbandonedStatusAbandoned || got.ItemCount != 2 || len(got.Items) != 1 || got.Items[0].Title != "Pompe" {
		t.Fatalf("unexpected record %+v", got)
	}

	at := time.Now().UTC().Truncate(time.Second)
	if err := repo.MarkRecovered(ctx, "nemo@example.com", at); err != nil {
		t.Fatalf("MarkRecovered: %v", err)
	}
	got, err = repo.Get(ctx, "nemo@example.com")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != domain.AbandonedStatusRecovered || got.RecoveredAt == nil || !got.RecoveredAt.Equal(at) {
		t.Fatalf("expected recovered record, got %+v", got)
	}

	if err := repo.MarkRecovered(ctx, "nobody@example.com", at); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
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
	if _, err := pool.Exec(ctx, `TRUNCATE abandoned_carts`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}
