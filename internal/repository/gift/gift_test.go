package gift

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
	"github.com/shopspring/decimal"
)

func TestPostgres_SettingsDefaultAndSave(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	resetTables(ctx, t, pool)

	repo := NewPostgres(pool, nil)
	s, err := repo.GetSettings(ctx)
	if err != nil {
		t.Fatalf("GetSettings: %v", err)
	}
	if s.Active || s.ProductID != "" {
		t.Fatalf("expected inactive default, got %+v", s)
	}

	if err := repo.SaveSettings(ctx, domain.GiftSettings{Active: true, ProductID: "echantillon-nourriture"}); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}
	if err := repo.SaveSettings(ctx, domain.GiftSettings{Active: true, ProductID: "epuisette"}); err != nil {
		t.Fatalf("SaveSettings overwrite: %v", err)
	}
	s, err = repo.GetSettings(ctx)
	if err != nil {
		t.Fatalf("GetSettings: %v", err)
	}
	if !s.Active || s.ProductID != "epuisette" {
		t.Fatalf("unexpected settings %+v", s)
	}
}

func TestPostgres_RulesOrderedByThreshold(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	resetTables(ctx, t, pool)

	repo := NewPostgres(pool, nil)
	for _, r := range []domain.GiftRule{
		{Threshold: decimal.NewFromInt(100), ProductID: "g100"},
		{Threshold: decimal.NewFromInt(50), ProductID: "g50"},
	} {
		if _, err := repo.CreateRule(ctx, r); err != nil {
			t.Fatalf("CreateRule: %v", err)
		}
	}
	if _, err := pool.Exec(ctx, `INSERT INTO gift_rules (threshold, product_id, active) VALUES (10, 'off', false)`); err != nil {
		t.Fatalf("insert inactive rule: %v", err)
	}

	rules, err := repo.ListRules(ctx)
	if err != nil {
		t.Fatalf("ListRules: %v", err)
	}
	if len(rules) != 2 || rules[0].ProductID != "g50" || rules[1].ProductID != "g100" {
		t.Fatalf("unexpected rules %+v", rules)
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
	if _, err := repo.ListRules(cancelled); err == nil {
		t.Fatalf("expected error on cancelled context")
	}
	if !strings.Contains(buf.String(), "gift repo: list rules") {
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
	if _, err := pool.Exec(ctx, `TRUNCATE gift_settings, gift_rules`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}
