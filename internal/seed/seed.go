package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"aquashop/internal/domain"
	categoryrepo "aquashop/internal/repository/category"
	contentrepo "aquashop/internal/repository/content"
	giftrepo "aquashop/internal/repository/gift"
	productrepo "aquashop/internal/repository/product"
	promotionrepo "aquashop/internal/repository/promotion"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type productSeed struct {
	ID          string
	Title       string
	Description string
	Price       string
	Category    string
	Content     []contentEntry
}

type contentEntry struct {
	key   domain.ContentKey
	value string
}

// Apply writes a demo aquarium catalog for manual testing. It is idempotent.
func Apply(ctx context.Context, pool *pgxpool.Pool, logger *zerolog.Logger) error {
	categories := categoryrepo.NewPostgres(pool, logger)
	products := productrepo.NewPostgres(pool, logger)
	content := contentrepo.NewPostgres(pool, logger)
	gifts := giftrepo.NewPostgres(pool, logger)
	promotions := promotionrepo.NewPostgres(pool, logger)

	for _, c := range demoCategories() {
		if _, err := categories.Upsert(ctx, c); err != nil {
			return fmt.Errorf("upsert category %s: %w", c.Key, err)
		}
	}

	for _, p := range demoProducts() {
		if _, err := products.Upsert(ctx, domain.Product{
			ID:          p.ID,
			Title:       p.Title,
			Description: p.Description,
			Price:       domain.Amount(decimal.RequireFromString(p.Price)),
			CategoryKey: p.Category,
		}); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.ID, err)
		}
		for _, entry := range p.Content {
			key := entry.key.String()
			if err := content.Upsert(ctx, key, entry.value); err != nil {
				return fmt.Errorf("upsert content %s: %w", key, err)
			}
		}
	}

	if err := gifts.SaveSettings(ctx, domain.GiftSettings{Active: true, ProductID: "echantillon-nourriture"}); err != nil {
		return fmt.Errorf("save gift settings: %w", err)
	}
	if err := ensureGiftRules(ctx, gifts); err != nil {
		return err
	}
	return ensurePromotion(ctx, promotions)
}

func demoCategories() []domain.Category {
	return []domain.Category{
		{Key: "aquariums", Name: "Aquariums"},
		{Key: "filtration", Name: "Filtration"},
		{Key: "eclairage", Name: "Éclairage"},
		{Key: "nourriture", Name: "Nourriture"},
		{Key: "accessoires", Name: "Accessoires"},
	}
}

func demoProducts() []productSeed {
	return []productSeed{
		{
			ID:          "bac-60",
			Title:       "Aquarium 60 L",
			Description: "Bac en verre extra-clair avec couvercle",
			Price:       "89.90",
			Category:    "aquariums",
			Content:     []contentEntry{
				{domain.ProductKey("bac-60", domain.FieldPrice), "89.90"},
				{domain.ProductKey("bac-60", domain.FieldStripePriceID), "price_demo_bac60"},
				{domain.VariantKey("bac-60", 0, domain.FieldLabel), "Couleur"},
				{domain.VariantKey("bac-60", 0, domain.FieldPriceMap), `{"Couleur:Noir": 89.90, "Couleur:Blanc": 94.90}`},
				{domain.OptionKey("bac-60", 0, "Noir", domain.FieldStock), "5"},
				{domain.OptionKey("bac-60", 0, "Blanc", domain.FieldStock), "2"},
				{domain.OptionKey("bac-60", 0, "Blanc", domain.FieldDiscountPercentage), "10"},
			},
		},
		{
			ID:          "filtre-interne",
			Title:       "Filtre interne 600 L/h",
			Description: "Filtre silencieux pour bacs jusqu'à 120 L",
			Price:       "34.90",
			Category:    "filtration",
			Content:     []contentEntry{
				{domain.ProductKey("filtre-interne", domain.FieldPrice), "34.90"},
				{domain.ProductKey("filtre-interne", domain.FieldDiscountPrice), "29.90"},
				{domain.ProductKey("filtre-interne", domain.FieldStock), "12"},
			},
		},
		{
			ID:          "rampe-led",
			Title:       "Rampe LED 60 cm",
			Description: "Éclairage plein spectre pour plantes",
			Price:       "59.00",
			Category:    "eclairage",
			Content:     []contentEntry{
				{domain.ProductKey("rampe-led", domain.FieldPrice), "59.00"},
				{domain.ProductKey("rampe-led", domain.FieldStock), "3"},
			},
		},
		{
			ID:          "paillettes-tropicales",
			Title:       "Paillettes tropicales 250 ml",
			Description: "Nourriture de base pour poissons tropicaux",
			Price:       "7.50",
			Category:    "nourriture",
		},
		{
			ID:          "echantillon-nourriture",
			Title:       "Échantillon de nourriture",
			Description: "Offert avec chaque commande",
			Price:       "0.00",
			Category:    "nourriture",
		},
		{
			ID:          "epuisette",
			Title:       "Épuisette 10 cm",
			Description: "Offerte dès 50 € d'achat",
			Price:       "4.90",
			Category:    "accessoires",
		},
		{
			ID:          "thermometre",
			Title:       "Thermomètre digital",
			Description: "Offert dès 100 € d'achat",
			Price:       "9.90",
			Category:    "accessoires",
		},
	}
}

func ensureGiftRules(ctx context.Context, gifts giftrepo.Repository) error {
	existing, err := gifts.ListRules(ctx)
	if err != nil {
		return fmt.Errorf("list gift rules: %w", err)
	}
	rules := []domain.GiftRule{
		{Threshold: decimal.NewFromInt(50), ProductID: "epuisette"},
		{Threshold: decimal.NewFromInt(100), ProductID: "thermometre"},
	}
	for _, rule := range rules {
		if hasRule(existing, rule) {
			continue
		}
		if _, err := gifts.CreateRule(ctx, rule); err != nil {
			return fmt.Errorf("create gift rule %s: %w", rule.ProductID, err)
		}
	}
	return nil
}

func hasRule(rules []domain.GiftRule, rule domain.GiftRule) bool {
	for _, r := range rules {
		if r.ProductID == rule.ProductID && r.Threshold.Equal(rule.Threshold) {
			return true
		}
	}
	return false
}

func ensurePromotion(ctx context.Context, promotions promotionrepo.Repository) error {
	now := time.Now().UTC()
	_, err := promotions.GetActive(ctx, "rampe-led", domain.DefaultVariantKey, now)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("get active promotion: %w", err)
	}
	pct := decimal.NewFromInt(15)
	end := now.AddDate(0, 1, 0)
	_, err = promotions.Create(ctx, domain.Promotion{
		ProductID:          "rampe-led",
		VariantKey:         domain.DefaultVariantKey,
		BasePrice:          decimal.RequireFromString("59.00"),
		DiscountPercentage: &pct,
		StartsAt:           &now,
		EndsAt:             &end,
	})
	if err != nil {
		return fmt.Errorf("create promotion: %w", err)
	}
	return nil
}
