package catalog

import (
	"context"
	"strconv"
	"strings"

	"aquashop/internal/domain"
	"github.com/rs/zerolog"
)

// StockResolver reads stock ceilings. Simple products use product_<id>_stock; a variant
// takes the minimum over the option stock of each of its pairs.
type StockResolver struct {
	content ContentReader
	labels  *labelIndex
	logger  zerolog.Logger
}

// Ceiling returns the stock ceiling; limited is false when no stock is configured.
func (s *StockResolver) Ceiling(ctx context.Context, productID string, variant domain.Variant) (int, bool, error) {
	if variant.IsZero() {
		key := domain.ProductKey(productID, domain.FieldStock).String()
		raw, ok, err := s.content.Get(ctx, key)
		if err != nil {
			return 0, false, err
		}
		if !ok {
			s.logger.Debug().Str("product_id", productID).Msg("catalog: no stock configured")
			return 0, false, nil
		}
		n, ok := s.parse(key, raw)
		return n, ok, nil
	}

	ceiling, limited := 0, false
	for _, opt := range variant {
		index, found, err := s.labels.lookup(ctx, productID, opt.Label)
		if err != nil {
			return 0, false, err
		}
		if !found {
			s.logger.Debug().Str("product_id", productID).Str("label", opt.Label).Msg("catalog: stock label not found")
			continue
		}
		key := domain.OptionKey(productID, index, opt.Option, domain.FieldStock).String()
		raw, ok, err := s.content.Get(ctx, key)
		if err != nil {
			return 0, false, err
		}
		if !ok {
			continue
		}
		n, ok := s.parse(key, raw)
		if !ok {
			continue
		}
		if !limited || n < ceiling {
			ceiling = n
			limited = true
		}
	}
	if !limited {
		s.logger.Debug().Str("product_id", productID).Str("variant", variant.String()).Msg("catalog: no variant stock configured")
	}
	return ceiling, limited, nil
}

// parse treats unparseable values as unconfigured and negative stock as none left.
func (s *StockResolver) parse(key, raw string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		s.logger.Warn().Str("key", key).Str("value", raw).Msg("catalog: unparseable stock")
		return 0, false
	}
	if n < 0 {
		n = 0
	}
	return n, true
}
