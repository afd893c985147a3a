package catalog

import (
	"context"
	"encoding/json"
	"strings"

	"aquashop/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// labelIndex maps a variant label ("Couleur") to its numeric index for one product
// through the product_<id>_variant_<n>_label keys.
type labelIndex struct {
	content ContentReader
	logger  zerolog.Logger
}

// lookup returns the index of label. Labels are assumed unique per product; when they
// repeat the lowest index wins.
func (l *labelIndex) lookup(ctx context.Context, productID, label string) (int, bool, error) {
	entries, err := l.content.FindByPattern(ctx, domain.VariantLabelPattern(productID))
	if err != nil {
		return 0, false, err
	}
	index, found, dupes := -1, false, 0
	for key, value := range entries {
		ck, err := domain.ParseContentKey(key)
		if err != nil || ck.ProductID != productID || ck.VariantIndex == nil || ck.Option != "" {
			continue
		}
		if !strings.EqualFold(strings.TrimSpace(value), label) {
			continue
		}
		if found {
			dupes++
		}
		if !found || *ck.VariantIndex < index {
			index = *ck.VariantIndex
			found = true
		}
	}
	if dupes > 0 {
		l.logger.Warn().Str("product_id", productID).Str("label", label).Int("index", index).Msg("catalog: duplicate variant label")
	}
	return index, found, nil
}

// VariantResolver prices the first Label:Option pair of a selector from option-scoped
// fields. The base comes from the option price, else from the variant price_map.
type VariantResolver struct {
	content ContentReader
	labels  *labelIndex
	logger  zerolog.Logger
}

func (r *VariantResolver) Resolve(ctx context.Context, productID string, variant domain.Variant) (*domain.PriceInfo, error) {
	opt, ok := variant.First()
	if !ok {
		return nil, nil
	}
	index, found, err := r.labels.lookup(ctx, productID, opt.Label)
	if err != nil {
		return nil, err
	}
	if !found {
		r.logger.Debug().Str("product_id", productID).Str("label", opt.Label).Msg("catalog: unknown variant label")
		return nil, nil
	}

	keys := optionKeys(productID, index, opt.Option)
	priceMapKey := domain.VariantKey(productID, index, domain.FieldPriceMap).String()
	values, err := r.content.GetMany(ctx, []string{
		keys.price, keys.discountPrice, keys.discountPct, keys.ref, keys.discountRef, priceMapKey,
	})
	if err != nil {
		return nil, err
	}

	base, ok := amountField(values, keys.price, r.logger)
	if !ok {
		base, ok = priceFromMap(values[priceMapKey], opt, r.logger)
	}
	if !ok {
		r.logger.Debug().Str("product_id", productID).Str("variant", variant.String()).Msg("catalog: no variant price")
		return nil, nil
	}
	return priceFromFields(base, values, keys.discountPrice, keys.discountPct, keys.ref, keys.discountRef, r.logger), nil
}

// priceFromMap reads {"Label:Option": number} blobs. Numbers may also be encoded as strings.
func priceFromMap(raw string, opt domain.VariantOption, logger zerolog.Logger) (decimal.Decimal, bool) {
	if strings.TrimSpace(raw) == "" {
		return decimal.Zero, false
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		logger.Warn().Err(err).Msg("catalog: invalid price map")
		return decimal.Zero, false
	}
	v, ok := m[opt.Key()]
	if !ok {
		return decimal.Zero, false
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(v); err != nil {
		logger.Warn().Err(err).Str("option", opt.Key()).Msg("catalog: invalid price map entry")
		return decimal.Zero, false
	}
	return d, true
}
