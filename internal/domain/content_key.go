package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ContentField is the trailing segment of a product content key.
type ContentField string

const (
	FieldStock                 ContentField = "stock"
	FieldPrice                 ContentField = "price"
	FieldDiscountPrice         ContentField = "discount_price"
	FieldDiscountPercentage    ContentField = "discount_percentage"
	FieldStripePriceID         ContentField = "stripe_price_id"
	FieldStripeDiscountPriceID ContentField = "stripe_discount_price_id"
	FieldPriceMap              ContentField = "price_map"
	FieldLabel                 ContentField = "label"
)

const (
	contentKeyPrefix = "product_"
	variantSegment   = "_variant_"
	optionSegment    = "_option_"
)

// fieldsBySuffix is ordered longest first so "discount_price" wins over "price".
var fieldsBySuffix = func() []ContentField {
	fields := []ContentField{
		FieldStock, FieldPrice, FieldDiscountPrice, FieldDiscountPercentage,
		FieldStripePriceID, FieldStripeDiscountPriceID, FieldPriceMap, FieldLabel,
	}
	sort.Slice(fields, func(i, j int) bool { return len(fields[i]) > len(fields[j]) })
	return fields
}()

// ContentKey addresses one product field in the content store:
// product_<id>[_variant_<n>[_option_<opt>]]_<field>.
type ContentKey struct {
	ProductID    string
	VariantIndex *int
	Option       string
	Field        ContentField
}

// ProductKey builds a product-level key.
func ProductKey(productID string, field ContentField) ContentKey {
	return ContentKey{ProductID: productID, Field: field}
}

// VariantKey builds a key scoped to one variant dimension.
func VariantKey(productID string, index int, field ContentField) ContentKey {
	return ContentKey{ProductID: productID, VariantIndex: &index, Field: field}
}

// OptionKey builds a key scoped to one option of a variant dimension.
func OptionKey(productID string, index int, option string, field ContentField) ContentKey {
	return ContentKey{ProductID: productID, VariantIndex: &index, Option: option, Field: field}
}

// String encodes the key.
func (k ContentKey) String() string {
	var b strings.Builder
	b.WriteString(contentKeyPrefix)
	b.WriteString(k.ProductID)
	if k.VariantIndex != nil {
		b.WriteString(variantSegment)
		b.WriteString(strconv.Itoa(*k.VariantIndex))
		if k.Option != "" {
			b.WriteString(optionSegment)
			b.WriteString(k.Option)
		}
	}
	b.WriteByte('_')
	b.WriteString(string(k.Field))
	return b.String()
}

// ParseContentKey decodes a key produced by ContentKey.String.
func ParseContentKey(raw string) (ContentKey, error) {
	rest, ok := strings.CutPrefix(raw, contentKeyPrefix)
	if !ok {
		return ContentKey{}, fmt.Errorf("%w: %q", ErrInvalidContentKey, raw)
	}

	var key ContentKey
	for _, field := range fieldsBySuffix {
		if body, found := strings.CutSuffix(rest, "_"+string(field)); found {
			key.Field = field
			rest = body
			break
		}
	}
	if key.Field == "" {
		return ContentKey{}, fmt.Errorf("%w: unknown field in %q", ErrInvalidContentKey, raw)
	}

	id, variantPart, hasVariant := strings.Cut(rest, variantSegment)
	if id == "" {
		return ContentKey{}, fmt.Errorf("%w: missing product id in %q", ErrInvalidContentKey, raw)
	}
	key.ProductID = id
	if !hasVariant {
		return key, nil
	}

	indexPart, option, hasOption := strings.Cut(variantPart, optionSegment)
	index, err := strconv.Atoi(indexPart)
	if err != nil || index < 0 {
		return ContentKey{}, fmt.Errorf("%w: bad variant index in %q", ErrInvalidContentKey, raw)
	}
	if hasOption && option == "" {
		return ContentKey{}, fmt.Errorf("%w: empty option in %q", ErrInvalidContentKey, raw)
	}
	key.VariantIndex = &index
	key.Option = option
	return key, nil
}

// VariantLabelPattern is the SQL LIKE pattern matching every variant label key of a product.
func VariantLabelPattern(productID string) string {
	return escapeLike(contentKeyPrefix+productID+variantSegment) + "%" + escapeLike("_"+string(FieldLabel))
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
