package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	variantPairSeparator  = "|"
	variantLabelSeparator = ":"
)

// VariantOption is one "Label:Option" pair of a variant selector, e.g. Couleur:Bleu.
type VariantOption struct {
	Label  string `json:"label"`
	Option string `json:"option"`
}

// Key returns the "Label:Option" composite used by price maps.
func (o VariantOption) Key() string {
	return o.Label + variantLabelSeparator + o.Option
}

// Variant identifies one option combination of a product. The zero value means "no variant".
type Variant []VariantOption

// ParseVariant decodes "Label:Option|Label:Option". An empty string yields an empty Variant.
func ParseVariant(raw string) (Variant, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, variantPairSeparator)
	out := make(Variant, 0, len(parts))
	for _, part := range parts {
		label, option, ok := strings.Cut(part, variantLabelSeparator)
		label = strings.TrimSpace(label)
		option = strings.TrimSpace(option)
		if !ok || label == "" || option == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidVariant, raw)
		}
		out = append(out, VariantOption{Label: label, Option: option})
	}
	return out, nil
}

// MustParseVariant is ParseVariant for literals known to be valid.
func MustParseVariant(raw string) Variant {
	v, err := ParseVariant(raw)
	if err != nil {
		panic(err)
	}
	return v
}

// String re-encodes the selector; it round-trips with ParseVariant.
func (v Variant) String() string {
	if len(v) == 0 {
		return ""
	}
	parts := make([]string, len(v))
	for i, opt := range v {
		parts[i] = opt.Key()
	}
	return strings.Join(parts, variantPairSeparator)
}

// IsZero reports whether no option is selected.
func (v Variant) IsZero() bool {
	return len(v) == 0
}

// First returns the first pair; ok is false for an empty selector.
func (v Variant) First() (VariantOption, bool) {
	if len(v) == 0 {
		return VariantOption{}, false
	}
	return v[0], true
}

// Equal compares two selectors pair by pair.
func (v Variant) Equal(other Variant) bool {
	return v.String() == other.String()
}

// MarshalJSON encodes the selector in its string form.
func (v Variant) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.String())
}

// UnmarshalJSON accepts the string form (or null).
func (v *Variant) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*v = nil
		return nil
	}
	parsed, err := ParseVariant(*raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
