package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVariant(t *testing.T) {
	v, err := ParseVariant("Couleur:Bleu|Taille:M")
	require.NoError(t, err)
	require.Len(t, v, 2)
	assert.Equal(t, VariantOption{Label: "Couleur", Option: "Bleu"}, v[0])
	assert.Equal(t, "Couleur:Bleu|Taille:M", v.String())

	first, ok := v.First()
	assert.True(t, ok)
	assert.Equal(t, "Couleur:Bleu", first.Key())
}

func TestParseVariantEmpty(t *testing.T) {
	v, err := ParseVariant("  ")
	require.NoError(t, err)
	assert.True(t, v.IsZero())
	assert.Equal(t, "", v.String())
	_, ok := v.First()
	assert.False(t, ok)
}

func TestParseVariantRejectsMalformedPairs(t *testing.T) {
	for _, raw := range []string{"Couleur", "Couleur:", ":Bleu", "Couleur:Bleu|"} {
		_, err := ParseVariant(raw)
		if !errors.Is(err, ErrInvalidVariant) {
			t.Fatalf("expected invalid variant for %q, got %v", raw, err)
		}
	}
}

func TestVariantJSONRoundTrip(t *testing.T) {
	item := CartItem{ID: "p1", Quantity: 1, Variant: MustParseVariant("Volume:60L")}
	data, err := json.Marshal(item)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"variant":"Volume:60L"`)

	var decoded CartItem
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, decoded.Variant.Equal(item.Variant))
}
