package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestSelectGiftRule(t *testing.T) {
	rules := []GiftRule{
		{Threshold: decimal.NewFromInt(50), ProductID: "g50"},
		{Threshold: decimal.NewFromInt(10), ProductID: "g10"},
		{Threshold: decimal.NewFromInt(100), ProductID: "g100"},
	}

	if res := SelectGiftRule(rules, decimal.NewFromInt(60)); res == nil || res.ProductID != "g50" {
		t.Fatalf("expected g50, got %+v", res)
	}
	if res := SelectGiftRule(rules, decimal.NewFromInt(10)); res == nil || res.ProductID != "g10" {
		t.Fatalf("expected threshold to be inclusive, got %+v", res)
	}
	if res := SelectGiftRule(rules, decimal.RequireFromString("9.99")); res != nil {
		t.Fatalf("expected no rule below lowest threshold, got %+v", res)
	}
	if res := SelectGiftRule(nil, decimal.NewFromInt(1000)); res != nil {
		t.Fatalf("expected nil for no rules, got %+v", res)
	}
}
