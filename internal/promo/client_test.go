package promo

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"aquashop/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSendsCartAndDecodesPromo(t *testing.T) {
	var got Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("expected POST, got %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"valid":true,"promoCode":{"code":"EAU10","type":"percentage","value":10,"application_type":"all"},"discount":"5.00","appliedItems":["p1"],"message":"ok"}`))
	}))
	defer srv.Close()

	client := New(srv.URL, time.Second, nil)
	resp, err := client.Validate(context.Background(), Request{
		Code:      "EAU10",
		CartItems: []CartLine{{ID: "p1", Quantity: 5, Price: decimal.NewFromInt(10)}},
		CartTotal: decimal.NewFromInt(50),
		UserEmail: "nemo@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "EAU10", got.Code)
	assert.True(t, got.CartTotal.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, "nemo@example.com", got.UserEmail)

	require.True(t, resp.Valid)
	require.NotNil(t, resp.PromoCode)
	assert.Equal(t, domain.PromoTypePercentage, resp.PromoCode.Type)
	assert.Equal(t, domain.PromoApplyAll, resp.PromoCode.ApplicationType)
	require.NotNil(t, resp.Discount)
	assert.True(t, resp.Discount.Equal(decimal.NewFromInt(5)))
	assert.Equal(t, []string{"p1"}, resp.AppliedItems)
}

func TestValidateRejectionOnClientError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"valid":true,"message":"Code expiré"}`))
	}))
	defer srv.Close()

	resp, err := New(srv.URL, time.Second, nil).Validate(context.Background(), Request{Code: "OLD"})
	require.NoError(t, err)
	assert.False(t, resp.Valid)
	assert.Equal(t, "Code expiré", resp.Message)
}

func TestValidateServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL, time.Second, nil).Validate(context.Background(), Request{Code: "X"})
	require.Error(t, err)
}

func TestValidateWithoutURL(t *testing.T) {
	_, err := New("", 0, nil).Validate(context.Background(), Request{Code: "X"})
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
