// Package promo calls the external promo code validation endpoint.
package promo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"aquashop/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ErrNotConfigured is returned when no validation URL was configured.
var ErrNotConfigured = errors.New("promo validation endpoint not configured")

// CartLine is the line snapshot sent for validation.
type CartLine struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Variant  string          `json:"variant,omitempty"`
	Category string          `json:"category,omitempty"`
}

type Request struct {
	Code      string          `json:"code"`
	CartItems []CartLine      `json:"cartItems"`
	CartTotal decimal.Decimal `json:"cartTotal"`
	UserID    string          `json:"userId,omitempty"`
	UserEmail string          `json:"userEmail,omitempty"`
}

// Code is the promo code definition returned by the validator.
type Code struct {
	Code            string                  `json:"code"`
	Type            domain.PromoType        `json:"type"`
	Value           decimal.Decimal         `json:"value"`
	ApplicationType domain.PromoApplication `json:"application_type"`
	ProductIDs      []string                `json:"product_ids,omitempty"`
	Categories      []string                `json:"categories,omitempty"`
}

type Response struct {
	Valid        bool             `json:"valid"`
	PromoCode    *Code            `json:"promoCode,omitempty"`
	Discount     *decimal.Decimal `json:"discount,omitempty"`
	AppliedItems []string         `json:"appliedItems,omitempty"`
	Message      string           `json:"message"`
}

// Client posts validation requests as JSON.
type Client struct {
	url    string
	http   *http.Client
	logger zerolog.Logger
}

func New(url string, timeout time.Duration, logger *zerolog.Logger) *Client {
	l := zerolog.Nop()
	if logger != nil {
		l = *logger
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{url: url, http: &http.Client{Timeout: timeout}, logger: l}
}

// Validate posts req. Rejections come back as Valid=false with a message, also on 4xx
// responses that carry a JSON body; transport failures and 5xx are errors.
func (c *Client) Validate(ctx context.Context, req Request) (*Response, error) {
	if c.url == "" {
		return nil, ErrNotConfigured
	}
	if req.CartItems == nil {
		req.CartItems = []CartLine{}
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode promo request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build promo request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.Error().Err(err).Str("code", req.Code).Msg("promo client: request")
		return nil, fmt.Errorf("promo request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read promo response: %w", err)
	}
	c.logger.Debug().Str("code", req.Code).Int("status", resp.StatusCode).Dur("elapsed", time.Since(start)).Msg("promo client: validate")

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("promo validation: status %d", resp.StatusCode)
	}
	var out Response
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode promo response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		out.Valid = false
	}
	return &out, nil
}
