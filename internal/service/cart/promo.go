package cart

import (
	"context"
	"errors"
	"strings"

	"aquashop/internal/domain"
	"aquashop/internal/promo"
	"github.com/shopspring/decimal"
)

// PromoResult is the outcome of ApplyPromoCode. Rejections are not errors.
type PromoResult struct {
	Success bool                     `json:"success"`
	Message string                   `json:"message"`
	Promo   *domain.AppliedPromoCode `json:"promo,omitempty"`
}

const (
	msgPromoEmpty       = "Veuillez saisir un code promo."
	msgPromoEmptyCart   = "Votre panier ne contient aucun article éligible."
	msgPromoUnavailable = "La validation des codes promo est indisponible."
	msgPromoError       = "Impossible de valider le code promo."
	msgPromoInvalid     = "Code promo invalide."
	msgPromoApplied     = "Code promo appliqué."
)

// ApplyPromoCode validates code against the payable lines and, on success, replaces
// the applied promo code.
func (m *Manager) ApplyPromoCode(ctx context.Context, code string) PromoResult {
	res := m.applyPromo(ctx, code)
	m.deps.Metrics.ObservePromo(res.Success)
	m.observe("apply_promo", nil)
	return res
}

func (m *Manager) applyPromo(ctx context.Context, code string) PromoResult {
	code = strings.TrimSpace(code)
	if code == "" {
		return PromoResult{Message: msgPromoEmpty}
	}

	m.mu.Lock()
	payable := m.payableLocked()
	subtotal := m.totalLocked()
	session := m.session
	m.mu.Unlock()

	if len(payable) == 0 {
		return PromoResult{Message: msgPromoEmptyCart}
	}
	if m.deps.Promo == nil {
		return PromoResult{Message: msgPromoUnavailable}
	}

	req := promo.Request{
		Code:      code,
		CartItems: make([]promo.CartLine, 0, len(payable)),
		CartTotal: subtotal,
		UserID:    session.UserID,
		UserEmail: session.Email,
	}
	for _, item := range payable {
		req.CartItems = append(req.CartItems, promo.CartLine{
			ID:       item.ID,
			Title:    item.Title,
			Quantity: item.Quantity,
			Price:    item.Price,
			Variant:  item.Variant.String(),
			Category: item.Category,
		})
	}

	resp, err := m.deps.Promo.Validate(ctx, req)
	if err != nil {
		if errors.Is(err, promo.ErrNotConfigured) {
			return PromoResult{Message: msgPromoUnavailable}
		}
		m.logger.Error().Err(err).Str("code", code).Msg("cart: validate promo")
		return PromoResult{Message: msgPromoError}
	}
	if !resp.Valid {
		msg := resp.Message
		if msg == "" {
			msg = msgPromoInvalid
		}
		return PromoResult{Message: msg}
	}

	applied := domain.AppliedPromoCode{Code: code, ApplicationType: domain.PromoApplyAll}
	if pc := resp.PromoCode; pc != nil {
		if pc.Code != "" {
			applied.Code = pc.Code
		}
		applied.Type = pc.Type
		applied.Value = pc.Value
		if pc.ApplicationType != "" {
			applied.ApplicationType = pc.ApplicationType
		}
		applied.ProductIDs = pc.ProductIDs
		applied.Categories = pc.Categories
	}
	discount, items := domain.ComputePromoDiscount(applied, payable)
	if resp.Discount != nil {
		discount = resp.Discount.Round(2)
		applied.ValidatedDiscount = domain.Amount(discount)
	}
	if len(resp.AppliedItems) > 0 {
		items = resp.AppliedItems
	}
	applied.Discount = decimal.Min(discount, subtotal)
	applied.AppliedItems = items

	m.mu.Lock()
	m.promo = &applied
	m.mu.Unlock()

	msg := resp.Message
	if msg == "" {
		msg = msgPromoApplied
	}
	out := applied
	return PromoResult{Success: true, Message: msg, Promo: &out}
}

// RemovePromoCode clears the applied promo code.
func (m *Manager) RemovePromoCode() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.promo = nil
}

// TotalWithPromo returns subtotal, promo discount and total = max(0, subtotal - discount).
func (m *Manager) TotalWithPromo() domain.Totals {
	m.mu.Lock()
	defer m.mu.Unlock()
	subtotal := m.totalLocked()
	discount := decimal.Zero
	if m.promo != nil {
		discount = m.promo.Discount
	}
	total := subtotal.Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	return domain.Totals{Subtotal: subtotal, Discount: discount, Total: total}
}

// refreshPromoLocked recomputes the promo discount after the lines changed. A cart
// without payable lines loses its code. A discount granted by the validation endpoint
// is never recomputed locally, only capped at the subtotal.
func (m *Manager) refreshPromoLocked() {
	if m.promo == nil {
		return
	}
	payable := m.payableLocked()
	if len(payable) == 0 {
		m.promo = nil
		return
	}
	if m.promo.ValidatedDiscount != nil {
		m.promo.Discount = decimal.Min(*m.promo.ValidatedDiscount, m.totalLocked())
		return
	}
	if m.promo.Type == "" || !m.promo.Value.IsPositive() {
		m.promo.Discount = decimal.Min(m.promo.Discount, m.totalLocked())
		return
	}
	m.promo.Discount, m.promo.AppliedItems = domain.ComputePromoDiscount(*m.promo, payable)
}
