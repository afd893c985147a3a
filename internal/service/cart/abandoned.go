package cart

import (
	"context"
	"fmt"
	"strings"

	"aquashop/internal/domain"
)

// UpsertAbandonedCart records the payable lines for cart recovery mailings. It reports
// false without writing when no email resolves or the cart has no payable lines.
func (m *Manager) UpsertAbandonedCart(ctx context.Context, email string) (bool, error) {
	if m.deps.Abandoned == nil {
		return false, nil
	}
	m.mu.Lock()
	email = m.resolveEmailLocked(email)
	payable := m.payableLocked()
	subtotal := m.totalLocked()
	userID := m.session.UserID
	m.mu.Unlock()

	if email == "" || len(payable) == 0 {
		return false, nil
	}

	record := domain.AbandonedCart{
		Email:    email,
		UserID:   userID,
		Items:    make([]domain.AbandonedCartItem, 0, len(payable)),
		Subtotal: subtotal,
		Status:   domain.AbandonedStatusAbandoned,
	}
	for _, item := range payable {
		record.Items = append(record.Items, domain.AbandonedCartItem{
			ID:       item.ID,
			Title:    item.Title,
			Quantity: item.Quantity,
			Price:    item.Price,
			Variant:  item.Variant.String(),
			ImageURL: item.ImageURL,
		})
		record.ItemCount += item.Quantity
	}
	if err := m.deps.Abandoned.Upsert(ctx, record); err != nil {
		m.logger.Error().Err(err).Msg("cart: upsert abandoned cart")
		return false, fmt.Errorf("upsert abandoned cart: %w", err)
	}
	return true, nil
}

// MarkCartAsRecovered flags the abandoned cart of email as recovered. A missing record
// is not an error.
func (m *Manager) MarkCartAsRecovered(ctx context.Context, email string) (bool, error) {
	if m.deps.Abandoned == nil {
		return false, nil
	}
	m.mu.Lock()
	email = m.resolveEmailLocked(email)
	hasItems := len(m.payableLocked()) > 0
	m.mu.Unlock()

	if email == "" || !hasItems {
		return false, nil
	}
	err := m.deps.Abandoned.MarkRecovered(ctx, email, m.now().UTC())
	if isNotFound(err) {
		return false, nil
	}
	if err != nil {
		m.logger.Error().Err(err).Msg("cart: mark cart recovered")
		return false, fmt.Errorf("mark cart recovered: %w", err)
	}
	return true, nil
}

func (m *Manager) resolveEmailLocked(email string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		email = m.session.Email
	}
	return email
}
