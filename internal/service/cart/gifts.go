package cart

import (
	"context"
	"fmt"
	"time"

	"aquashop/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	msgGiftFailed = "Impossible de mettre à jour les cadeaux du panier."
	msgSyncFailed = "Impossible de synchroniser le panier."
)

// ManageGiftItems recomputes the default and threshold gift lines.
func (m *Manager) ManageGiftItems(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	err := m.manageGiftsLocked(ctx)
	m.observe("manage_gifts", err)
	return err
}

// Sync reloads the cart from the Item Store and re-resolves every price.
// It is a no-op without a user session.
func (m *Manager) Sync(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	err := m.syncLocked(ctx)
	m.observe("sync", err)
	return err
}

// reconcileLocked runs after every quantity change.
func (m *Manager) reconcileLocked(ctx context.Context) {
	if err := m.manageGiftsLocked(ctx); err != nil {
		m.logger.Warn().Err(err).Msg("cart: manage gifts")
	}
	m.refreshPromoLocked()
}

func (m *Manager) manageGiftsLocked(ctx context.Context) error {
	gifts, err := m.giftLinesLocked(ctx)
	if err != nil {
		m.notify(ctx, NoticeError, CodeGiftFailed, msgGiftFailed)
		return err
	}

	if m.session.Remote() && m.deps.Items != nil {
		rows := make([]domain.CartRow, 0, len(gifts))
		for _, g := range gifts {
			rows = append(rows, rowFromItem(m.session.UserID, g))
		}
		if err := m.deps.Items.ReplaceGifts(ctx, m.session.UserID, rows); err != nil {
			m.logger.Error().Err(err).Msg("cart: replace gifts")
			m.notify(ctx, NoticeError, CodeGiftFailed, msgGiftFailed)
			m.replaceGiftLinesLocked(gifts)
			return fmt.Errorf("replace gifts: %w", err)
		}
		return m.syncLocked(ctx)
	}

	m.replaceGiftLinesLocked(gifts)
	m.refreshPromoLocked()
	return nil
}

// giftLinesLocked computes the automatic gift lines the cart should hold. An empty
// payable cart gets none.
func (m *Manager) giftLinesLocked(ctx context.Context) ([]domain.CartItem, error) {
	if len(m.payableLocked()) == 0 || m.deps.Gifts == nil {
		return nil, nil
	}
	settings, err := m.giftSettingsLocked(ctx)
	if err != nil {
		return nil, err
	}
	rules, err := m.deps.Gifts.ListRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("list gift rules: %w", err)
	}

	var out []domain.CartItem
	if settings.Active && settings.ProductID != "" {
		out = append(out, m.giftLine(ctx, settings.ProductID, false))
	}
	if rule := domain.SelectGiftRule(rules, m.totalLocked()); rule != nil {
		out = append(out, m.giftLine(ctx, rule.ProductID, true))
	}
	return out, nil
}

func (m *Manager) giftLine(ctx context.Context, productID string, threshold bool) domain.CartItem {
	p, title := m.productTitle(ctx, productID)
	item := domain.CartItem{
		ID:            productID,
		Quantity:      1,
		Price:         decimal.Zero,
		Title:         title,
		IsGift:        true,
		ThresholdGift: threshold,
		Type:          domain.ItemTypeRegular,
	}
	if p != nil {
		item.ImageURL = p.ImageURL
		item.Category = p.CategoryKey
	}
	return item
}

func (m *Manager) giftSettingsLocked(ctx context.Context) (domain.GiftSettings, error) {
	if m.giftSettings != nil && m.now().Sub(m.giftSettingsLoaded) < giftSettingsTTL {
		return *m.giftSettings, nil
	}
	s, err := m.deps.Gifts.GetSettings(ctx)
	if err != nil {
		return domain.GiftSettings{}, fmt.Errorf("load gift settings: %w", err)
	}
	m.giftSettings = &s
	m.giftSettingsLoaded = m.now()
	return s, nil
}

func (m *Manager) replaceGiftLinesLocked(gifts []domain.CartItem) {
	kept := make([]domain.CartItem, 0, len(m.items)+len(gifts))
	for _, item := range m.items {
		if !isAutomaticGift(item) {
			kept = append(kept, item)
		}
	}
	m.items = append(kept, gifts...)
}

func (m *Manager) syncLocked(ctx context.Context) error {
	if !m.session.Remote() || m.deps.Items == nil {
		return nil
	}
	rows, err := m.deps.Items.ListByUser(ctx, m.session.UserID)
	if err != nil {
		m.logger.Error().Err(err).Msg("cart: sync")
		m.notify(ctx, NoticeError, CodeSyncFailed, msgSyncFailed)
		return fmt.Errorf("list cart rows: %w", err)
	}

	items := make([]domain.CartItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, m.itemFromRow(ctx, row))
	}
	for _, item := range m.items {
		if item.IsWheelGift() {
			items = append(items, item)
		}
	}
	m.items = items
	m.refreshPromoLocked()
	return nil
}

func (m *Manager) itemFromRow(ctx context.Context, row domain.CartRow) domain.CartItem {
	variant, err := domain.ParseVariant(row.Variant)
	if err != nil {
		m.logger.Warn().Err(err).Str("product_id", row.ProductID).Msg("cart: stored variant")
	}
	title := row.ProductTitle
	if title == "" {
		title = row.Title
	}
	if title == "" {
		title = domain.UnknownProductTitle
	}
	item := domain.CartItem{
		ID:            row.ProductID,
		Quantity:      row.Quantity,
		Title:         title,
		ImageURL:      row.ImageURL,
		Variant:       variant,
		Category:      row.Category,
		IsGift:        row.IsGift,
		ThresholdGift: row.ThresholdGift,
		Type:          domain.ItemTypeRegular,
		PriceRef:      row.PriceRef,
	}
	if !item.Payable() {
		return item
	}

	info, err := m.deps.Catalog.Price(ctx, row.ProductID, variant)
	if err != nil {
		m.logger.Warn().Err(err).Str("product_id", row.ProductID).Msg("cart: sync price")
	}
	switch {
	case info != nil:
		item.ApplyPrice(*info)
	case row.ProductPrice != nil:
		item.ApplyPrice(*domain.BasePrice(*row.ProductPrice, row.PriceRef))
	default:
		m.logger.Warn().Str("product_id", row.ProductID).Msg("cart: no price for stored line")
		item.ApplyPrice(domain.PriceInfo{Price: decimal.Zero, PriceRef: row.PriceRef})
	}
	return item
}

// AddWheelGift adds a free wheel gift line that expires ttl after wonAt. Winning the
// same product again refreshes the existing line.
func (m *Manager) AddWheelGift(ctx context.Context, productID, title string, wonAt time.Time, ttl time.Duration) domain.CartItem {
	m.mu.Lock()
	defer m.mu.Unlock()

	won := wonAt.UTC()
	expires := won.Add(ttl)
	for i := range m.items {
		if m.items[i].ID == productID && m.items[i].IsWheelGift() {
			m.items[i].WonAt = &won
			m.items[i].ExpiresAt = &expires
			return m.items[i]
		}
	}

	var p *domain.Product
	if title == "" {
		p, title = m.productTitle(ctx, productID)
	}
	item := domain.CartItem{
		ID:        productID,
		Quantity:  1,
		Price:     decimal.Zero,
		Title:     title,
		IsGift:    true,
		Type:      domain.ItemTypeWheelGift,
		WonAt:     &won,
		ExpiresAt: &expires,
	}
	if p != nil {
		item.ImageURL = p.ImageURL
	}
	m.items = append(m.items, item)
	return item
}

// UpdateWheelGiftExpiration sets expires_at = won_at + hours. It reports false when the
// line is missing or has no won_at.
func (m *Manager) UpdateWheelGiftExpiration(id string, hours int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		item := &m.items[i]
		if item.ID != id || !item.IsWheelGift() {
			continue
		}
		if item.WonAt == nil {
			return false
		}
		expires := item.WonAt.Add(time.Duration(hours) * time.Hour)
		item.ExpiresAt = &expires
		return true
	}
	return false
}

// CleanupExpiredGifts drops wheel gifts whose expiry has passed.
func (m *Manager) CleanupExpiredGifts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	return m.dropLocked(func(item domain.CartItem) bool {
		return item.IsWheelGift() && item.ExpiresAt != nil && now.After(*item.ExpiresAt)
	})
}

// ClearWheelGifts drops every wheel gift.
func (m *Manager) ClearWheelGifts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dropLocked(domain.CartItem.IsWheelGift)
}

func (m *Manager) dropLocked(drop func(domain.CartItem) bool) int {
	kept := m.items[:0]
	removed := 0
	for _, item := range m.items {
		if drop(item) {
			removed++
			continue
		}
		kept = append(kept, item)
	}
	m.items = kept
	return removed
}
