package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"aquashop/internal/domain"
	"github.com/shopspring/decimal"
)

// AddItemInput describes a product to add. A nil Price is resolved from the catalog;
// an empty Title is looked up from the products table.
type AddItemInput struct {
	ID       string
	Title    string
	ImageURL string
	Variant  domain.Variant
	Category string
	Price    *domain.PriceInfo
}

// AddResult reports what AddItem actually did.
type AddResult struct {
	Item      *domain.CartItem
	Requested int
	Added     int
	Clamped   bool
}

// ItemPatch is a partial update applied by UpdateItem. Nil fields are left unchanged.
type ItemPatch struct {
	Quantity  *int
	Title     *string
	ImageURL  *string
	Price     *decimal.Decimal
	WonAt     *time.Time
	ExpiresAt *time.Time
}

const (
	msgStockInsufficient = "Stock insuffisant : la quantité a été ajustée au stock disponible."
	msgOutOfStock        = "Stock insuffisant : ce produit n'est plus disponible en quantité supplémentaire."
	msgAddFailed         = "Impossible d'ajouter le produit au panier."
	msgUpdateFailed      = "Impossible de mettre à jour la quantité."
	msgRemoveFailed      = "Impossible de retirer le produit du panier."
	msgClearFailed       = "Impossible de vider le panier."
)

// AddItem adds qty (default 1) of a product, merging with the line of the same
// (id, variant). The quantity is clamped to the remaining stock; at zero headroom the
// call is a no-op. Item Store failures are reported as notices and keep local state.
func (m *Manager) AddItem(ctx context.Context, in AddItemInput, qty int) (AddResult, error) {
	res, err := m.addItem(ctx, in, qty)
	m.observe("add_item", err)
	return res, err
}

func (m *Manager) addItem(ctx context.Context, in AddItemInput, qty int) (AddResult, error) {
	in.ID = strings.TrimSpace(in.ID)
	if in.ID == "" {
		return AddResult{}, errors.New("product id required")
	}
	if qty <= 0 {
		qty = 1
	}
	res := AddResult{Requested: qty}

	m.mu.Lock()
	defer m.mu.Unlock()

	if in.Title == "" || in.ImageURL == "" || in.Category == "" {
		p, title := m.productTitle(ctx, in.ID)
		if in.Title == "" {
			in.Title = title
		}
		if p != nil {
			if in.ImageURL == "" {
				in.ImageURL = p.ImageURL
			}
			if in.Category == "" {
				in.Category = p.CategoryKey
			}
		}
	}

	price := in.Price
	if price == nil {
		info, err := m.deps.Catalog.Price(ctx, in.ID, in.Variant)
		if err != nil {
			return res, fmt.Errorf("resolve price: %w", err)
		}
		if info == nil {
			m.logger.Warn().Str("product_id", in.ID).Str("variant", in.Variant.String()).Msg("cart: price not configured")
			return res, domain.ErrPriceNotConfigured
		}
		price = info
	}

	idx := m.regularLineLocked(in.ID, in.Variant)
	current := 0
	if idx >= 0 {
		current = m.items[idx].Quantity
	}

	ceiling, limited, err := m.deps.Catalog.StockCeiling(ctx, in.ID, in.Variant)
	if err != nil {
		return res, fmt.Errorf("resolve stock: %w", err)
	}
	if limited {
		headroom := ceiling - current
		if headroom <= 0 {
			res.Clamped = true
			m.deps.Metrics.IncStockClamp()
			m.notify(ctx, NoticeWarning, CodeStockInsufficient, msgOutOfStock)
			return res, nil
		}
		if qty > headroom {
			qty = headroom
			res.Clamped = true
			m.deps.Metrics.IncStockClamp()
			m.notify(ctx, NoticeWarning, CodeStockInsufficient, msgStockInsufficient)
		}
	}

	if idx >= 0 {
		m.items[idx].Quantity += qty
		m.items[idx].ApplyPrice(*price)
	} else {
		item := domain.CartItem{
			ID:       in.ID,
			Quantity: qty,
			Title:    in.Title,
			ImageURL: in.ImageURL,
			Variant:  in.Variant,
			Category: in.Category,
			Type:     domain.ItemTypeRegular,
		}
		item.ApplyPrice(*price)
		m.items = append(m.items, item)
		idx = len(m.items) - 1
	}
	res.Added = qty
	line := m.items[idx]
	res.Item = &line

	m.logger.Debug().Str("product_id", in.ID).Str("variant", in.Variant.String()).Int("quantity", line.Quantity).Msg("cart: add")

	if m.session.Remote() && m.deps.Items != nil {
		if err := m.deps.Items.Upsert(ctx, rowFromItem(m.session.UserID, line)); err != nil {
			m.logger.Error().Err(err).Str("product_id", in.ID).Msg("cart: upsert item")
			m.notify(ctx, NoticeError, CodeAddFailed, msgAddFailed)
			m.refreshPromoLocked()
			return res, nil
		}
	}
	m.reconcileLocked(ctx)
	if i := m.regularLineLocked(in.ID, in.Variant); i >= 0 {
		line = m.items[i]
		res.Item = &line
	}
	return res, nil
}

// RemoveItem deletes every line of the product regardless of variant, except the
// automatic gift lines which are recomputed afterwards.
func (m *Manager) RemoveItem(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	err := m.removeLocked(ctx, id)
	m.observe("remove_item", err)
	return err
}

func (m *Manager) removeLocked(ctx context.Context, id string) error {
	kept := m.items[:0]
	removed := 0
	for _, item := range m.items {
		if item.ID == id && !isAutomaticGift(item) {
			removed++
			continue
		}
		kept = append(kept, item)
	}
	m.items = kept
	if removed == 0 {
		return domain.ErrNotFound
	}

	if m.session.Remote() && m.deps.Items != nil {
		if err := m.deps.Items.DeleteProduct(ctx, m.session.UserID, id); err != nil {
			m.logger.Error().Err(err).Str("product_id", id).Msg("cart: delete item")
			m.notify(ctx, NoticeError, CodeRemoveFailed, msgRemoveFailed)
			m.refreshPromoLocked()
			return nil
		}
	}
	m.reconcileLocked(ctx)
	return nil
}

// UpdateQuantity sets the quantity of the first regular line of the product.
// qty <= 0 removes the product.
func (m *Manager) UpdateQuantity(ctx context.Context, id string, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := m.firstRegularLineLocked(id)
	err := m.updateQuantityLocked(ctx, id, idx, qty)
	m.observe("update_quantity", err)
	return err
}

// UpdateLineQuantity is UpdateQuantity for one (id, variant) line.
func (m *Manager) UpdateLineQuantity(ctx context.Context, id string, variant domain.Variant, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := m.regularLineLocked(id, variant)
	err := m.updateQuantityLocked(ctx, id, idx, qty)
	m.observe("update_quantity", err)
	return err
}

func (m *Manager) updateQuantityLocked(ctx context.Context, id string, idx, qty int) error {
	if qty <= 0 {
		return m.removeLocked(ctx, id)
	}
	if idx < 0 {
		return domain.ErrNotFound
	}
	item := m.items[idx]

	ceiling, limited, err := m.deps.Catalog.StockCeiling(ctx, item.ID, item.Variant)
	if err != nil {
		return fmt.Errorf("resolve stock: %w", err)
	}
	if limited && qty > ceiling {
		qty = ceiling
		m.deps.Metrics.IncStockClamp()
		m.notify(ctx, NoticeWarning, CodeStockInsufficient, msgStockInsufficient)
		if qty <= 0 {
			return m.removeLocked(ctx, id)
		}
	}
	m.items[idx].Quantity = qty

	if m.session.Remote() && m.deps.Items != nil {
		err := m.deps.Items.UpdateQuantity(ctx, m.session.UserID, item.ID, item.Variant.String(), qty)
		if isNotFound(err) {
			err = m.deps.Items.Upsert(ctx, rowFromItem(m.session.UserID, m.items[idx]))
		}
		if err != nil {
			m.logger.Error().Err(err).Str("product_id", item.ID).Msg("cart: update quantity")
			m.notify(ctx, NoticeError, CodeUpdateFailed, msgUpdateFailed)
			m.refreshPromoLocked()
			return nil
		}
	}
	m.reconcileLocked(ctx)
	return nil
}

// UpdateItem patches the first line with id in local state only. It returns false when
// no line matched. A patched quantity below 1 drops the line.
func (m *Manager) UpdateItem(id string, patch ItemPatch) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].ID != id {
			continue
		}
		item := &m.items[i]
		if patch.Quantity != nil {
			if *patch.Quantity < 1 {
				m.items = append(m.items[:i], m.items[i+1:]...)
				m.refreshPromoLocked()
				return true
			}
			item.Quantity = *patch.Quantity
		}
		if patch.Title != nil {
			item.Title = *patch.Title
		}
		if patch.ImageURL != nil {
			item.ImageURL = *patch.ImageURL
		}
		if patch.Price != nil {
			item.Price = patch.Price.Round(2)
			item.OriginalPrice = nil
			item.DiscountPercentage = nil
			item.DiscountPriceRef = ""
		}
		if patch.WonAt != nil {
			t := *patch.WonAt
			item.WonAt = &t
		}
		if patch.ExpiresAt != nil {
			t := *patch.ExpiresAt
			item.ExpiresAt = &t
		}
		m.refreshPromoLocked()
		return true
	}
	return false
}

// ClearCart empties the cart, drops the stored snapshot and the user's Item Store rows.
func (m *Manager) ClearCart(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items = nil
	m.promo = nil

	if m.deps.Snapshots != nil {
		if err := m.deps.Snapshots.Delete(ctx, m.session.ID); err != nil {
			m.logger.Warn().Err(err).Msg("cart: delete snapshot")
		}
	}
	var err error
	if m.session.Remote() && m.deps.Items != nil {
		if err = m.deps.Items.DeleteByUser(ctx, m.session.UserID); err != nil {
			m.logger.Error().Err(err).Msg("cart: clear remote")
			m.notify(ctx, NoticeError, CodeClearFailed, msgClearFailed)
		}
	}
	m.observe("clear_cart", err)
	return nil
}

func (m *Manager) regularLineLocked(id string, variant domain.Variant) int {
	for i, item := range m.items {
		if !item.IsGift && !item.ThresholdGift && item.Matches(id, variant) {
			return i
		}
	}
	return -1
}

func (m *Manager) firstRegularLineLocked(id string) int {
	for i, item := range m.items {
		if !item.IsGift && !item.ThresholdGift && item.ID == id {
			return i
		}
	}
	return -1
}

// isAutomaticGift reports lines owned by gift reconciliation (default and threshold gifts).
func isAutomaticGift(item domain.CartItem) bool {
	return item.ThresholdGift || item.IsDefaultGift()
}

func rowFromItem(userID string, item domain.CartItem) domain.CartRow {
	return domain.CartRow{
		UserID:             userID,
		ProductID:          item.ID,
		Quantity:           item.Quantity,
		Variant:            item.Variant.String(),
		PriceRef:           item.PriceRef,
		DiscountPriceRef:   item.DiscountPriceRef,
		OriginalPrice:      item.OriginalPrice,
		DiscountPercentage: item.DiscountPercentage,
		HasDiscount:        item.OriginalPrice != nil && item.DiscountPercentage != nil,
		IsGift:             item.IsGift,
		ThresholdGift:      item.ThresholdGift,
		Title:              item.Title,
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
