// Package cart holds the per-session cart manager: the authoritative in-memory cart,
// reconciled against the Item Store and priced from the catalog.
package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"

	"aquashop/internal/domain"
	"aquashop/internal/metrics"
	"aquashop/internal/promo"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ItemStore is the durable per-user cart row store.
type ItemStore interface {
	ListByUser(ctx context.Context, userID string) ([]domain.CartRow, error)
	Upsert(ctx context.Context, row domain.CartRow) error
	UpdateQuantity(ctx context.Context, userID, productID, variant string, quantity int) error
	DeleteProduct(ctx context.Context, userID, productID string) error
	DeleteByUser(ctx context.Context, userID string) error
	ReplaceGifts(ctx context.Context, userID string, gifts []domain.CartRow) error
}

// Pricing resolves current prices and stock ceilings.
type Pricing interface {
	Price(ctx context.Context, productID string, variant domain.Variant) (*domain.PriceInfo, error)
	StockCeiling(ctx context.Context, productID string, variant domain.Variant) (int, bool, error)
}

type ProductLookup interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

type GiftSource interface {
	GetSettings(ctx context.Context) (domain.GiftSettings, error)
	ListRules(ctx context.Context) ([]domain.GiftRule, error)
}

type PromoValidator interface {
	Validate(ctx context.Context, req promo.Request) (*promo.Response, error)
}

type AbandonedStore interface {
	Upsert(ctx context.Context, cart domain.AbandonedCart) error
	MarkRecovered(ctx context.Context, email string, at time.Time) error
}

type SnapshotStore interface {
	Save(ctx context.Context, sessionID string, data []byte) error
	Load(ctx context.Context, sessionID string) ([]byte, bool, error)
	Delete(ctx context.Context, sessionID string) error
}

// Deps are the collaborators shared by every manager. Items, Gifts, Promo, Abandoned,
// Snapshots and Notifier may be nil; the matching features are then disabled.
type Deps struct {
	Items     ItemStore
	Catalog   Pricing
	Products  ProductLookup
	Gifts     GiftSource
	Promo     PromoValidator
	Abandoned AbandonedStore
	Snapshots SnapshotStore
	Notifier  Notifier
	Metrics   *metrics.CartMetrics
	Logger    *zerolog.Logger
	Now       func() time.Time
}

// Session identifies the cart owner. UserID enables the remote Item Store.
type Session struct {
	ID     string
	UserID string
	Email  string
}

// Remote reports whether the session has an Item Store identity.
func (s Session) Remote() bool {
	return s.UserID != ""
}

const giftSettingsTTL = time.Minute

// Manager owns one session's cart. All methods are safe for concurrent use.
type Manager struct {
	mu sync.Mutex

	deps    Deps
	logger  zerolog.Logger
	now     func() time.Time
	session Session

	items []domain.CartItem
	promo *domain.AppliedPromoCode

	giftSettings       *domain.GiftSettings
	giftSettingsLoaded time.Time
}

func NewManager(deps Deps, session Session) *Manager {
	l := zerolog.Nop()
	if deps.Logger != nil {
		l = *deps.Logger
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Manager{
		deps:    deps,
		logger:  l.With().Str("session_id", session.ID).Logger(),
		now:     now,
		session: session,
	}
}

// Session returns the current owner identity.
func (m *Manager) Session() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// Items returns a copy of the cart lines in display order.
func (m *Manager) Items() []domain.CartItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.items)
}

// AppliedPromo returns the applied promo code, if any.
func (m *Manager) AppliedPromo() *domain.AppliedPromoCode {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.promo == nil {
		return nil
	}
	p := *m.promo
	return &p
}

// Total is the sum of price*quantity over payable lines.
func (m *Manager) Total() decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totalLocked()
}

func (m *Manager) totalLocked() decimal.Decimal {
	total := decimal.Zero
	for _, item := range m.items {
		if item.Payable() {
			total = total.Add(item.LineTotal())
		}
	}
	return total.Round(2)
}

func (m *Manager) payableLocked() []domain.CartItem {
	var out []domain.CartItem
	for _, item := range m.items {
		if item.Payable() {
			out = append(out, item)
		}
	}
	return out
}

// DiscountedPrice resolves the current best price; nil means the product is misconfigured.
func (m *Manager) DiscountedPrice(ctx context.Context, productID string, variant domain.Variant) (*domain.PriceInfo, error) {
	return m.deps.Catalog.Price(ctx, productID, variant)
}

// Identify updates the owner identity. A newly attached user id pulls the remote cart.
func (m *Manager) Identify(ctx context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.Email != "" {
		m.session.Email = s.Email
	}
	if s.UserID == "" || s.UserID == m.session.UserID {
		return nil
	}
	m.session.UserID = s.UserID
	return m.syncLocked(ctx)
}

type snapshotPayload struct {
	Items   []domain.CartItem        `json:"items"`
	Promo   *domain.AppliedPromoCode `json:"promo,omitempty"`
	SavedAt time.Time                `json:"saved_at"`
}

// Snapshot serialises the cart lines and applied promo code.
func (m *Manager) Snapshot() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() ([]byte, error) {
	items := m.items
	if items == nil {
		items = []domain.CartItem{}
	}
	return json.Marshal(snapshotPayload{Items: items, Promo: m.promo, SavedAt: m.now().UTC()})
}

// Restore replaces the cart with a snapshot produced by Snapshot.
func (m *Manager) Restore(data []byte) error {
	var payload snapshotPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("decode cart snapshot: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = payload.Items
	m.promo = payload.Promo
	return nil
}

// SaveSnapshot writes the cart to the snapshot store.
func (m *Manager) SaveSnapshot(ctx context.Context) error {
	if m.deps.Snapshots == nil {
		return nil
	}
	m.mu.Lock()
	data, err := m.snapshotLocked()
	id := m.session.ID
	m.mu.Unlock()
	if err != nil {
		return err
	}
	return m.deps.Snapshots.Save(ctx, id, data)
}

// LoadSnapshot restores the stored snapshot; found is false when none exists.
func (m *Manager) LoadSnapshot(ctx context.Context) (bool, error) {
	if m.deps.Snapshots == nil {
		return false, nil
	}
	data, ok, err := m.deps.Snapshots.Load(ctx, m.Session().ID)
	if err != nil || !ok {
		return false, err
	}
	if err := m.Restore(data); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Manager) observe(op string, err error) {
	m.deps.Metrics.ObserveOperation(op, err)
}

func (m *Manager) productTitle(ctx context.Context, productID string) (*domain.Product, string) {
	if m.deps.Products == nil {
		return nil, domain.UnknownProductTitle
	}
	p, err := m.deps.Products.GetByID(ctx, productID)
	if err != nil || p == nil {
		if err != nil && !isNotFound(err) {
			m.logger.Warn().Err(err).Str("product_id", productID).Msg("cart: product lookup")
		}
		return nil, domain.UnknownProductTitle
	}
	if p.Title == "" {
		return p, domain.UnknownProductTitle
	}
	return p, p.Title
}
