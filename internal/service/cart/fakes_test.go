package cart

import (
	"context"
	"sync"
	"time"

	"aquashop/internal/domain"
	"aquashop/internal/promo"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func lineKey(id string, variant domain.Variant) string {
	return id + "#" + variant.String()
}

type stubPricing struct {
	prices     map[string]*domain.PriceInfo
	stock      map[string]int
	priceErr   error
	priceCalls int
}

func (s *stubPricing) Price(_ context.Context, productID string, variant domain.Variant) (*domain.PriceInfo, error) {
	s.priceCalls++
	if s.priceErr != nil {
		return nil, s.priceErr
	}
	info, ok := s.prices[lineKey(productID, variant)]
	if !ok {
		return nil, nil
	}
	out := *info
	return &out, nil
}

func (s *stubPricing) StockCeiling(_ context.Context, productID string, variant domain.Variant) (int, bool, error) {
	n, ok := s.stock[lineKey(productID, variant)]
	return n, ok, nil
}

// emptyContent is a Content Store with no keys.
type emptyContent struct{}

func (emptyContent) Get(context.Context, string) (string, bool, error) { return "", false, nil }

func (emptyContent) GetMany(context.Context, []string) (map[string]string, error) {
	return map[string]string{}, nil
}

func (emptyContent) FindByPattern(context.Context, string) (map[string]string, error) {
	return map[string]string{}, nil
}

type stubProducts struct {
	items map[string]domain.Product
}

func (s *stubProducts) GetByID(_ context.Context, id string) (*domain.Product, error) {
	p, ok := s.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

// memoryItems is an in-memory Item Store with the same row semantics as the Postgres one.
type memoryItems struct {
	mu       sync.Mutex
	rows     []domain.CartRow
	products map[string]domain.Product

	upsertErr       error
	replaceGiftsErr error
	listErr         error

	upsertCalls       int
	replaceGiftsCalls int
	lastDeleteProduct string
	lastDeleteUser    string
}

func (s *memoryItems) ListByUser(_ context.Context, userID string) ([]domain.CartRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []domain.CartRow
	for _, row := range s.rows {
		if row.UserID != userID {
			continue
		}
		if p, ok := s.products[row.ProductID]; ok {
			row.ProductTitle = p.Title
			row.ProductPrice = p.Price
			row.ImageURL = p.ImageURL
			row.Category = p.CategoryKey
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *memoryItems) Upsert(_ context.Context, row domain.CartRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsertCalls++
	if s.upsertErr != nil {
		return s.upsertErr
	}
	for i, existing := range s.rows {
		if existing.UserID == row.UserID && existing.ProductID == row.ProductID && existing.Variant == row.Variant && !existing.IsGift && !existing.ThresholdGift {
			s.rows[i].Quantity = row.Quantity
			s.rows[i].PriceRef = row.PriceRef
			s.rows[i].OriginalPrice = row.OriginalPrice
			s.rows[i].DiscountPercentage = row.DiscountPercentage
			return nil
		}
	}
	s.rows = append(s.rows, row)
	return nil
}

func (s *memoryItems) UpdateQuantity(_ context.Context, userID, productID, variant string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, row := range s.rows {
		if row.UserID == userID && row.ProductID == productID && row.Variant == variant && !row.IsGift && !row.ThresholdGift {
			s.rows[i].Quantity = quantity
			return nil
		}
	}
	return domain.ErrNotFound
}

func (s *memoryItems) DeleteProduct(_ context.Context, userID, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastDeleteProduct = productID
	s.filter(func(row domain.CartRow) bool {
		return row.UserID == userID && row.ProductID == productID && !row.IsGift && !row.ThresholdGift
	})
	return nil
}

func (s *memoryItems) DeleteByUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastDeleteUser = userID
	s.filter(func(row domain.CartRow) bool { return row.UserID == userID })
	return nil
}

func (s *memoryItems) ReplaceGifts(_ context.Context, userID string, gifts []domain.CartRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaceGiftsCalls++
	if s.replaceGiftsErr != nil {
		return s.replaceGiftsErr
	}
	s.filter(func(row domain.CartRow) bool {
		return row.UserID == userID && (row.IsGift || row.ThresholdGift)
	})
	s.rows = append(s.rows, gifts...)
	return nil
}

func (s *memoryItems) filter(drop func(domain.CartRow) bool) {
	kept := s.rows[:0]
	for _, row := range s.rows {
		if !drop(row) {
			kept = append(kept, row)
		}
	}
	s.rows = kept
}

type stubGifts struct {
	settings      domain.GiftSettings
	rules         []domain.GiftRule
	settingsCalls int
}

func (s *stubGifts) GetSettings(context.Context) (domain.GiftSettings, error) {
	s.settingsCalls++
	return s.settings, nil
}

func (s *stubGifts) ListRules(context.Context) ([]domain.GiftRule, error) {
	return s.rules, nil
}

type stubPromo struct {
	resp    *promo.Response
	err     error
	lastReq promo.Request
	calls   int
}

func (s *stubPromo) Validate(_ context.Context, req promo.Request) (*promo.Response, error) {
	s.calls++
	s.lastReq = req
	return s.resp, s.err
}

type stubAbandoned struct {
	last          *domain.AbandonedCart
	lastRecovered string
	recoverErr    error
}

func (s *stubAbandoned) Upsert(_ context.Context, cart domain.AbandonedCart) error {
	s.last = &cart
	return nil
}

func (s *stubAbandoned) MarkRecovered(_ context.Context, email string, _ time.Time) error {
	s.lastRecovered = email
	return s.recoverErr
}

type memorySnapshots struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemorySnapshots() *memorySnapshots {
	return &memorySnapshots{data: make(map[string][]byte)}
}

func (s *memorySnapshots) Save(_ context.Context, sessionID string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[sessionID] = append([]byte(nil), data...)
	return nil
}

func (s *memorySnapshots) Load(_ context.Context, sessionID string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.data[sessionID]
	return data, ok, nil
}

func (s *memorySnapshots) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

type fixture struct {
	pricing   *stubPricing
	products  *stubProducts
	items     *memoryItems
	gifts     *stubGifts
	promo     *stubPromo
	abandoned *stubAbandoned
	snapshots *memorySnapshots
	notices   *NoticeRecorder
	now       time.Time
}

func newFixture() *fixture {
	products := &stubProducts{items: map[string]domain.Product{
		"p1":    {ID: "p1", Title: "Bac 60L", Price: domain.Amount(dec("10.00")), CategoryKey: "aquariums"},
		"p2":    {ID: "p2", Title: "Filtre interne", Price: domain.Amount(dec("25.00")), CategoryKey: "filtration"},
		"gift1": {ID: "gift1", Title: "Épuisette", Price: domain.Amount(dec("4.00"))},
		"gift2": {ID: "gift2", Title: "Thermomètre", Price: domain.Amount(dec("6.00"))},
	}}
	return &fixture{
		pricing: &stubPricing{
			prices: map[string]*domain.PriceInfo{
				"p1#": domain.BasePrice(dec("10.00"), "price_p1"),
				"p2#": domain.BasePrice(dec("25.00"), "price_p2"),
			},
			stock: map[string]int{},
		},
		products:  products,
		items:     &memoryItems{products: products.items},
		gifts:     &stubGifts{},
		promo:     &stubPromo{},
		abandoned: &stubAbandoned{},
		snapshots: newMemorySnapshots(),
		notices:   &NoticeRecorder{},
		now:       time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (f *fixture) deps() Deps {
	return Deps{
		Items:     f.items,
		Catalog:   f.pricing,
		Products:  f.products,
		Gifts:     f.gifts,
		Promo:     f.promo,
		Abandoned: f.abandoned,
		Snapshots: f.snapshots,
		Notifier:  f.notices,
		Now:       func() time.Time { return f.now },
	}
}

func (f *fixture) local() *Manager {
	return NewManager(f.deps(), Session{ID: "s1"})
}

func (f *fixture) remote() *Manager {
	return NewManager(f.deps(), Session{ID: "s1", UserID: "u1", Email: "client@example.com"})
}

func countGifts(items []domain.CartItem) (defaults, thresholds int) {
	for _, item := range items {
		switch {
		case item.ThresholdGift:
			thresholds++
		case item.IsDefaultGift():
			defaults++
		}
	}
	return defaults, thresholds
}

func findLine(items []domain.CartItem, id string) *domain.CartItem {
	for i := range items {
		if items[i].ID == id {
			return &items[i]
		}
	}
	return nil
}
