package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"aquashop/internal/domain"
	"aquashop/internal/service/cart"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const defaultWheelGiftTTL = 24 * time.Hour

type addItemRequest struct {
	ID       string `json:"id" binding:"required,max=128"`
	Quantity int    `json:"quantity" binding:"omitempty,min=1,max=999"`
	Variant  string `json:"variant" binding:"max=512"`
	Title    string `json:"title" binding:"max=256"`
	ImageURL string `json:"image_url" binding:"omitempty,url"`
	Category string `json:"category" binding:"max=128"`
}

type updateItemRequest struct {
	Quantity *int    `json:"quantity" binding:"required,min=0,max=999"`
	Variant  *string `json:"variant"`
}

type promoRequest struct {
	Code string `json:"code" binding:"required,max=64"`
}

type wheelGiftRequest struct {
	ProductID string     `json:"product_id" binding:"required,max=128"`
	Title     string     `json:"title" binding:"max=256"`
	WonAt     *time.Time `json:"won_at"`
	TTLHours  int        `json:"ttl_hours" binding:"omitempty,min=1,max=8760"`
}

type expirationRequest struct {
	Hours int `json:"hours" binding:"required,min=1,max=8760"`
}

type emailRequest struct {
	Email string `json:"email" binding:"omitempty,email"`
}

type cartHandlers struct {
	carts  CartSessions
	logger zerolog.Logger
}

func (h *cartHandlers) manager(c *gin.Context) *cart.Manager {
	return h.carts.Get(c.Request.Context(), sessionFrom(c))
}

// respond saves the snapshot after mutations and writes the cart with its notices.
func (h *cartHandlers) respond(c *gin.Context, m *cart.Manager, mutated bool, extra gin.H) {
	if mutated {
		if err := m.SaveSnapshot(c.Request.Context()); err != nil {
			h.logger.Warn().Err(err).Str("session_id", m.Session().ID).Msg("save cart snapshot")
		}
	}
	body := gin.H{"cart": toCartResponse(m, noticesFrom(c))}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

func (h *cartHandlers) get(c *gin.Context) {
	h.respond(c, h.manager(c), false, nil)
}

func (h *cartHandlers) totals(c *gin.Context) {
	c.JSON(http.StatusOK, h.manager(c).TotalWithPromo())
}

func (h *cartHandlers) addItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	variant, err := domain.ParseVariant(req.Variant)
	if err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}

	m := h.manager(c)
	res, err := m.AddItem(c.Request.Context(), cart.AddItemInput{
		ID:       req.ID,
		Title:    req.Title,
		ImageURL: req.ImageURL,
		Variant:  variant,
		Category: req.Category,
	}, req.Quantity)
	if err != nil {
		if errors.Is(err, domain.ErrPriceNotConfigured) {
			writeError(c, http.StatusUnprocessableEntity, "price not configured for this product")
			return
		}
		_ = c.Error(err)
		writeError(c, http.StatusInternalServerError, "failed to add item")
		return
	}
	h.respond(c, m, res.Added > 0, gin.H{"result": res})
}

func (h *cartHandlers) updateItem(c *gin.Context) {
	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	m := h.manager(c)
	ctx := c.Request.Context()
	id := c.Param("id")

	var err error
	if req.Variant != nil {
		variant, perr := domain.ParseVariant(*req.Variant)
		if perr != nil {
			writeError(c, http.StatusBadRequest, perr.Error())
			return
		}
		err = m.UpdateLineQuantity(ctx, id, variant, *req.Quantity)
	} else {
		err = m.UpdateQuantity(ctx, id, *req.Quantity)
	}
	if !h.handleMutationError(c, err) {
		return
	}
	h.respond(c, m, true, nil)
}

func (h *cartHandlers) removeItem(c *gin.Context) {
	m := h.manager(c)
	if !h.handleMutationError(c, m.RemoveItem(c.Request.Context(), c.Param("id"))) {
		return
	}
	h.respond(c, m, true, nil)
}

func (h *cartHandlers) clear(c *gin.Context) {
	m := h.manager(c)
	if !h.handleMutationError(c, m.ClearCart(c.Request.Context())) {
		return
	}
	h.respond(c, m, false, nil)
}

// sync and reconcileGifts report remote failures through notices.
func (h *cartHandlers) sync(c *gin.Context) {
	m := h.manager(c)
	if err := m.Sync(c.Request.Context()); err != nil {
		_ = c.Error(err)
	}
	h.respond(c, m, true, nil)
}

func (h *cartHandlers) reconcileGifts(c *gin.Context) {
	m := h.manager(c)
	if err := m.ManageGiftItems(c.Request.Context()); err != nil {
		_ = c.Error(err)
	}
	h.respond(c, m, true, nil)
}

func (h *cartHandlers) applyPromo(c *gin.Context) {
	var req promoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	m := h.manager(c)
	res := m.ApplyPromoCode(c.Request.Context(), req.Code)
	h.respond(c, m, res.Success, gin.H{"result": res})
}

func (h *cartHandlers) removePromo(c *gin.Context) {
	m := h.manager(c)
	m.RemovePromoCode()
	h.respond(c, m, true, nil)
}

func (h *cartHandlers) addWheelGift(c *gin.Context) {
	var req wheelGiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	wonAt := time.Now()
	if req.WonAt != nil {
		wonAt = *req.WonAt
	}
	ttl := defaultWheelGiftTTL
	if req.TTLHours > 0 {
		ttl = time.Duration(req.TTLHours) * time.Hour
	}
	m := h.manager(c)
	item := m.AddWheelGift(c.Request.Context(), req.ProductID, req.Title, wonAt, ttl)
	h.respond(c, m, true, gin.H{"item": item})
}

func (h *cartHandlers) updateWheelGiftExpiration(c *gin.Context) {
	var req expirationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	m := h.manager(c)
	if !m.UpdateWheelGiftExpiration(c.Param("id"), req.Hours) {
		writeError(c, http.StatusNotFound, "wheel gift not found")
		return
	}
	h.respond(c, m, true, nil)
}

func (h *cartHandlers) cleanupWheelGifts(c *gin.Context) {
	m := h.manager(c)
	removed := m.CleanupExpiredGifts()
	h.respond(c, m, removed > 0, gin.H{"removed": removed})
}

func (h *cartHandlers) clearWheelGifts(c *gin.Context) {
	m := h.manager(c)
	removed := m.ClearWheelGifts()
	h.respond(c, m, removed > 0, gin.H{"removed": removed})
}

func (h *cartHandlers) upsertAbandoned(c *gin.Context) {
	h.abandonedSignal(c, (*cart.Manager).UpsertAbandonedCart)
}

func (h *cartHandlers) markRecovered(c *gin.Context) {
	h.abandonedSignal(c, (*cart.Manager).MarkCartAsRecovered)
}

func (h *cartHandlers) abandonedSignal(c *gin.Context, signal func(*cart.Manager, context.Context, string) (bool, error)) {
	var req emailRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, err.Error())
			return
		}
	}
	recorded, err := signal(h.manager(c), c.Request.Context(), req.Email)
	if err != nil {
		_ = c.Error(err)
		writeError(c, http.StatusBadGateway, "abandoned cart store unavailable")
		return
	}
	c.JSON(http.StatusOK, gin.H{"recorded": recorded})
}

// handleMutationError writes the response for err and reports whether the handler
// should continue.
func (h *cartHandlers) handleMutationError(c *gin.Context, err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, domain.ErrNotFound):
		writeError(c, http.StatusNotFound, "item not in cart")
	default:
		_ = c.Error(err)
		writeError(c, http.StatusInternalServerError, "cart update failed")
	}
	return false
}
