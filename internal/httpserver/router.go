package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"aquashop/internal/domain"
	"aquashop/internal/service/cart"
	productsvc "aquashop/internal/service/product"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// CartSessions hands out the cart manager of a session.
type CartSessions interface {
	Get(ctx context.Context, s cart.Session) *cart.Manager
}

type ProductService interface {
	List(ctx context.Context) ([]domain.Product, error)
	Offer(ctx context.Context, id string, variant domain.Variant) (*productsvc.Offer, error)
	Price(ctx context.Context, id string, variant domain.Variant) (*domain.PriceInfo, error)
}

type CategoryService interface {
	List(ctx context.Context) ([]domain.Category, error)
}

// Deps are the services behind the API. Metrics is optional.
type Deps struct {
	Carts       CartSessions
	ProductSvc  ProductService
	CategorySvc CategoryService
	Metrics     http.Handler
	CORSOrigins []string
}

// buildRouter wires routes for the API.
func buildRouter(logger *zerolog.Logger, pool *pgxpool.Pool, deps Deps) (*gin.Engine, error) {
	if deps.Carts == nil {
		return nil, errors.New("cart sessions required")
	}
	if deps.ProductSvc == nil || deps.CategorySvc == nil {
		return nil, errors.New("product and category services required")
	}
	l := zerolog.Nop()
	if logger != nil {
		l = *logger
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(requestLogger(l), gin.Recovery(), cors.New(corsConfig(deps.CORSOrigins)))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(pool))
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics))
	}

	catalog := &catalogHandlers{products: deps.ProductSvc, categories: deps.CategorySvc}
	router.GET("/categories", catalog.listCategories)
	router.GET("/products", catalog.listProducts)
	router.GET("/products/:id", catalog.getProduct)
	router.GET("/products/:id/price", catalog.getPrice)

	h := &cartHandlers{carts: deps.Carts, logger: l}
	carts := router.Group("/cart", sessionMiddleware())
	carts.GET("", h.get)
	carts.DELETE("", h.clear)
	carts.GET("/totals", h.totals)
	carts.POST("/items", h.addItem)
	carts.PATCH("/items/:id", h.updateItem)
	carts.DELETE("/items/:id", h.removeItem)
	carts.POST("/sync", h.sync)
	carts.POST("/gifts/reconcile", h.reconcileGifts)
	carts.POST("/promo", h.applyPromo)
	carts.DELETE("/promo", h.removePromo)
	carts.POST("/wheel-gifts", h.addWheelGift)
	carts.PATCH("/wheel-gifts/:id/expiration", h.updateWheelGiftExpiration)
	carts.POST("/wheel-gifts/cleanup", h.cleanupWheelGifts)
	carts.DELETE("/wheel-gifts", h.clearWheelGifts)
	carts.POST("/abandoned", h.upsertAbandoned)
	carts.POST("/recovered", h.markRecovered)

	return router, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", headerSessionID, headerUserID, headerUserEmail},
		ExposeHeaders:    []string{headerSessionID},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func writeError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}
