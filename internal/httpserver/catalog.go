package httpserver

import (
	"errors"
	"net/http"

	"aquashop/internal/domain"
	"github.com/gin-gonic/gin"
)

type catalogHandlers struct {
	products   ProductService
	categories CategoryService
}

func (h *catalogHandlers) listCategories(c *gin.Context) {
	categories, err := h.categories.List(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		writeError(c, http.StatusInternalServerError, "failed to list categories")
		return
	}
	if categories == nil {
		categories = []domain.Category{}
	}
	c.JSON(http.StatusOK, gin.H{"results": categories, "total": len(categories)})
}

func (h *catalogHandlers) listProducts(c *gin.Context) {
	products, err := h.products.List(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		writeError(c, http.StatusInternalServerError, "failed to list products")
		return
	}
	if products == nil {
		products = []domain.Product{}
	}
	c.JSON(http.StatusOK, gin.H{"results": products, "total": len(products)})
}

func (h *catalogHandlers) getProduct(c *gin.Context) {
	variant, ok := variantQuery(c)
	if !ok {
		return
	}
	offer, err := h.products.Offer(c.Request.Context(), c.Param("id"), variant)
	if err != nil {
		writeCatalogError(c, err)
		return
	}
	c.JSON(http.StatusOK, offer)
}

func (h *catalogHandlers) getPrice(c *gin.Context) {
	variant, ok := variantQuery(c)
	if !ok {
		return
	}
	id := c.Param("id")
	info, err := h.products.Price(c.Request.Context(), id, variant)
	if err != nil {
		writeCatalogError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPriceResponse(id, variant, *info))
}

func variantQuery(c *gin.Context) (domain.Variant, bool) {
	variant, err := domain.ParseVariant(c.Query("variant"))
	if err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return variant, true
}

func writeCatalogError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(c, http.StatusNotFound, "product not found")
	case errors.Is(err, domain.ErrPriceNotConfigured):
		writeError(c, http.StatusUnprocessableEntity, "price not configured")
	default:
		_ = c.Error(err)
		writeError(c, http.StatusInternalServerError, "catalog lookup failed")
	}
}
