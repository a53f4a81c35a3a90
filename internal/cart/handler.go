package cart

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront/internal/domain/cart"
	"storefront/internal/domain/product"
	"storefront/internal/products"
)

// SessionHeader carries the cart session id in both directions.
const SessionHeader = "X-Cart-Session"

const ctxCartKey = "cart"

// Catalog resolves product ids to current catalogue entries.
type Catalog interface {
	Get(ctx context.Context, id string) (product.Product, error)
}

// SessionMiddleware attaches the caller's cart to the request, creating one
// when the header is missing or unknown, and echoes the session id back.
func SessionMiddleware(s *Sessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, crt := s.Get(c.GetHeader(SessionHeader))
		c.Header(SessionHeader, id)
		c.Set(ctxCartKey, crt)
		c.Next()
	}
}

// LookupMiddleware attaches the caller's cart only when the session already
// exists. Routes that never add to a cart use it so anonymous reads do not
// create sessions.
func LookupMiddleware(s *Sessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(SessionHeader)
		if crt, ok := s.Lookup(id); ok {
			c.Header(SessionHeader, id)
			c.Set(ctxCartKey, crt)
		}
		c.Next()
	}
}

// FromContext returns the cart placed by SessionMiddleware or
// LookupMiddleware, or nil when the request has none.
func FromContext(c *gin.Context) *Cart {
	v, _ := c.Get(ctxCartKey)
	crt, _ := v.(*Cart)
	return crt
}

type Handler struct {
	catalog Catalog
	logger  *zap.Logger
}

func NewHandler(catalog Catalog, logger *zap.Logger) *Handler {
	return &Handler{catalog: catalog, logger: logger}
}

func summaryOf(crt *Cart) cart.Summary {
	if crt == nil {
		return cart.Summary{Items: []cart.LineItem{}, Total: decimal.Zero, Empty: true}
	}
	return crt.Summary()
}

func (h *Handler) GetCart(c *gin.Context) {
	c.JSON(http.StatusOK, summaryOf(FromContext(c)))
}

// Count feeds the header badge.
func (h *Handler) Count(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"total_items": summaryOf(FromContext(c)).TotalItems})
}

type AddItemReq struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity"`
}

func (h *Handler) AddItem(c *gin.Context) {
	var req AddItemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	p, err := h.catalog.Get(c.Request.Context(), req.ProductID)
	if errors.Is(err, products.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	if err != nil {
		h.logger.Error("cart product lookup", zap.String("product_id", req.ProductID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add item"})
		return
	}
	if !p.InStock {
		c.JSON(http.StatusConflict, gin.H{"error": "product is out of stock"})
		return
	}

	crt := FromContext(c)
	crt.AddItem(cart.Item{ID: p.ID, Name: p.Name, Price: p.Price, Image: p.DisplayImage()}, req.Quantity)
	c.JSON(http.StatusOK, crt.Summary())
}

type UpdateQtyReq struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// UpdateQty sets a line's quantity; zero or less removes the line.
func (h *Handler) UpdateQty(c *gin.Context) {
	var req UpdateQtyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	crt := FromContext(c)
	if crt != nil {
		crt.UpdateQuantity(c.Param("id"), *req.Quantity)
	}
	c.JSON(http.StatusOK, summaryOf(crt))
}

func (h *Handler) RemoveItem(c *gin.Context) {
	crt := FromContext(c)
	if crt != nil {
		crt.RemoveItem(c.Param("id"))
	}
	c.JSON(http.StatusOK, summaryOf(crt))
}

func (h *Handler) Clear(c *gin.Context) {
	crt := FromContext(c)
	if crt != nil {
		crt.Clear()
	}
	c.JSON(http.StatusOK, summaryOf(crt))
}
