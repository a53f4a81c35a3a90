package products

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront/internal/domain/product"
)

// Store is the catalogue persistence the handler needs. *Repo implements it.
type Store interface {
	Search(ctx context.Context, f product.Filter, offset, limit int) (product.Page, error)
	Get(ctx context.Context, id string) (product.Product, error)
	Create(ctx context.Context, in CreateInput) (product.Product, error)
	Update(ctx context.Context, id string, p Patch) (product.Product, error)
	Delete(ctx context.Context, id string) error
}

type Handler struct {
	store  Store
	logger *zap.Logger
}

func NewHandler(store Store, logger *zap.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// Public: filtered, sorted, paginated listing.
// ?q=&category=&min_price=&max_price=&sort=&offset=&limit=
func (h *Handler) ListPublic(c *gin.Context) {
	f := product.ParseFilter(c.Request.URL.Query())
	offset, _ := strconv.Atoi(c.Query("offset"))
	limit, _ := strconv.Atoi(c.Query("limit"))

	page, err := h.store.Search(c.Request.Context(), f, offset, limit)
	if err != nil {
		h.logger.Error("search products", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list products"})
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) GetPublic(c *gin.Context) {
	p, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	if err != nil {
		h.logger.Error("get product", zap.String("product_id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load product"})
		return
	}
	c.JSON(http.StatusOK, p)
}

type CreateProductReq struct {
	CategoryID         *string         `json:"category_id"`
	Name               string          `json:"name" binding:"required"`
	Description        string          `json:"description"`
	Price              decimal.Decimal `json:"price"`
	Images             []string        `json:"images"`
	InStock            *bool           `json:"in_stock"`
	DiscountPercentage int             `json:"discount_percentage" binding:"min=0,max=100"`
	BadgeText          string          `json:"badge_text"`
	BadgeColor         string          `json:"badge_color"`
}

func (h *Handler) AdminCreate(c *gin.Context) {
	var req CreateProductReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if !req.Price.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "price must be positive"})
		return
	}
	if !validCategoryID(req.CategoryID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category_id"})
		return
	}

	inStock := true
	if req.InStock != nil {
		inStock = *req.InStock
	}

	p, err := h.store.Create(c.Request.Context(), CreateInput{
		CategoryID:         req.CategoryID,
		Name:               req.Name,
		Description:        req.Description,
		Price:              req.Price,
		Images:             req.Images,
		InStock:            inStock,
		DiscountPercentage: req.DiscountPercentage,
		BadgeText:          req.BadgeText,
		BadgeColor:         req.BadgeColor,
	})
	if err != nil {
		h.logger.Error("create product", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to create product"})
		return
	}
	c.JSON(http.StatusCreated, p)
}

type UpdateProductReq struct {
	CategoryID         *string          `json:"category_id"`
	Name               *string          `json:"name"`
	Description        *string          `json:"description"`
	Price              *decimal.Decimal `json:"price"`
	Images             *[]string        `json:"images"`
	InStock            *bool            `json:"in_stock"`
	DiscountPercentage *int             `json:"discount_percentage" binding:"omitempty,min=0,max=100"`
	BadgeText          *string          `json:"badge_text"`
	BadgeColor         *string          `json:"badge_color"`
}

func (h *Handler) AdminUpdate(c *gin.Context) {
	var req UpdateProductReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if req.Price != nil && !req.Price.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "price must be positive"})
		return
	}
	if req.Name != nil && *req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name cannot be empty"})
		return
	}
	if !validCategoryID(req.CategoryID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category_id"})
		return
	}

	p, err := h.store.Update(c.Request.Context(), c.Param("id"), Patch{
		CategoryID:         req.CategoryID,
		Name:               req.Name,
		Description:        req.Description,
		Price:              req.Price,
		Images:             req.Images,
		InStock:            req.InStock,
		DiscountPercentage: req.DiscountPercentage,
		BadgeText:          req.BadgeText,
		BadgeColor:         req.BadgeColor,
	})
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	if err != nil {
		h.logger.Error("update product", zap.String("product_id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to update product"})
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) AdminDelete(c *gin.Context) {
	err := h.store.Delete(c.Request.Context(), c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	if err != nil {
		h.logger.Error("delete product", zap.String("product_id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete product"})
		return
	}
	c.Status(http.StatusNoContent)
}

func validCategoryID(id *string) bool {
	if id == nil {
		return true
	}
	_, err := uuid.Parse(*id)
	return err == nil
}
