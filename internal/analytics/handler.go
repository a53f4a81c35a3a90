package analytics

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Store interface {
	RecordVisit(ctx context.Context, v Visit) error
	Orders(ctx context.Context) ([]OrderRow, error)
	Items(ctx context.Context) ([]ItemRow, error)
	Referrers(ctx context.Context) ([]ReferrerCount, error)
	ProductCounts(ctx context.Context) (total, inStock int, err error)
}

type Handler struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

func NewHandler(store Store, logger *zap.Logger) *Handler {
	return &Handler{store: store, logger: logger, now: time.Now}
}

type VisitReq struct {
	VisitorID string `json:"visitor_id"`
	PageURL   string `json:"page_url" binding:"required"`
	Referrer  string `json:"referrer"`
	City      string `json:"city"`
	Country   string `json:"country"`
}

// RecordVisit is called by the storefront on every page view. Address and
// user agent come from the request, never from the body.
func (h *Handler) RecordVisit(c *gin.Context) {
	var req VisitReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	v := Visit{
		VisitorID: strings.TrimSpace(req.VisitorID),
		PageURL:   req.PageURL,
		Referrer:  strings.TrimSpace(req.Referrer),
		UserAgent: c.Request.UserAgent(),
		IPAddress: c.ClientIP(),
		City:      strings.TrimSpace(req.City),
		Country:   strings.TrimSpace(req.Country),
	}
	if err := h.store.RecordVisit(c.Request.Context(), v); err != nil {
		h.logger.Warn("record visit", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record visit"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) AdminStats(c *gin.Context) {
	ctx := c.Request.Context()
	orders, err := h.store.Orders(ctx)
	if err != nil {
		h.fail(c, "stats", err)
		return
	}
	total, inStock, err := h.store.ProductCounts(ctx)
	if err != nil {
		h.fail(c, "stats", err)
		return
	}
	c.JSON(http.StatusOK, ComputeStats(orders, total, inStock, h.now()))
}

func (h *Handler) AdminAnalytics(c *gin.Context) {
	ctx := c.Request.Context()
	orders, err := h.store.Orders(ctx)
	if err != nil {
		h.fail(c, "analytics", err)
		return
	}
	items, err := h.store.Items(ctx)
	if err != nil {
		h.fail(c, "analytics", err)
		return
	}
	refs, err := h.store.Referrers(ctx)
	if err != nil {
		h.fail(c, "analytics", err)
		return
	}
	c.JSON(http.StatusOK, Summarize(orders, items, refs))
}

func (h *Handler) fail(c *gin.Context, what string, err error) {
	h.logger.Error("load "+what, zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load " + what})
}
