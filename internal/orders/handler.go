package orders

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/cart"
	"storefront/internal/domain/order"
)

// IdempotencyHeader lets a client retry checkout without creating a second order.
const IdempotencyHeader = "Idempotency-Key"

type Handler struct {
	svc     *Service
	logger  *zap.Logger
	timeout time.Duration
}

func NewHandler(svc *Service, logger *zap.Logger, timeout time.Duration) *Handler {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Handler{svc: svc, logger: logger, timeout: timeout}
}

// Checkout places an order from the session cart.
func (h *Handler) Checkout(c *gin.Context) {
	var form ShippingForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	crt := cart.FromContext(c)
	if crt == nil {
		// No session yet: an idempotent replay can still succeed, anything
		// else ends as an empty cart.
		crt = cart.New()
	}
	key := strings.TrimSpace(c.GetHeader(IdempotencyHeader))
	conf, err := h.svc.PlaceOrder(ctx, crt, form, key)

	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "please check the highlighted fields", "fields": verr.Fields})
	case errors.Is(err, ErrEmptyCart):
		c.JSON(http.StatusConflict, gin.H{"error": "your cart is empty"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to place order, please try again"})
	default:
		c.JSON(http.StatusCreated, conf)
	}
}

func (h *Handler) Track(c *gin.Context) {
	t, err := h.svc.Track(c.Request.Context(), c.Param("code"))
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no order found for this tracking code"})
		return
	}
	if err != nil {
		h.logger.Error("track order", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load order"})
		return
	}
	c.JSON(http.StatusOK, t)
}

// AdminList: ?status=&limit=&offset=
func (h *Handler) AdminList(c *gin.Context) {
	var f ListFilter
	if v := c.Query("status"); v != "" && v != "all" {
		st, ok := order.ParseStatus(v)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}
		f.Status = &st
	}
	f.Limit, _ = strconv.Atoi(c.Query("limit"))
	f.Offset, _ = strconv.Atoi(c.Query("offset"))

	items, err := h.svc.List(c.Request.Context(), f)
	if err != nil {
		h.logger.Error("list orders", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list orders"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

type UpdateStatusReq struct {
	Status string `json:"status" binding:"required"`
}

func (h *Handler) AdminUpdateStatus(c *gin.Context) {
	var req UpdateStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	o, err := h.svc.UpdateStatus(c.Request.Context(), c.Param("order_id"), req.Status)
	switch {
	case errors.Is(err, ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
	case err != nil:
		h.logger.Error("update order status", zap.String("order_id", c.Param("order_id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update order"})
	default:
		c.JSON(http.StatusOK, o)
	}
}
