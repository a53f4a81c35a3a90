package reviews

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/domain/review"
)

type Submitter interface {
	Submit(ctx context.Context, trackingCode string, rating int, comment string) (review.Review, error)
}

type Handler struct {
	repo   Submitter
	logger *zap.Logger
}

func NewHandler(repo Submitter, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

type SubmitReq struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"max=2000"`
}

func (h *Handler) Submit(c *gin.Context) {
	var req SubmitReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "rating must be between 1 and 5"})
		return
	}

	rv, err := h.repo.Submit(c.Request.Context(), c.Param("code"), req.Rating, req.Comment)
	switch {
	case errors.Is(err, ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
	case errors.Is(err, ErrNotDelivered):
		c.JSON(http.StatusConflict, gin.H{"error": "you can review an order once it has been delivered"})
	case errors.Is(err, ErrAlreadyReviewed):
		c.JSON(http.StatusConflict, gin.H{"error": "this order has already been reviewed"})
	case errors.Is(err, ErrNoProduct):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "this order has no product to review"})
	case err != nil:
		h.logger.Error("submit review", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to submit review"})
	default:
		c.JSON(http.StatusCreated, rv)
	}
}
