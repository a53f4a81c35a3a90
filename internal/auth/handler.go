package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/domain/user"
)

type UserStore interface {
	ByEmail(ctx context.Context, email string) (user.User, error)
	ByID(ctx context.Context, id int64) (user.User, error)
}

type TokenStore interface {
	Store(ctx context.Context, userID int64, tokenHash string, expiresAt time.Time) error
	Rotate(ctx context.Context, userID int64, oldHash, newHash string, expiresAt time.Time) error
	Revoke(ctx context.Context, userID int64, tokenHash string) error
}

type Handler struct {
	users  UserStore
	tokens TokenStore
	jwt    *JWTManager
	logger *zap.Logger
}

func NewHandler(users UserStore, tokens TokenStore, jwt *JWTManager, logger *zap.Logger) *Handler {
	return &Handler{users: users, tokens: tokens, jwt: jwt, logger: logger}
}

type loginReq struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type tokenPair struct {
	AccessToken  string    `json:"access_token"`
	AccessExp    time.Time `json:"access_exp"`
	RefreshToken string    `json:"refresh_token"`
	RefreshExp   time.Time `json:"refresh_exp"`
}

func (h *Handler) issue(u user.User) (tokenPair, error) {
	var p tokenPair
	var err error
	if p.AccessToken, p.AccessExp, err = h.jwt.SignAccess(u.ID, u.Role); err != nil {
		return tokenPair{}, err
	}
	if p.RefreshToken, p.RefreshExp, err = h.jwt.SignRefresh(u.ID, u.Role); err != nil {
		return tokenPair{}, err
	}
	return p, nil
}

func (h *Handler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	email := strings.TrimSpace(strings.ToLower(req.Email))

	u, err := h.users.ByEmail(c.Request.Context(), email)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		h.logger.Error("login lookup", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}
	if err != nil || !u.IsActive || !CheckPassword(u.PasswordHash, req.Password) {
		h.logger.Info("login rejected", zap.String("email", email))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	pair, err := h.issue(u)
	if err == nil {
		err = h.tokens.Store(c.Request.Context(), u.ID, HashToken(pair.RefreshToken), pair.RefreshExp)
	}
	if err != nil {
		h.logger.Error("login issue tokens", zap.Int64("user_id", u.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":          u,
		"access_token":  pair.AccessToken,
		"access_exp":    pair.AccessExp,
		"refresh_token": pair.RefreshToken,
		"refresh_exp":   pair.RefreshExp,
	})
}

// Refresh rotates the refresh token: the presented one is revoked and a new
// pair is returned.
func (h *Handler) Refresh(c *gin.Context) {
	var req refreshReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	claims, err := h.jwt.ParseRefresh(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}

	u, err := h.users.ByID(c.Request.Context(), claims.UserID)
	if err != nil || !u.IsActive {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}

	pair, err := h.issue(u)
	if err != nil {
		h.logger.Error("refresh sign", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "refresh failed"})
		return
	}
	err = h.tokens.Rotate(c.Request.Context(), u.ID, HashToken(req.RefreshToken), HashToken(pair.RefreshToken), pair.RefreshExp)
	switch {
	case errors.Is(err, ErrTokenRevoked):
		c.JSON(http.StatusUnauthorized, gin.H{"error": ErrTokenRevoked.Error()})
	case err != nil:
		h.logger.Error("refresh rotate", zap.Int64("user_id", u.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "refresh failed"})
	default:
		c.JSON(http.StatusOK, pair)
	}
}

func (h *Handler) Logout(c *gin.Context) {
	var req refreshReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if claims, err := h.jwt.ParseRefresh(req.RefreshToken); err == nil {
		if err := h.tokens.Revoke(c.Request.Context(), claims.UserID, HashToken(req.RefreshToken)); err != nil {
			h.logger.Warn("logout revoke", zap.Int64("user_id", claims.UserID), zap.Error(err))
		}
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) Me(c *gin.Context) {
	u, err := h.users.ByID(c.Request.Context(), UserID(c))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, u)
}
