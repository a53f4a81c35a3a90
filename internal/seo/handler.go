package seo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/domain/seo"
	"storefront/internal/util"
)

type Store interface {
	Get(ctx context.Context, productID, lang string) (seo.Metadata, error)
	Upsert(ctx context.Context, m seo.Metadata) (seo.Metadata, error)
	Delete(ctx context.Context, productID, lang string) error
}

type Handler struct {
	store  Store
	logger *zap.Logger
}

func NewHandler(store Store, logger *zap.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

func langParam(v string) (string, bool) {
	l := strings.ToLower(strings.TrimSpace(v))
	if l == "" {
		l = seo.DefaultLang
	}
	return l, seo.Supported(l)
}

// Get: /products/:id/seo?lang=fr
func (h *Handler) Get(c *gin.Context) {
	lang, ok := langParam(c.Query("lang"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported language"})
		return
	}
	m, err := h.store.Get(c.Request.Context(), c.Param("id"), lang)
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no seo metadata for this product"})
		return
	}
	if err != nil {
		h.logger.Error("get seo", zap.String("product_id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load seo metadata"})
		return
	}
	c.JSON(http.StatusOK, m)
}

type PutReq struct {
	SEOTitle        string          `json:"seo_title" binding:"max=70"`
	MetaDescription string          `json:"meta_description" binding:"max=160"`
	Keywords        []string        `json:"keywords"`
	Slug            string          `json:"slug"`
	AltText         string          `json:"alt_text"`
	StructuredData  json.RawMessage `json:"structured_data"`
}

func (h *Handler) AdminPut(c *gin.Context) {
	lang, ok := langParam(c.Param("lang"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported language"})
		return
	}
	var req PutReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	sd := bytes.TrimSpace(req.StructuredData)
	if len(sd) > 0 && !bytes.Equal(sd, []byte("null")) && sd[0] != '{' {
		c.JSON(http.StatusBadRequest, gin.H{"error": "structured_data must be a JSON object"})
		return
	}
	if bytes.Equal(sd, []byte("null")) {
		sd = nil
	}

	slug := util.Slugify(req.Slug, "")
	if slug == "" {
		slug = util.Slugify(req.SEOTitle, "")
	}

	m, err := h.store.Upsert(c.Request.Context(), seo.Metadata{
		ProductID:       c.Param("id"),
		Lang:            lang,
		SEOTitle:        strings.TrimSpace(req.SEOTitle),
		MetaDescription: strings.TrimSpace(req.MetaDescription),
		Keywords:        cleanKeywords(req.Keywords),
		Slug:            slug,
		AltText:         strings.TrimSpace(req.AltText),
		StructuredData:  json.RawMessage(sd),
	})
	if errors.Is(err, ErrUnknownProduct) {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	if err != nil {
		h.logger.Error("upsert seo", zap.String("product_id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save seo metadata"})
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *Handler) AdminDelete(c *gin.Context) {
	lang, ok := langParam(c.Param("lang"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported language"})
		return
	}
	err := h.store.Delete(c.Request.Context(), c.Param("id"), lang)
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no seo metadata for this product"})
		return
	}
	if err != nil {
		h.logger.Error("delete seo", zap.String("product_id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete seo metadata"})
		return
	}
	c.Status(http.StatusNoContent)
}

// cleanKeywords trims, drops blanks and removes case-insensitive duplicates.
func cleanKeywords(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]bool{}
	for _, k := range in {
		k = strings.TrimSpace(k)
		key := strings.ToLower(k)
		if k == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, k)
	}
	return out
}
