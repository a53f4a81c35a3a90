package seo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"storefront/internal/db"
	"storefront/internal/domain/seo"
)

var ErrNotFound = errors.New("seo metadata not found")

// ErrUnknownProduct is returned when upserting metadata for a missing product.
var ErrUnknownProduct = errors.New("product not found")

const productFK = "product_seo_product_id_fkey"

type Repo struct {
	db db.DB
}

func NewRepo(db db.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Get(ctx context.Context, productID, lang string) (seo.Metadata, error) {
	if _, err := uuid.Parse(productID); err != nil {
		return seo.Metadata{}, ErrNotFound
	}
	m := seo.Metadata{ProductID: productID, Lang: lang}
	err := r.db.QueryRow(ctx, `
		SELECT seo_title, meta_description, keywords, slug, alt_text, structured_data, updated_at
		FROM product_seo
		WHERE product_id = $1 AND lang = $2
	`, productID, lang).Scan(&m.SEOTitle, &m.MetaDescription, &m.Keywords, &m.Slug, &m.AltText, &m.StructuredData, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return seo.Metadata{}, ErrNotFound
	}
	if err != nil {
		return seo.Metadata{}, fmt.Errorf("get seo: %w", err)
	}
	return m, nil
}

// Upsert creates or replaces the metadata for (m.ProductID, m.Lang).
func (r *Repo) Upsert(ctx context.Context, m seo.Metadata) (seo.Metadata, error) {
	if _, err := uuid.Parse(m.ProductID); err != nil {
		return seo.Metadata{}, ErrUnknownProduct
	}
	if m.Keywords == nil {
		m.Keywords = []string{}
	}
	if len(m.StructuredData) == 0 {
		m.StructuredData = json.RawMessage(`{}`)
	}

	err := r.db.QueryRow(ctx, `
		INSERT INTO product_seo (product_id, lang, seo_title, meta_description, keywords, slug, alt_text, structured_data)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (product_id, lang) DO UPDATE SET
		  seo_title = EXCLUDED.seo_title,
		  meta_description = EXCLUDED.meta_description,
		  keywords = EXCLUDED.keywords,
		  slug = EXCLUDED.slug,
		  alt_text = EXCLUDED.alt_text,
		  structured_data = EXCLUDED.structured_data,
		  updated_at = now()
		RETURNING updated_at
	`, m.ProductID, m.Lang, m.SEOTitle, m.MetaDescription, m.Keywords, m.Slug, m.AltText, []byte(m.StructuredData)).
		Scan(&m.UpdatedAt)
	if db.IsForeignKeyViolation(err, productFK) {
		return seo.Metadata{}, ErrUnknownProduct
	}
	if err != nil {
		return seo.Metadata{}, fmt.Errorf("upsert seo: %w", err)
	}
	return m, nil
}

func (r *Repo) Delete(ctx context.Context, productID, lang string) error {
	if _, err := uuid.Parse(productID); err != nil {
		return ErrNotFound
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM product_seo WHERE product_id = $1 AND lang = $2`, productID, lang)
	if err != nil {
		return fmt.Errorf("delete seo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
