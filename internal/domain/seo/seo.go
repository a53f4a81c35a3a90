package seo

import (
	"encoding/json"
	"time"
)

// Metadata is the per-language search metadata of a product.
type Metadata struct {
	ProductID       string          `json:"product_id"`
	Lang            string          `json:"lang"`
	SEOTitle        string          `json:"seo_title"`
	MetaDescription string          `json:"meta_description"`
	Keywords        []string        `json:"keywords"`
	Slug            string          `json:"slug"`
	AltText         string          `json:"alt_text"`
	StructuredData  json.RawMessage `json:"structured_data"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// DefaultLang is served when a request names no language.
const DefaultLang = "en"

var languages = map[string]bool{"en": true, "fr": true, "ar": true, "es": true, "it": true}

// Supported reports whether metadata can be stored for lang.
func Supported(lang string) bool {
	return languages[lang]
}
