package product

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID                 string          `json:"id"`
	CategoryID         *string         `json:"category_id,omitempty"`
	Category           string          `json:"category,omitempty"`
	CategorySlug       string          `json:"category_slug,omitempty"`
	Name               string          `json:"name"`
	Description        string          `json:"description,omitempty"`
	Price              decimal.Decimal `json:"price"`
	Image              string          `json:"image,omitempty"`
	Images             []string        `json:"images,omitempty"`
	InStock            bool            `json:"in_stock"`
	DiscountPercentage int             `json:"discount_percentage"`
	Rating             decimal.Decimal `json:"rating"`
	NumReviews         int             `json:"num_reviews"`
	BadgeText          string          `json:"badge_text,omitempty"`
	BadgeColor         string          `json:"badge_color,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// DisplayImage is the picture shown on cards and cart lines: the first gallery
// image when present, otherwise the main image.
func (p Product) DisplayImage() string {
	if len(p.Images) > 0 && p.Images[0] != "" {
		return p.Images[0]
	}
	return p.Image
}

// Page is one slice of a filtered listing plus the size of the whole result.
type Page struct {
	Items  []Product `json:"items"`
	Total  int       `json:"total"`
	Offset int       `json:"offset"`
	Limit  int       `json:"limit"`
}
