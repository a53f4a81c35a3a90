package product

import (
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

type Sort string

const (
	SortNewest    Sort = "newest"
	SortPriceAsc  Sort = "price_asc"
	SortPriceDesc Sort = "price_desc"
	SortNameAsc   Sort = "name_asc"
)

// ParseSort maps a query value to a sort key; anything unknown is newest-first.
func ParseSort(s string) Sort {
	switch Sort(strings.ToLower(strings.TrimSpace(s))) {
	case SortPriceAsc:
		return SortPriceAsc
	case SortPriceDesc:
		return SortPriceDesc
	case SortNameAsc:
		return SortNameAsc
	default:
		return SortNewest
	}
}

// Filter is the browse state of the catalogue. Nil price bounds mean "no bound".
type Filter struct {
	Search   string           `json:"search,omitempty"`
	Category string           `json:"category,omitempty"`
	MinPrice *decimal.Decimal `json:"min_price,omitempty"`
	MaxPrice *decimal.Decimal `json:"max_price,omitempty"`
	Sort     Sort             `json:"sort,omitempty"`
}

// HasCategory reports whether a category restriction applies; "all" means none.
func (f Filter) HasCategory() bool {
	c := strings.TrimSpace(f.Category)
	return c != "" && !strings.EqualFold(c, "all")
}

// ParseFilter reads a filter from query parameters. Unparseable price bounds
// are dropped rather than rejected.
func ParseFilter(v url.Values) Filter {
	return Filter{
		Search:   strings.TrimSpace(v.Get("q")),
		Category: strings.TrimSpace(v.Get("category")),
		MinPrice: ParsePriceBound(v.Get("min_price")),
		MaxPrice: ParsePriceBound(v.Get("max_price")),
		Sort:     ParseSort(v.Get("sort")),
	}
}

// Values is the inverse of ParseFilter.
func (f Filter) Values() url.Values {
	v := url.Values{}
	if f.Search != "" {
		v.Set("q", f.Search)
	}
	if f.HasCategory() {
		v.Set("category", f.Category)
	}
	if f.MinPrice != nil {
		v.Set("min_price", f.MinPrice.String())
	}
	if f.MaxPrice != nil {
		v.Set("max_price", f.MaxPrice.String())
	}
	if s := ParseSort(string(f.Sort)); s != SortNewest {
		v.Set("sort", string(s))
	}
	return v
}

func ParsePriceBound(s string) *decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return &d
}
