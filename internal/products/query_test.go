package products

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"storefront/internal/domain/product"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestBuildSearchNoFilter(t *testing.T) {
	q := BuildSearch(product.Filter{}, 0, 0)

	assert.NotContains(t, q.List, "WHERE")
	assert.Contains(t, q.List, "ORDER BY p.created_at DESC")
	assert.Contains(t, q.List, "LIMIT $1 OFFSET $2")
	assert.Equal(t, []any{DefaultLimit, 0}, q.Args)
	assert.Empty(t, q.CountArgs)
}

func TestBuildSearchAllFilters(t *testing.T) {
	f := product.Filter{
		Search:   "50%_off",
		Category: "skincare",
		MinPrice: dec("10"),
		MaxPrice: dec("99.5"),
		Sort:     product.SortPriceAsc,
	}

	q := BuildSearch(f, 24, 12)

	assert.Contains(t, q.List, "p.name ILIKE $1 AND c.slug = $2 AND p.price >= $3 AND p.price <= $4")
	assert.Contains(t, q.List, "ORDER BY p.price ASC")
	assert.Contains(t, q.List, "LIMIT $5 OFFSET $6")
	assert.Equal(t, []any{`%50\%\_off%`, "skincare", "10", "99.5"}, q.CountArgs)
	assert.Equal(t, []any{`%50\%\_off%`, "skincare", "10", "99.5", 12, 24}, q.Args)
	assert.True(t, strings.HasSuffix(q.Count, "AND p.price <= $4"))
}

func TestBuildSearchInvertedBoundsStillBuilds(t *testing.T) {
	q := BuildSearch(product.Filter{MinPrice: dec("100"), MaxPrice: dec("50")}, 0, 12)

	assert.Contains(t, q.List, "p.price >= $1 AND p.price <= $2")
	assert.Equal(t, []any{"100", "50"}, q.CountArgs)
}

func TestBuildSearchAllCategoryIgnored(t *testing.T) {
	q := BuildSearch(product.Filter{Category: "all"}, 0, 12)
	assert.NotContains(t, q.List, "c.slug")
}

func TestSortOrders(t *testing.T) {
	cases := map[product.Sort]string{
		product.SortNewest:    "p.created_at DESC",
		product.SortPriceAsc:  "p.price ASC",
		product.SortPriceDesc: "p.price DESC",
		product.SortNameAsc:   "p.name ASC",
		"bogus":               "p.created_at DESC",
	}
	for sort, want := range cases {
		q := BuildSearch(product.Filter{Sort: sort}, 0, 12)
		assert.Contains(t, q.List, "ORDER BY "+want, "sort %q", sort)
		assert.Contains(t, q.List, "p.id ASC", "sort %q needs a unique tiebreak for paging", sort)
	}
}

func TestClampPage(t *testing.T) {
	o, l := ClampPage(-5, 0)
	assert.Equal(t, 0, o)
	assert.Equal(t, DefaultLimit, l)

	_, l = ClampPage(0, 1000)
	assert.Equal(t, MaxLimit, l)
}
