package products

import (
	"strconv"
	"strings"

	"storefront/internal/domain/product"
)

const (
	DefaultLimit = 12
	MaxLimit     = 100
)

// SearchQuery is a listing query ready to run: Count takes CountArgs, List
// takes Args (the count args followed by limit and offset).
type SearchQuery struct {
	List      string
	Count     string
	Args      []any
	CountArgs []any
}

const selectProduct = `
	SELECT
	  p.id, p.category_id, COALESCE(c.name, ''), COALESCE(c.slug, ''),
	  p.name, p.description, p.price, p.image, p.images, p.in_stock,
	  p.discount_percentage, p.rating, p.num_reviews, p.badge_text, p.badge_color,
	  p.created_at, p.updated_at
	FROM products p
	LEFT JOIN categories c ON c.id = p.category_id
`

// ClampPage normalises paging input: negative offsets become 0 and the limit
// falls back to DefaultLimit and never exceeds MaxLimit.
func ClampPage(offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return offset, limit
}

// BuildSearch turns a filter into SQL. It has no side effects; inverted price
// bounds simply yield a predicate no row satisfies.
func BuildSearch(f product.Filter, offset, limit int) SearchQuery {
	offset, limit = ClampPage(offset, limit)

	var where []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if s := strings.TrimSpace(f.Search); s != "" {
		where = append(where, "p.name ILIKE "+arg("%"+escapeLike(s)+"%"))
	}
	if f.HasCategory() {
		where = append(where, "c.slug = "+arg(strings.TrimSpace(f.Category)))
	}
	if f.MinPrice != nil {
		where = append(where, "p.price >= "+arg(f.MinPrice.String()))
	}
	if f.MaxPrice != nil {
		where = append(where, "p.price <= "+arg(f.MaxPrice.String()))
	}

	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	countArgs := append([]any(nil), args...)
	count := "SELECT COUNT(*) FROM products p LEFT JOIN categories c ON c.id = p.category_id" + cond

	list := selectProduct + cond + " ORDER BY " + orderBy(f.Sort)
	list += " LIMIT " + arg(limit) + " OFFSET " + arg(offset)

	return SearchQuery{List: list, Count: count, Args: args, CountArgs: countArgs}
}

func orderBy(s product.Sort) string {
	switch product.ParseSort(string(s)) {
	case product.SortPriceAsc:
		return "p.price ASC, p.created_at DESC, p.id ASC"
	case product.SortPriceDesc:
		return "p.price DESC, p.created_at DESC, p.id ASC"
	case product.SortNameAsc:
		return "p.name ASC, p.created_at DESC, p.id ASC"
	default:
		return "p.created_at DESC, p.id ASC"
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
