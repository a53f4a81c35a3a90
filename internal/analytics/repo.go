package analytics

import (
	"context"
	"fmt"

	"storefront/internal/db"
)

type Visit struct {
	VisitorID string
	PageURL   string
	Referrer  string
	UserAgent string
	IPAddress string
	City      string
	Country   string
}

type Repo struct {
	db db.Querier
}

func NewRepo(db db.Querier) *Repo {
	return &Repo{db: db}
}

func (r *Repo) RecordVisit(ctx context.Context, v Visit) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO website_analytics (visitor_id, page_url, referrer, user_agent, ip_address, city, country)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, v.VisitorID, v.PageURL, v.Referrer, v.UserAgent, v.IPAddress, v.City, v.Country)
	if err != nil {
		return fmt.Errorf("record visit: %w", err)
	}
	return nil
}

func (r *Repo) Orders(ctx context.Context) ([]OrderRow, error) {
	rows, err := r.db.Query(ctx, `
		SELECT total, status, shipping_city, shipping_country, created_at
		FROM orders
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}
	defer rows.Close()

	out := []OrderRow{}
	for rows.Next() {
		var o OrderRow
		if err := rows.Scan(&o.Total, &o.Status, &o.City, &o.Country, &o.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *Repo) Items(ctx context.Context) ([]ItemRow, error) {
	rows, err := r.db.Query(ctx, `SELECT product_name, product_price, quantity FROM order_items`)
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	out := []ItemRow{}
	for rows.Next() {
		var it ItemRow
		if err := rows.Scan(&it.ProductName, &it.Price, &it.Quantity); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// Referrers counts recorded visits per raw referrer.
func (r *Repo) Referrers(ctx context.Context) ([]ReferrerCount, error) {
	rows, err := r.db.Query(ctx, `
		SELECT referrer, COUNT(*)
		FROM website_analytics
		GROUP BY referrer
	`)
	if err != nil {
		return nil, fmt.Errorf("load referrers: %w", err)
	}
	defer rows.Close()

	out := []ReferrerCount{}
	for rows.Next() {
		var rc ReferrerCount
		if err := rows.Scan(&rc.Referrer, &rc.Visits); err != nil {
			return nil, err
		}
		out = append(out, rc)
	}
	return out, rows.Err()
}

func (r *Repo) ProductCounts(ctx context.Context) (total, inStock int, err error) {
	err = r.db.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE in_stock)
		FROM products
	`).Scan(&total, &inStock)
	if err != nil {
		return 0, 0, fmt.Errorf("count products: %w", err)
	}
	return total, inStock, nil
}
