package reviews

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"storefront/internal/db"
	"storefront/internal/domain/review"
)

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrNotDelivered    = errors.New("order has not been delivered")
	ErrAlreadyReviewed = errors.New("order already reviewed")
	ErrNoProduct       = errors.New("order has no reviewable product")
)

const onePerOrderConstraint = "reviews_order_id_key"

type Repo struct {
	db db.DB
}

func NewRepo(db db.DB) *Repo {
	return &Repo{db: db}
}

// NextRating folds one new rating into an average over n reviews, rounded to
// one decimal place.
func NextRating(current decimal.Decimal, n, rating int) decimal.Decimal {
	total := current.Mul(decimal.NewFromInt(int64(n))).Add(decimal.NewFromInt(int64(rating)))
	return total.Div(decimal.NewFromInt(int64(n + 1))).Round(1)
}

// Submit reviews the first product of the delivered order behind trackingCode.
// The review insert and the product rating update commit together.
func (r *Repo) Submit(ctx context.Context, trackingCode string, rating int, comment string) (review.Review, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return review.Review{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var (
		rv        review.Review
		status    string
		productID *string
	)
	err = tx.QueryRow(ctx, `
		SELECT o.id, o.status, trim(o.customer_first_name || ' ' || o.customer_last_name),
		  (SELECT oi.product_id FROM order_items oi
		   WHERE oi.order_id = o.id AND oi.product_id IS NOT NULL
		   ORDER BY oi.created_at, oi.id LIMIT 1)
		FROM orders o
		WHERE upper(o.tracking_code) = upper($1)
		FOR UPDATE
	`, strings.TrimSpace(trackingCode)).Scan(&rv.OrderID, &status, &rv.CustomerName, &productID)
	if errors.Is(err, pgx.ErrNoRows) {
		return review.Review{}, ErrOrderNotFound
	}
	if err != nil {
		return review.Review{}, fmt.Errorf("load order for review: %w", err)
	}
	if status != "delivered" {
		return review.Review{}, ErrNotDelivered
	}
	if productID == nil {
		return review.Review{}, ErrNoProduct
	}
	rv.ProductID = *productID
	rv.Rating = rating
	rv.Comment = strings.TrimSpace(comment)

	err = tx.QueryRow(ctx, `
		INSERT INTO reviews (product_id, order_id, rating, comment, customer_name)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id, created_at
	`, rv.ProductID, rv.OrderID, rv.Rating, rv.Comment, rv.CustomerName).Scan(&rv.ID, &rv.CreatedAt)
	if db.IsUniqueViolation(err, onePerOrderConstraint) {
		return review.Review{}, ErrAlreadyReviewed
	}
	if err != nil {
		return review.Review{}, fmt.Errorf("insert review: %w", err)
	}

	var current decimal.Decimal
	var n int
	err = tx.QueryRow(ctx, `SELECT rating, num_reviews FROM products WHERE id = $1 FOR UPDATE`, rv.ProductID).
		Scan(&current, &n)
	if err != nil {
		return review.Review{}, fmt.Errorf("load product rating: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE products SET rating = $2, num_reviews = $3, updated_at = now() WHERE id = $1
	`, rv.ProductID, NextRating(current, n, rating).String(), n+1)
	if err != nil {
		return review.Review{}, fmt.Errorf("update product rating: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return review.Review{}, err
	}
	return rv, nil
}
