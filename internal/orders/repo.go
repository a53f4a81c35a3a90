package orders

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"

	"storefront/internal/db"
	"storefront/internal/domain/order"
	"storefront/internal/events"
	"storefront/internal/outbox"
)

var (
	ErrNotFound = errors.New("order not found")
	// ErrDuplicateID means the generated order id or tracking code was taken.
	ErrDuplicateID = errors.New("order reference already in use")
	// ErrDuplicateRequest means another order already carries the idempotency key.
	ErrDuplicateRequest = errors.New("idempotency key already used")
)

const (
	orderIDConstraint     = "orders_order_id_key"
	trackingConstraint    = "orders_tracking_code_key"
	idempotencyConstraint = "orders_idempotency_key_key"
)

const headerColumns = `
	o.id, o.order_id, o.tracking_code,
	o.customer_first_name, o.customer_last_name, o.customer_email, o.customer_phone,
	o.shipping_address, o.shipping_city, o.shipping_state, o.shipping_zip_code, o.shipping_country,
	o.subtotal, o.shipping_cost, o.total, o.payment_method, o.status, o.notes,
	o.created_at, o.updated_at`

type Repo struct {
	db    db.DB
	topic string
}

// NewRepo returns a repo that records order events for topic in the outbox.
func NewRepo(db db.DB, topic string) *Repo {
	return &Repo{db: db, topic: topic}
}

func headerDest(o *order.Order, status *string) []any {
	return []any{
		&o.ID, &o.OrderID, &o.TrackingCode,
		&o.Customer.FirstName, &o.Customer.LastName, &o.Customer.Email, &o.Customer.Phone,
		&o.Shipping.Address, &o.Shipping.City, &o.Shipping.State, &o.Shipping.ZipCode, &o.Shipping.Country,
		&o.Pricing.Subtotal, &o.Pricing.Shipping, &o.Pricing.Total, &o.PaymentMethod, status, &o.Notes,
		&o.CreatedAt, &o.UpdatedAt,
	}
}

// Create writes the header, then its items, then an order.placed event, all in
// one transaction. Nothing is visible unless every write succeeded.
func (r *Repo) Create(ctx context.Context, o order.Order) (order.Order, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return order.Order{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var idemKey any
	if o.IdempotencyKey != "" {
		idemKey = o.IdempotencyKey
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO orders (
		  order_id, tracking_code,
		  customer_first_name, customer_last_name, customer_email, customer_phone,
		  shipping_address, shipping_city, shipping_state, shipping_zip_code, shipping_country,
		  subtotal, shipping_cost, total, payment_method, status, notes, idempotency_key
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
		RETURNING id, created_at, updated_at
	`, o.OrderID, o.TrackingCode,
		o.Customer.FirstName, o.Customer.LastName, o.Customer.Email, o.Customer.Phone,
		o.Shipping.Address, o.Shipping.City, o.Shipping.State, o.Shipping.ZipCode, o.Shipping.Country,
		o.Pricing.Subtotal.String(), o.Pricing.Shipping.String(), o.Pricing.Total.String(),
		o.PaymentMethod, string(o.Status), o.Notes, idemKey,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	switch {
	case db.IsUniqueViolation(err, orderIDConstraint), db.IsUniqueViolation(err, trackingConstraint):
		return order.Order{}, ErrDuplicateID
	case db.IsUniqueViolation(err, idempotencyConstraint):
		return order.Order{}, ErrDuplicateRequest
	case err != nil:
		return order.Order{}, fmt.Errorf("insert order: %w", err)
	}

	for i := range o.Items {
		it := &o.Items[i]
		it.OrderID = o.ID
		err := tx.QueryRow(ctx, `
			INSERT INTO order_items (order_id, product_id, product_name, product_price, product_image, quantity)
			VALUES ($1,$2,$3,$4,$5,$6)
			RETURNING id
		`, o.ID, it.ProductID, it.ProductName, it.ProductPrice.String(), it.ProductImage, it.Quantity).Scan(&it.ID)
		if err != nil {
			return order.Order{}, fmt.Errorf("insert order item %d: %w", i, err)
		}
	}

	ev := events.New(events.OrderPlaced, o.OrderID, map[string]any{
		"tracking_code": o.TrackingCode,
		"total":         o.Pricing.Total.String(),
		"items":         len(o.Items),
		"city":          o.Shipping.City,
	})
	if err := outbox.Insert(ctx, tx, r.topic, ev); err != nil {
		return order.Order{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return order.Order{}, fmt.Errorf("commit order: %w", err)
	}
	return o, nil
}

func (r *Repo) FindByIdempotencyKey(ctx context.Context, key string) (order.Order, error) {
	var o order.Order
	var status string
	err := r.db.QueryRow(ctx, `SELECT `+headerColumns+` FROM orders o WHERE o.idempotency_key = $1`, key).
		Scan(headerDest(&o, &status)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return order.Order{}, ErrNotFound
	}
	if err != nil {
		return order.Order{}, fmt.Errorf("find order by idempotency key: %w", err)
	}
	o.Status = order.Status(status)
	o.IdempotencyKey = key

	if o.Items, err = r.items(ctx, o.ID); err != nil {
		return order.Order{}, err
	}
	return o, nil
}

// ByTrackingCode looks an order up case-insensitively and reports whether it
// has been reviewed.
func (r *Repo) ByTrackingCode(ctx context.Context, code string) (order.Order, bool, error) {
	var o order.Order
	var status string
	var reviewed bool
	dest := append(headerDest(&o, &status), &reviewed)
	err := r.db.QueryRow(ctx, `
		SELECT `+headerColumns+`,
		  EXISTS (SELECT 1 FROM reviews rv WHERE rv.order_id = o.id)
		FROM orders o
		WHERE upper(o.tracking_code) = upper($1)
	`, code).Scan(dest...)
	if errors.Is(err, pgx.ErrNoRows) {
		return order.Order{}, false, ErrNotFound
	}
	if err != nil {
		return order.Order{}, false, fmt.Errorf("find order by tracking code: %w", err)
	}
	o.Status = order.Status(status)

	if o.Items, err = r.items(ctx, o.ID); err != nil {
		return order.Order{}, false, err
	}
	return o, reviewed, nil
}

type ListFilter struct {
	Status *order.Status
	Limit  int
	Offset int
}

// List returns orders newest first, each with its items.
func (r *Repo) List(ctx context.Context, f ListFilter) ([]order.Order, error) {
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	q := `SELECT ` + headerColumns + ` FROM orders o`
	args := []any{}
	if f.Status != nil {
		args = append(args, string(*f.Status))
		q += ` WHERE o.status = $1`
	}
	args = append(args, f.Limit, f.Offset)
	q += ` ORDER BY o.created_at DESC LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	out := []order.Order{}
	for rows.Next() {
		var o order.Order
		var status string
		if err := rows.Scan(headerDest(&o, &status)...); err != nil {
			return nil, err
		}
		o.Status = order.Status(status)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		if out[i].Items, err = r.items(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// UpdateStatus sets the status of the order with the given human order id and
// records an order.status_changed event in the same transaction.
func (r *Repo) UpdateStatus(ctx context.Context, orderID string, st order.Status) (order.Order, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return order.Order{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var o order.Order
	var status string
	err = tx.QueryRow(ctx, `
		UPDATE orders o SET status = $2, updated_at = now()
		WHERE o.order_id = $1
		RETURNING `+headerColumns, orderID, string(st)).Scan(headerDest(&o, &status)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return order.Order{}, ErrNotFound
	}
	if err != nil {
		return order.Order{}, fmt.Errorf("update order status: %w", err)
	}
	o.Status = order.Status(status)

	ev := events.New(events.OrderStatusChanged, o.OrderID, map[string]any{"status": status})
	if err := outbox.Insert(ctx, tx, r.topic, ev); err != nil {
		return order.Order{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return order.Order{}, fmt.Errorf("commit order status: %w", err)
	}
	return o, nil
}

func (r *Repo) items(ctx context.Context, id string) ([]order.Item, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, order_id, product_id, product_name, product_price, product_image, quantity
		FROM order_items
		WHERE order_id = $1
		ORDER BY created_at, id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()

	out := []order.Item{}
	for rows.Next() {
		var it order.Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.ProductPrice, &it.ProductImage, &it.Quantity); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
