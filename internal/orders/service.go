package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront/internal/domain/cart"
	"storefront/internal/domain/order"
)

var (
	ErrEmptyCart     = errors.New("cart is empty")
	ErrInvalidStatus = errors.New("invalid order status")
)

const maxIDAttempts = 3

// Store is the order persistence the service needs. *Repo implements it.
type Store interface {
	Create(ctx context.Context, o order.Order) (order.Order, error)
	FindByIdempotencyKey(ctx context.Context, key string) (order.Order, error)
	ByTrackingCode(ctx context.Context, code string) (order.Order, bool, error)
	List(ctx context.Context, f ListFilter) ([]order.Order, error)
	UpdateStatus(ctx context.Context, orderID string, st order.Status) (order.Order, error)
}

// Cart is the view of a shopper's cart that checkout reads and empties.
type Cart interface {
	Items() []cart.LineItem
	Subtract(lines []cart.LineItem)
}

// Notifier tells the shop about a new order. Failures never fail checkout.
type Notifier interface {
	OrderPlaced(ctx context.Context, c order.Confirmation) error
}

type Options struct {
	FreeShippingThreshold decimal.Decimal
	ShippingFee           decimal.Decimal
	Country               string
	// Observe is called once per checkout attempt with "success", "invalid",
	// "empty" or "error".
	Observe func(result string)
}

type Service struct {
	store    Store
	notifier Notifier
	logger   *zap.Logger
	opts     Options
	now      func() time.Time
}

func NewService(store Store, notifier Notifier, logger *zap.Logger, opts Options) *Service {
	if opts.Observe == nil {
		opts.Observe = func(string) {}
	}
	return &Service{store: store, notifier: notifier, logger: logger, opts: opts, now: time.Now}
}

// Price computes shipping and total for a subtotal.
func (s *Service) Price(subtotal decimal.Decimal) order.Pricing {
	shipping := s.opts.ShippingFee
	if subtotal.GreaterThanOrEqual(s.opts.FreeShippingThreshold) {
		shipping = decimal.Zero
	}
	return order.Pricing{Subtotal: subtotal, Shipping: shipping, Total: subtotal.Add(shipping)}
}

// PlaceOrder turns the cart into a cash-on-delivery order. The ordered lines
// leave the cart only after the order and all its items are stored; on any error it is left
// exactly as it was and no confirmation is returned.
//
// A non-empty idempotencyKey that was already used returns the stored order
// instead of writing a new one.
func (s *Service) PlaceOrder(ctx context.Context, c Cart, form ShippingForm, idempotencyKey string) (order.Confirmation, error) {
	if err := form.Validate(); err != nil {
		s.opts.Observe("invalid")
		return order.Confirmation{}, err
	}

	idempotencyKey = strings.TrimSpace(idempotencyKey)
	if idempotencyKey != "" {
		existing, err := s.store.FindByIdempotencyKey(ctx, idempotencyKey)
		switch {
		case err == nil:
			s.logger.Info("checkout replayed", zap.String("order_id", existing.OrderID))
			return Confirm(existing), nil
		case !errors.Is(err, ErrNotFound):
			s.opts.Observe("error")
			s.logger.Error("checkout idempotency lookup", zap.Error(err))
			return order.Confirmation{}, fmt.Errorf("place order: %w", err)
		}
	}

	items := c.Items()
	if len(items) == 0 {
		s.opts.Observe("empty")
		return order.Confirmation{}, ErrEmptyCart
	}

	o := s.draft(items, form)
	o.IdempotencyKey = idempotencyKey

	saved, err := s.create(ctx, o)
	if errors.Is(err, ErrDuplicateRequest) {
		// A concurrent request with the same key won the race.
		if existing, ferr := s.store.FindByIdempotencyKey(ctx, idempotencyKey); ferr == nil {
			return Confirm(existing), nil
		}
	}
	if err != nil {
		s.opts.Observe("error")
		s.logger.Error("checkout failed", zap.Int("items", len(items)), zap.Error(err))
		return order.Confirmation{}, fmt.Errorf("place order: %w", err)
	}

	c.Subtract(items)
	s.opts.Observe("success")

	conf := Confirm(saved)
	conf.Items = items
	s.logger.Info("order placed",
		zap.String("order_id", saved.OrderID),
		zap.String("tracking_code", saved.TrackingCode),
		zap.String("total", saved.Pricing.Total.StringFixed(2)),
	)

	if s.notifier != nil {
		if err := s.notifier.OrderPlaced(ctx, conf); err != nil {
			s.logger.Warn("order notification failed", zap.String("order_id", saved.OrderID), zap.Error(err))
		}
	}
	return conf, nil
}

// create stores o, drawing fresh references when the generated ones collide.
func (s *Service) create(ctx context.Context, o order.Order) (order.Order, error) {
	var err error
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		now := s.now()
		o.OrderID = NewOrderID(now)
		o.TrackingCode = NewTrackingCode(now)

		var saved order.Order
		saved, err = s.store.Create(ctx, o)
		if !errors.Is(err, ErrDuplicateID) {
			return saved, err
		}
		s.logger.Warn("order reference collision, retrying", zap.Int("attempt", attempt+1))
	}
	return order.Order{}, err
}

func (s *Service) draft(items []cart.LineItem, form ShippingForm) order.Order {
	subtotal := decimal.Zero
	lines := make([]order.Item, 0, len(items))
	for _, it := range items {
		subtotal = subtotal.Add(it.Subtotal())

		var productID *string
		if _, err := uuid.Parse(it.ID); err == nil {
			id := it.ID
			productID = &id
		}
		lines = append(lines, order.Item{
			ProductID:    productID,
			ProductName:  it.Name,
			ProductPrice: it.Price,
			ProductImage: it.Image,
			Quantity:     it.Quantity,
		})
	}

	return order.Order{
		Customer:      form.Customer(),
		Shipping:      form.ShippingAddress(s.opts.Country),
		Pricing:       s.Price(subtotal),
		PaymentMethod: order.PaymentCOD,
		Status:        order.StatusPending,
		Notes:         strings.TrimSpace(form.Notes),
		Items:         lines,
	}
}

// Confirm builds the shopper-facing confirmation of a stored order.
func Confirm(o order.Order) order.Confirmation {
	items := make([]cart.LineItem, 0, len(o.Items))
	for _, it := range o.Items {
		id := ""
		if it.ProductID != nil {
			id = *it.ProductID
		}
		items = append(items, cart.LineItem{
			Item:     cart.Item{ID: id, Name: it.ProductName, Price: it.ProductPrice, Image: it.ProductImage},
			Quantity: it.Quantity,
		})
	}
	return order.Confirmation{
		OrderID:         o.OrderID,
		TrackingCode:    o.TrackingCode,
		Customer:        o.Customer,
		ShippingAddress: o.Shipping,
		Items:           items,
		Pricing:         o.Pricing,
		PaymentMethod:   order.PaymentCODLabel,
		Status:          o.Status,
		CreatedAt:       o.CreatedAt,
		Notes:           o.Notes,
	}
}

// Track returns the public view of the order behind a tracking code.
func (s *Service) Track(ctx context.Context, code string) (order.Tracking, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return order.Tracking{}, ErrNotFound
	}
	o, reviewed, err := s.store.ByTrackingCode(ctx, code)
	if err != nil {
		return order.Tracking{}, err
	}
	return order.Tracking{
		OrderID:      o.OrderID,
		TrackingCode: o.TrackingCode,
		Status:       o.Status,
		Customer:     o.Customer,
		Items:        o.Items,
		Total:        o.Pricing.Total,
		CreatedAt:    o.CreatedAt,
		History:      History(o.Status, o.CreatedAt),
		Reviewed:     reviewed,
	}, nil
}

// History derives the public timeline from the current status. Only the
// placement time is real; later steps use fixed offsets from it.
func History(st order.Status, placed time.Time) []order.TrackingEvent {
	h := []order.TrackingEvent{{Status: "Order Placed", Date: placed, Description: "Your order has been received."}}

	switch st {
	case order.StatusConfirmed, order.StatusProcessing, order.StatusShipped, order.StatusDelivered:
		h = append(h, order.TrackingEvent{Status: "Order Confirmed", Date: placed.Add(time.Hour), Description: "Your order is being prepared."})
	}
	switch st {
	case order.StatusShipped, order.StatusDelivered:
		h = append(h, order.TrackingEvent{Status: "Shipped", Date: placed.Add(24 * time.Hour), Description: "Your order is on its way."})
	}
	if st == order.StatusDelivered {
		h = append(h, order.TrackingEvent{Status: "Delivered", Date: placed.Add(72 * time.Hour), Description: "Your order has been delivered."})
	}
	return h
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]order.Order, error) {
	return s.store.List(ctx, f)
}

func (s *Service) UpdateStatus(ctx context.Context, orderID, status string) (order.Order, error) {
	st, ok := order.ParseStatus(strings.ToLower(strings.TrimSpace(status)))
	if !ok {
		return order.Order{}, ErrInvalidStatus
	}
	o, err := s.store.UpdateStatus(ctx, orderID, st)
	if err != nil {
		return order.Order{}, err
	}
	s.logger.Info("order status changed", zap.String("order_id", orderID), zap.String("status", string(st)))
	return o, nil
}
