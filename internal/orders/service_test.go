package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	cartstore "storefront/internal/cart"
	"storefront/internal/domain/cart"
	"storefront/internal/domain/order"
)

type fakeStore struct {
	CreateFn       func(ctx context.Context, o order.Order) (order.Order, error)
	FindByKeyFn    func(ctx context.Context, key string) (order.Order, error)
	ByTrackingFn   func(ctx context.Context, code string) (order.Order, bool, error)
	ListFn         func(ctx context.Context, f ListFilter) ([]order.Order, error)
	UpdateStatusFn func(ctx context.Context, orderID string, st order.Status) (order.Order, error)

	created []order.Order
}

func (f *fakeStore) Create(ctx context.Context, o order.Order) (order.Order, error) {
	f.created = append(f.created, o)
	if f.CreateFn != nil {
		return f.CreateFn(ctx, o)
	}
	o.ID = "stored-id"
	o.CreatedAt = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	return o, nil
}

func (f *fakeStore) FindByIdempotencyKey(ctx context.Context, key string) (order.Order, error) {
	if f.FindByKeyFn != nil {
		return f.FindByKeyFn(ctx, key)
	}
	return order.Order{}, ErrNotFound
}

func (f *fakeStore) ByTrackingCode(ctx context.Context, code string) (order.Order, bool, error) {
	return f.ByTrackingFn(ctx, code)
}

func (f *fakeStore) List(ctx context.Context, fl ListFilter) ([]order.Order, error) {
	return f.ListFn(ctx, fl)
}

func (f *fakeStore) UpdateStatus(ctx context.Context, orderID string, st order.Status) (order.Order, error) {
	return f.UpdateStatusFn(ctx, orderID, st)
}

type fakeNotifier struct {
	err  error
	sent []order.Confirmation
}

func (n *fakeNotifier) OrderPlaced(_ context.Context, c order.Confirmation) error {
	n.sent = append(n.sent, c)
	return n.err
}

const rosePID = "5f0c8a1e-1b7e-4a51-9d8e-6f9a4c1b2d3e"

func filledCart(price string, qty int) *cartstore.Cart {
	c := cartstore.New()
	c.AddItem(cart.Item{ID: rosePID, Name: "Rose Oil", Price: decimal.RequireFromString(price), Image: "rose.jpg"}, qty)
	return c
}

func newService(store Store, n Notifier, results *[]string) *Service {
	return NewService(store, n, zap.NewNop(), Options{
		FreeShippingThreshold: decimal.NewFromInt(50),
		ShippingFee:           decimal.RequireFromString("9.99"),
		Country:               "Morocco",
		Observe: func(r string) {
			if results != nil {
				*results = append(*results, r)
			}
		},
	})
}

func TestPlaceOrderSuccess(t *testing.T) {
	store := &fakeStore{}
	notifier := &fakeNotifier{}
	var results []string
	svc := newService(store, notifier, &results)
	c := filledCart("30", 2)

	conf, err := svc.PlaceOrder(context.Background(), c, validForm(), "")

	require.NoError(t, err)
	assert.True(t, c.IsEmpty())
	assert.Equal(t, []string{"success"}, results)

	assert.Regexp(t, `^ORDER-\d+-[0-9A-F]{9}$`, conf.OrderID)
	assert.Regexp(t, `^TRACK-\d{6}-[0-9A-F]{6}$`, conf.TrackingCode)
	assert.Equal(t, order.PaymentCODLabel, conf.PaymentMethod)
	assert.Equal(t, order.StatusPending, conf.Status)
	assert.Equal(t, "Salma", conf.Customer.FirstName)
	assert.Equal(t, "Rabat", conf.ShippingAddress.City)
	assert.Equal(t, "Morocco", conf.ShippingAddress.Country)
	assert.Equal(t, "60.00", conf.Pricing.Subtotal.StringFixed(2))
	assert.True(t, conf.Pricing.Shipping.IsZero())
	assert.Equal(t, "60.00", conf.Pricing.Total.StringFixed(2))
	require.Len(t, conf.Items, 1)
	assert.Equal(t, 2, conf.Items[0].Quantity)

	require.Len(t, store.created, 1)
	stored := store.created[0]
	assert.Equal(t, order.PaymentCOD, stored.PaymentMethod)
	require.Len(t, stored.Items, 1)
	require.NotNil(t, stored.Items[0].ProductID)
	assert.Equal(t, rosePID, *stored.Items[0].ProductID)

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, conf.OrderID, notifier.sent[0].OrderID)
}

func TestItemsAddedDuringCheckoutStayInCart(t *testing.T) {
	c := filledCart("30", 2)
	lipstick := cart.Item{ID: "lipstick", Name: "Lipstick", Price: decimal.NewFromInt(12)}
	store := &fakeStore{CreateFn: func(_ context.Context, o order.Order) (order.Order, error) {
		c.AddItem(lipstick, 1)
		c.AddItem(cart.Item{ID: rosePID, Name: "Rose Oil", Price: decimal.NewFromInt(30)}, 1)
		o.ID = "stored-id"
		return o, nil
	}}

	conf, err := newService(store, nil, nil).PlaceOrder(context.Background(), c, validForm(), "")

	require.NoError(t, err)
	require.Len(t, conf.Items, 1)
	assert.Equal(t, 2, conf.Items[0].Quantity)

	left := c.Items()
	require.Len(t, left, 2)
	assert.Equal(t, rosePID, left[0].ID)
	assert.Equal(t, 1, left[0].Quantity)
	assert.Equal(t, "lipstick", left[1].ID)
	assert.Equal(t, 1, left[1].Quantity)
}

func TestShippingBelowThreshold(t *testing.T) {
	svc := newService(&fakeStore{}, nil, nil)

	conf, err := svc.PlaceOrder(context.Background(), filledCart("49.99", 1), validForm(), "")

	require.NoError(t, err)
	assert.Equal(t, "9.99", conf.Pricing.Shipping.StringFixed(2))
	assert.Equal(t, "59.98", conf.Pricing.Total.StringFixed(2))
}

func TestPriceAtThresholdShipsFree(t *testing.T) {
	p := newService(&fakeStore{}, nil, nil).Price(decimal.NewFromInt(50))
	assert.True(t, p.Shipping.IsZero())
	assert.True(t, p.Total.Equal(decimal.NewFromInt(50)))
}

func TestInvalidFormNeverReachesStore(t *testing.T) {
	store := &fakeStore{}
	var results []string
	svc := newService(store, nil, &results)
	c := filledCart("10", 1)

	f := validForm()
	f.AgreeToTerms = false
	_, err := svc.PlaceOrder(context.Background(), c, f, "")

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "agree_to_terms")
	assert.Empty(t, store.created)
	assert.False(t, c.IsEmpty())
	assert.Equal(t, []string{"invalid"}, results)
}

func TestEmptyCart(t *testing.T) {
	store := &fakeStore{}
	svc := newService(store, nil, nil)

	_, err := svc.PlaceOrder(context.Background(), cartstore.New(), validForm(), "")

	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Empty(t, store.created)
}

func TestFailedWriteLeavesCartUntouched(t *testing.T) {
	store := &fakeStore{CreateFn: func(context.Context, order.Order) (order.Order, error) {
		return order.Order{}, errors.New("insert order item 0: connection reset")
	}}
	notifier := &fakeNotifier{}
	var results []string
	svc := newService(store, notifier, &results)
	c := filledCart("100", 1)
	before := c.Items()

	conf, err := svc.PlaceOrder(context.Background(), c, validForm(), "")

	require.Error(t, err)
	assert.Equal(t, order.Confirmation{}, conf)
	assert.Equal(t, before, c.Items())
	assert.Empty(t, notifier.sent)
	assert.Equal(t, []string{"error"}, results)
}

func TestReferenceCollisionRetries(t *testing.T) {
	calls := 0
	store := &fakeStore{CreateFn: func(_ context.Context, o order.Order) (order.Order, error) {
		calls++
		if calls < 3 {
			return order.Order{}, ErrDuplicateID
		}
		return o, nil
	}}
	svc := newService(store, nil, nil)

	conf, err := svc.PlaceOrder(context.Background(), filledCart("10", 1), validForm(), "")

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, store.created[2].OrderID, conf.OrderID)
}

func TestReferenceCollisionGivesUp(t *testing.T) {
	store := &fakeStore{CreateFn: func(context.Context, order.Order) (order.Order, error) {
		return order.Order{}, ErrDuplicateID
	}}
	svc := newService(store, nil, nil)
	c := filledCart("10", 1)

	_, err := svc.PlaceOrder(context.Background(), c, validForm(), "")

	assert.ErrorIs(t, err, ErrDuplicateID)
	assert.Len(t, store.created, maxIDAttempts)
	assert.False(t, c.IsEmpty())
}

func TestIdempotentReplay(t *testing.T) {
	pid := rosePID
	existing := order.Order{
		OrderID:      "ORDER-1-ABCDEFGHI",
		TrackingCode: "TRACK-000001-ABCDEF",
		Status:       order.StatusPending,
		Items:        []order.Item{{ProductID: &pid, ProductName: "Rose Oil", ProductPrice: decimal.NewFromInt(30), Quantity: 2}},
	}
	store := &fakeStore{FindByKeyFn: func(_ context.Context, key string) (order.Order, error) {
		assert.Equal(t, "key-1", key)
		return existing, nil
	}}
	svc := newService(store, nil, nil)

	conf, err := svc.PlaceOrder(context.Background(), cartstore.New(), validForm(), " key-1 ")

	require.NoError(t, err)
	assert.Empty(t, store.created)
	assert.Equal(t, existing.OrderID, conf.OrderID)
	require.Len(t, conf.Items, 1)
	assert.Equal(t, rosePID, conf.Items[0].ID)
}

func TestIdempotencyKeyIsStored(t *testing.T) {
	store := &fakeStore{}
	svc := newService(store, nil, nil)

	_, err := svc.PlaceOrder(context.Background(), filledCart("10", 1), validForm(), "key-2")

	require.NoError(t, err)
	assert.Equal(t, "key-2", store.created[0].IdempotencyKey)
}

func TestNotifierFailureDoesNotFailCheckout(t *testing.T) {
	svc := newService(&fakeStore{}, &fakeNotifier{err: errors.New("smtp down")}, nil)
	c := filledCart("10", 1)

	_, err := svc.PlaceOrder(context.Background(), c, validForm(), "")

	require.NoError(t, err)
	assert.True(t, c.IsEmpty())
}

func TestHistory(t *testing.T) {
	placed := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	assert.Len(t, History(order.StatusPending, placed), 1)
	assert.Len(t, History(order.StatusCanceled, placed), 1)
	assert.Len(t, History(order.StatusProcessing, placed), 2)
	assert.Len(t, History(order.StatusShipped, placed), 3)

	h := History(order.StatusDelivered, placed)
	require.Len(t, h, 4)
	assert.Equal(t, "Order Confirmed", h[1].Status)
	assert.Equal(t, placed.Add(time.Hour), h[1].Date)
	assert.Equal(t, placed.Add(24*time.Hour), h[2].Date)
	assert.Equal(t, "Delivered", h[3].Status)
	assert.Equal(t, placed.Add(72*time.Hour), h[3].Date)
}

func TestTrack(t *testing.T) {
	placed := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	store := &fakeStore{ByTrackingFn: func(_ context.Context, code string) (order.Order, bool, error) {
		if code != "track-123456-abcdef" {
			return order.Order{}, false, ErrNotFound
		}
		return order.Order{OrderID: "ORDER-1", TrackingCode: "TRACK-123456-ABCDEF", Status: order.StatusShipped,
			CreatedAt: placed, Pricing: order.Pricing{Total: decimal.NewFromInt(42)}}, true, nil
	}}
	svc := newService(store, nil, nil)

	tr, err := svc.Track(context.Background(), " track-123456-abcdef ")
	require.NoError(t, err)
	assert.True(t, tr.Reviewed)
	assert.Len(t, tr.History, 3)
	assert.True(t, tr.Total.Equal(decimal.NewFromInt(42)))

	_, err = svc.Track(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateStatusRejectsUnknown(t *testing.T) {
	svc := newService(&fakeStore{}, nil, nil)
	_, err := svc.UpdateStatus(context.Background(), "ORDER-1", "lost")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestUpdateStatusNormalises(t *testing.T) {
	var got order.Status
	store := &fakeStore{UpdateStatusFn: func(_ context.Context, _ string, st order.Status) (order.Order, error) {
		got = st
		return order.Order{Status: st}, nil
	}}
	svc := newService(store, nil, nil)

	_, err := svc.UpdateStatus(context.Background(), "ORDER-1", " Shipped ")
	require.NoError(t, err)
	assert.Equal(t, order.StatusShipped, got)
}
