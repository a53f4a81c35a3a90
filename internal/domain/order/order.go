package order

import (
	"time"

	"github.com/shopspring/decimal"

	"storefront/internal/domain/cart"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCanceled   Status = "canceled"
	StatusReturned   Status = "returned"
)

var statuses = []Status{
	StatusPending, StatusConfirmed, StatusProcessing, StatusShipped,
	StatusDelivered, StatusCanceled, StatusReturned,
}

func ParseStatus(s string) (Status, bool) {
	for _, st := range statuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

const (
	PaymentCOD      = "cod"
	PaymentCODLabel = "Cash on Delivery"
)

type Customer struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

type Address struct {
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zip_code"`
	Country string `json:"country"`
}

type Pricing struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
}

// Order is the persisted order header. ID is the storage key; OrderID is the
// human-facing reference.
type Order struct {
	ID             string    `json:"id"`
	OrderID        string    `json:"order_id"`
	TrackingCode   string    `json:"tracking_code"`
	Customer       Customer  `json:"customer"`
	Shipping       Address   `json:"shipping_address"`
	Pricing        Pricing   `json:"pricing"`
	PaymentMethod  string    `json:"payment_method"`
	Status         Status    `json:"status"`
	Notes          string    `json:"notes,omitempty"`
	IdempotencyKey string    `json:"-"`
	Items          []Item    `json:"items,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type Item struct {
	ID           string          `json:"id"`
	OrderID      string          `json:"-"`
	ProductID    *string         `json:"product_id,omitempty"`
	ProductName  string          `json:"product_name"`
	ProductPrice decimal.Decimal `json:"product_price"`
	ProductImage string          `json:"product_image,omitempty"`
	Quantity     int             `json:"quantity"`
}

// Confirmation is what a shopper receives after a successful checkout.
type Confirmation struct {
	OrderID         string          `json:"order_id"`
	TrackingCode    string          `json:"tracking_code"`
	Customer        Customer        `json:"customer"`
	ShippingAddress Address         `json:"shipping_address"`
	Items           []cart.LineItem `json:"items"`
	Pricing         Pricing         `json:"pricing"`
	PaymentMethod   string          `json:"payment_method"`
	Status          Status          `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
	Notes           string          `json:"notes,omitempty"`
}

// TrackingEvent is one step in the public order timeline.
type TrackingEvent struct {
	Status      string    `json:"status"`
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
}

// Tracking is the public view of an order looked up by tracking code.
type Tracking struct {
	OrderID      string          `json:"order_id"`
	TrackingCode string          `json:"tracking_code"`
	Status       Status          `json:"status"`
	Customer     Customer        `json:"customer"`
	Items        []Item          `json:"items"`
	Total        decimal.Decimal `json:"total"`
	CreatedAt    time.Time       `json:"created_at"`
	History      []TrackingEvent `json:"tracking_history"`
	Reviewed     bool            `json:"reviewed"`
}
