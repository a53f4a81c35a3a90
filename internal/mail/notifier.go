package mail

import (
	"context"
	"fmt"
	"strings"

	"storefront/internal/domain/order"
)

// OrderNotifier tells the shop owner about every new order.
type OrderNotifier struct {
	mailer Mailer
	to     string
}

func NewOrderNotifier(mailer Mailer, to string) *OrderNotifier {
	return &OrderNotifier{mailer: mailer, to: to}
}

func (n *OrderNotifier) OrderPlaced(ctx context.Context, c order.Confirmation) error {
	subject := fmt.Sprintf("New order %s (%s)", c.OrderID, c.Pricing.Total.StringFixed(2))
	return n.mailer.Send(ctx, n.to, subject, OrderSummary(c))
}

// OrderSummary renders a confirmation as the plain-text mail body.
func OrderSummary(c order.Confirmation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Order: %s\n", c.OrderID)
	fmt.Fprintf(&b, "Tracking: %s\n", c.TrackingCode)
	fmt.Fprintf(&b, "Placed: %s\n\n", c.CreatedAt.Format("2006-01-02 15:04"))

	name := strings.TrimSpace(c.Customer.FirstName + " " + c.Customer.LastName)
	fmt.Fprintf(&b, "Customer: %s\n", name)
	fmt.Fprintf(&b, "Phone: %s\n", c.Customer.Phone)
	if c.Customer.Email != "" {
		fmt.Fprintf(&b, "Email: %s\n", c.Customer.Email)
	}
	fmt.Fprintf(&b, "Ship to: %s, %s, %s\n\n", c.ShippingAddress.Address, c.ShippingAddress.City, c.ShippingAddress.Country)

	for _, it := range c.Items {
		fmt.Fprintf(&b, "  %d x %s @ %s = %s\n", it.Quantity, it.Name, it.Price.StringFixed(2), it.Subtotal().StringFixed(2))
	}
	fmt.Fprintf(&b, "\nSubtotal: %s\n", c.Pricing.Subtotal.StringFixed(2))
	fmt.Fprintf(&b, "Shipping: %s\n", c.Pricing.Shipping.StringFixed(2))
	fmt.Fprintf(&b, "Total: %s\n", c.Pricing.Total.StringFixed(2))
	fmt.Fprintf(&b, "Payment: %s\n", c.PaymentMethod)
	if c.Notes != "" {
		fmt.Fprintf(&b, "\nNotes: %s\n", c.Notes)
	}
	return b.String()
}
