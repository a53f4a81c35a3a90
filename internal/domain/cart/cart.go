package cart

import "github.com/shopspring/decimal"

// Item is what a shopper puts in the cart: a product snapshot without quantity.
type Item struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Image string          `json:"image"`
}

// LineItem is one product in the cart with its requested quantity (always >= 1).
type LineItem struct {
	Item
	Quantity int `json:"quantity"`
}

// Subtotal is price times quantity for this line.
func (l LineItem) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Summary is the derived view consumers render: badge count and total.
type Summary struct {
	Items      []LineItem      `json:"items"`
	TotalItems int             `json:"total_items"`
	Total      decimal.Decimal `json:"total"`
	Empty      bool            `json:"empty"`
}
