// Package cart holds shopping carts in memory and exposes them over HTTP.
//
// A Cart is the single owner of its line items. Callers mutate it only through
// AddItem, RemoveItem, UpdateQuantity, Subtract and Clear, and read it through
// derived accessors that return copies. The total is recomputed on every read,
// so it cannot go stale.
package cart

import (
	"sync"

	"github.com/shopspring/decimal"

	"storefront/internal/domain/cart"
)

type Cart struct {
	mu        sync.Mutex
	items     []cart.LineItem
	observers map[int]func(cart.Summary)
	nextObs   int
}

func New() *Cart {
	return &Cart{observers: map[int]func(cart.Summary){}}
}

// AddItem increments the line for item.ID by qty, or appends a new line.
// qty below 1 counts as 1.
func (c *Cart) AddItem(item cart.Item, qty int) {
	if qty < 1 {
		qty = 1
	}
	c.mutate(func() {
		if i := c.indexOf(item.ID); i >= 0 {
			c.items[i].Quantity += qty
			return
		}
		c.items = append(c.items, cart.LineItem{Item: item, Quantity: qty})
	})
}

// RemoveItem drops the line for id. Unknown ids are ignored.
func (c *Cart) RemoveItem(id string) {
	c.mutate(func() {
		if i := c.indexOf(id); i >= 0 {
			c.items = append(c.items[:i], c.items[i+1:]...)
		}
	})
}

// UpdateQuantity sets the quantity of id exactly; below 1 removes the line.
func (c *Cart) UpdateQuantity(id string, qty int) {
	c.mutate(func() {
		i := c.indexOf(id)
		if i < 0 {
			return
		}
		if qty < 1 {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return
		}
		c.items[i].Quantity = qty
	})
}

// Subtract takes the given quantities off the matching lines and drops lines
// that fall below 1. Quantities added after lines was read stay in the cart.
func (c *Cart) Subtract(lines []cart.LineItem) {
	c.mutate(func() {
		for _, l := range lines {
			i := c.indexOf(l.ID)
			if i < 0 {
				continue
			}
			c.items[i].Quantity -= l.Quantity
			if c.items[i].Quantity < 1 {
				c.items = append(c.items[:i], c.items[i+1:]...)
			}
		}
	})
}

func (c *Cart) Clear() {
	c.mutate(func() {
		c.items = nil
	})
}

// TotalItems is the sum of quantities, not the number of lines.
func (c *Cart) TotalItems() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalItemsLocked()
}

func (c *Cart) Total() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalLocked()
}

// Items returns a copy of the lines in insertion order.
func (c *Cart) Items() []cart.LineItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.copyLocked()
}

func (c *Cart) IsEmpty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items) == 0
}

func (c *Cart) Summary() cart.Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.summaryLocked()
}

// Subscribe registers fn to receive the recomputed summary after every
// mutation. The returned func removes the subscription.
func (c *Cart) Subscribe(fn func(cart.Summary)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextObs
	c.nextObs++
	c.observers[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.observers, id)
		c.mu.Unlock()
	}
}

// mutate applies fn under the lock and notifies observers after releasing it.
func (c *Cart) mutate(fn func()) {
	c.mu.Lock()
	fn()
	s := c.summaryLocked()
	obs := make([]func(cart.Summary), 0, len(c.observers))
	for _, o := range c.observers {
		obs = append(obs, o)
	}
	c.mu.Unlock()

	for _, o := range obs {
		o(s)
	}
}

func (c *Cart) indexOf(id string) int {
	for i := range c.items {
		if c.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (c *Cart) totalItemsLocked() int {
	n := 0
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

func (c *Cart) totalLocked() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.items {
		total = total.Add(it.Subtotal())
	}
	return total
}

func (c *Cart) copyLocked() []cart.LineItem {
	out := make([]cart.LineItem, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Cart) summaryLocked() cart.Summary {
	return cart.Summary{
		Items:      c.copyLocked(),
		TotalItems: c.totalItemsLocked(),
		Total:      c.totalLocked(),
		Empty:      len(c.items) == 0,
	}
}
