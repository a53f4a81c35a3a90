package review

import "time"

type Review struct {
	ID           string    `json:"id"`
	ProductID    string    `json:"product_id"`
	OrderID      string    `json:"order_id"`
	Rating       int       `json:"rating"`
	Comment      string    `json:"comment"`
	CustomerName string    `json:"customer_name"`
	CreatedAt    time.Time `json:"created_at"`
}
