package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order represents a customer order. Products is a set: the order_products join table
// is keyed by (order_id, product_id).
type Order struct {
	ID         string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	TotalPrice decimal.Decimal `json:"totalPrice" gorm:"type:decimal(12,2);not null"`
	UserID     string          `json:"userId" gorm:"type:varchar(36);index"`
	User       *User           `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Products   []Product       `json:"products" gorm:"many2many:order_products;"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// OwnerID returns the id of the user allowed to mutate the order.
func (o *Order) OwnerID() string {
	return o.UserID
}

// RecalculateTotal sets TotalPrice to the sum of the prices of the order's products.
func (o *Order) RecalculateTotal() {
	total := decimal.Zero
	for _, p := range o.Products {
		total = total.Add(p.Price)
	}
	o.TotalPrice = total
}

// ProductIDs returns the ids of the order's products in their current order.
func (o *Order) ProductIDs() []string {
	ids := make([]string, 0, len(o.Products))
	for _, p := range o.Products {
		ids = append(ids, p.ID)
	}
	return ids
}
