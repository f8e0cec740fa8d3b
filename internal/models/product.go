package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a product in the store, owned by the user who created it.
type Product struct {
	ID          string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name        string          `json:"name" gorm:"type:varchar(100);not null"`
	Description string          `json:"description" gorm:"type:varchar(500)"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	UserID      string          `json:"userId" gorm:"type:varchar(36);index"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// OwnerID returns the id of the user allowed to mutate the product.
func (p *Product) OwnerID() string {
	return p.UserID
}
