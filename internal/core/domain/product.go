package domain

import "github.com/shopspring/decimal"

type Product struct {
	ID          string
	Name        string
	Description string
	Category    string
	Price       decimal.Decimal
	Stock       int
	Unit        string
}

// InventoryValue is price multiplied by units on hand.
func (p Product) InventoryValue() decimal.Decimal {
	return p.Price.Mul(decimal.NewFromInt(int64(p.Stock)))
}
