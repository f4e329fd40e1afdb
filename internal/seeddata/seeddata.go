// Package seeddata holds the demo catalog used for local runs and the seed
// command.
package seeddata

import (
	"github.com/shopspring/decimal"

	"github.com/kashmithnisakya/agentic-order-management/internal/core/domain"
)

func Products() []domain.Product {
	return []domain.Product{
		{
			ID:          "prod_001",
			Name:        "Wireless Keyboard",
			Description: "Compact 2.4GHz wireless keyboard with quiet keys",
			Category:    "electronics",
			Price:       decimal.RequireFromString("49.99"),
			Stock:       500,
			Unit:        "units",
		},
		{
			ID:          "prod_002",
			Name:        "Wireless Mouse",
			Description: "Ergonomic wireless mouse with adjustable DPI",
			Category:    "electronics",
			Price:       decimal.RequireFromString("24.99"),
			Stock:       750,
			Unit:        "units",
		},
		{
			ID:          "prod_003",
			Name:        "USB-C Hub",
			Description: "7-in-1 USB-C hub with HDMI and card reader",
			Category:    "electronics",
			Price:       decimal.RequireFromString("39.99"),
			Stock:       300,
			Unit:        "units",
		},
		{
			ID:          "prod_004",
			Name:        "Laptop Stand",
			Description: "Adjustable aluminum laptop stand",
			Category:    "accessories",
			Price:       decimal.RequireFromString("34.99"),
			Stock:       200,
			Unit:        "units",
		},
		{
			ID:          "prod_005",
			Name:        "Desk Mat",
			Description: "Extended desk mat, 90x40cm",
			Category:    "accessories",
			Price:       decimal.RequireFromString("19.99"),
			Stock:       85,
			Unit:        "units",
		},
		{
			ID:          "prod_006",
			Name:        "Mechanical Keyboard",
			Description: "Hot-swappable mechanical keyboard, brown switches",
			Category:    "electronics",
			Price:       decimal.RequireFromString("89.99"),
			Stock:       120,
			Unit:        "units",
		},
	}
}

func Users() []domain.User {
	return []domain.User{
		{ID: "user_001", Name: "Alice Johnson", Email: "alice@example.com", Role: domain.RoleCustomer},
		{ID: "user_002", Name: "Bob Smith", Email: "bob@example.com", Role: domain.RoleCustomer},
		{ID: "admin_001", Name: "Admin", Email: "admin@example.com", Role: domain.RoleAdmin},
	}
}
