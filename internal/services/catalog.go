package services

import "fmt"

// Product is one entry in the shop catalog shown in the product list menu.
type Product struct {
	ID    string
	Title string
	Tier  string
	Price string
}

// ListDescription is the row description in the product list menu.
func (p Product) ListDescription() string {
	return fmt.Sprintf("%s - %s", p.Tier, p.Price)
}

// Summary is the short form shown when the user picks the product.
func (p Product) Summary() string {
	return fmt.Sprintf("%s - %s", p.Title, p.Price)
}

// Catalog is an ordered product listing.
type Catalog []Product

// ByID returns the product with the given list-row id.
func (c Catalog) ByID(id string) (Product, bool) {
	for _, p := range c {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

// DefaultCatalog is the demo product range.
func DefaultCatalog() Catalog {
	return Catalog{
		{ID: "prod_A", Title: "Model A", Tier: "High-end model", Price: "$299"},
		{ID: "prod_B", Title: "Model B", Tier: "Mid-range model", Price: "$199"},
		{ID: "prod_C", Title: "Model C", Tier: "Budget model", Price: "$99"},
	}
}
