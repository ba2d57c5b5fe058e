// Package catalog implements the in-memory catalog query engine:
// filtering, text search, sorting, and windowing over listing records.
// All functions are pure and safe for concurrent use.
package catalog

import "time"

// Record represents a single immutable catalog listing.
// Prices are in cents. SalePrice == 0 means the listing is not on sale;
// a sale price above the base price is ignored for pricing purposes
// (the data source normalizes such records before they reach the engine).
type Record struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	VendorID    string    `json:"vendorId"`
	VendorName  string    `json:"vendorName"`
	Description string    `json:"description,omitempty"`
	Price       int64     `json:"price"`
	SalePrice   int64     `json:"salePrice,omitempty"`
	Rating      float64   `json:"rating"`
	ReviewCount int       `json:"reviewCount"`
	Stock       int       `json:"stock"`
	Category    string    `json:"category"`
	CreatedAt   time.Time `json:"createdAt"`
}

// OnSale reports whether the record carries a valid sale price.
func (r Record) OnSale() bool {
	return r.SalePrice > 0 && r.SalePrice <= r.Price
}

// EffectivePrice returns the sale price when present and valid,
// otherwise the base price. Range filtering and price sorting use this value.
func (r Record) EffectivePrice() int64 {
	if r.OnSale() {
		return r.SalePrice
	}
	return r.Price
}

// InStock reports whether the record has stock available.
func (r Record) InStock() bool {
	return r.Stock > 0
}
