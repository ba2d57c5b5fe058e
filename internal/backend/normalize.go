package backend

import (
	"time"

	"github.com/abgdnv/storefront/internal/catalog"
)

// recordDTO is the wire shape of one catalog record as the backend serves
// it. Optional fields are pointers so that absent and zero values can be
// told apart during normalization.
type recordDTO struct {
	ID          string   `json:"id"          validate:"required"`
	Name        string   `json:"name"        validate:"required"`
	VendorID    string   `json:"vendorId"`
	VendorName  string   `json:"vendorName"`
	Description string   `json:"description"`
	Price       int64    `json:"price"       validate:"min=0"`
	SalePrice   *int64   `json:"salePrice"`
	Rating      *float64 `json:"rating"`
	ReviewCount int      `json:"reviewCount"`
	Stock       *int     `json:"stock"`
	Category    string   `json:"category"`
	CreatedAt   time.Time `json:"createdAt"`
}

// normalizeRecords validates and normalizes raw records into the engine's
// invariant shape. Records that fail validation are dropped with a warning;
// malformed optional fields are defaulted rather than propagated.
func (c *Client) normalizeRecords(items []recordDTO) []catalog.Record {
	records := make([]catalog.Record, 0, len(items))
	for _, dto := range items {
		if err := c.validate.Struct(dto); err != nil {
			c.logger.Warn("dropping malformed catalog record", "id", dto.ID, "error", err)
			continue
		}
		records = append(records, normalizeRecord(dto))
	}
	return records
}

// normalizeRecord maps a validated DTO to a Record, enforcing the engine's
// invariants: rating clamped to [0,5], non-negative stock and review count,
// and a sale price only when it is positive and at most the base price.
func normalizeRecord(dto recordDTO) catalog.Record {
	r := catalog.Record{
		ID:          dto.ID,
		Name:        dto.Name,
		VendorID:    dto.VendorID,
		VendorName:  dto.VendorName,
		Description: dto.Description,
		Price:       dto.Price,
		Category:    dto.Category,
		CreatedAt:   dto.CreatedAt,
	}
	if dto.SalePrice != nil && *dto.SalePrice > 0 && *dto.SalePrice <= dto.Price {
		r.SalePrice = *dto.SalePrice
	}
	if dto.Rating != nil {
		r.Rating = clamp(*dto.Rating, 0, 5)
	}
	if dto.ReviewCount > 0 {
		r.ReviewCount = dto.ReviewCount
	}
	if dto.Stock != nil && *dto.Stock > 0 {
		r.Stock = *dto.Stock
	}
	return r
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
