package app

import (
	"time"

	"github.com/abgdnv/storefront/internal/catalog"
)

// sampleRecords is the built-in catalog used when no seed file is configured.
func sampleRecords() []catalog.Record {
	day := func(d int) time.Time {
		return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, d)
	}
	return []catalog.Record{
		{ID: "rec-0001", Name: "Wireless Mouse", VendorID: "v-periph", VendorName: "Peripherals Inc", Description: "Compact 2.4GHz mouse", Price: 2499, SalePrice: 1999, Rating: 4.3, ReviewCount: 812, Stock: 140, Category: "electronics", CreatedAt: day(2)},
		{ID: "rec-0002", Name: "Mechanical Keyboard Pro", VendorID: "v-periph", VendorName: "Peripherals Inc", Description: "Hot-swappable switches", Price: 12900, Rating: 4.7, ReviewCount: 451, Stock: 35, Category: "electronics", CreatedAt: day(10)},
		{ID: "rec-0003", Name: "USB-C Hub", VendorID: "v-cables", VendorName: "Cable Co", Description: "7-in-1 aluminium hub", Price: 4500, SalePrice: 3900, Rating: 4.1, ReviewCount: 203, Stock: 0, Category: "electronics", CreatedAt: day(15)},
		{ID: "rec-0004", Name: "Ceramic Mug", VendorID: "v-kitchen", VendorName: "Kitchenware", Description: "350ml stoneware mug", Price: 1200, Rating: 4.8, ReviewCount: 96, Stock: 400, Category: "home", CreatedAt: day(20)},
		{ID: "rec-0005", Name: "French Press", VendorID: "v-kitchen", VendorName: "Kitchenware", Description: "1L borosilicate press", Price: 3400, SalePrice: 2900, Rating: 4.5, ReviewCount: 170, Stock: 58, Category: "home", CreatedAt: day(25)},
		{ID: "rec-0006", Name: "Yoga Mat", VendorID: "v-fit", VendorName: "FitGear", Description: "6mm non-slip mat", Price: 2900, Rating: 4.0, ReviewCount: 330, Stock: 210, Category: "sports", CreatedAt: day(30)},
		{ID: "rec-0007", Name: "Trail Running Shoes", VendorID: "v-fit", VendorName: "FitGear", Description: "Lightweight trail shoes", Price: 9800, SalePrice: 7400, Rating: 4.4, ReviewCount: 540, Stock: 12, Category: "sports", CreatedAt: day(35)},
		{ID: "rec-0008", Name: "Desk Lamp", VendorID: "v-light", VendorName: "Lumina", Description: "Dimmable LED lamp", Price: 3600, Rating: 3.9, ReviewCount: 77, Stock: 89, Category: "home", CreatedAt: day(40)},
	}
}
