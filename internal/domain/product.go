package domain

import (
	"github.com/shopspring/decimal"
)

// PlaceholderImageURL is shown for products without an image.
const PlaceholderImageURL = "https://boltagency.ca/content/images/2020/03/placeholder-images-product-1_large.png"

// Product mirrors the commerce platform's product resource. The platform owns
// it; everything here is a transient copy.
type Product struct {
	ID       int64     `json:"id"`
	Title    string    `json:"title"`
	BodyHTML string    `json:"body_html,omitempty"`
	Vendor   string    `json:"vendor,omitempty"`
	Variants []Variant `json:"variants,omitempty"`
	Stock    *int      `json:"stock,omitempty"`
	Image    *Image    `json:"image,omitempty"`
}

type Variant struct {
	ID    int64           `json:"id,omitempty"`
	Price decimal.Decimal `json:"price"`
}

type Image struct {
	Src string `json:"src"`
}

// Price is the first variant's price, zero when there are no variants.
func (p Product) Price() decimal.Decimal {
	if len(p.Variants) == 0 {
		return decimal.Zero
	}
	return p.Variants[0].Price
}

// StockLevel treats a missing stock count as zero.
func (p Product) StockLevel() int {
	if p.Stock == nil {
		return 0
	}
	return *p.Stock
}

func (p Product) InStock() bool {
	return p.StockLevel() > 0
}

func (p Product) ImageURL() string {
	if p.Image == nil || p.Image.Src == "" {
		return PlaceholderImageURL
	}
	return p.Image.Src
}
