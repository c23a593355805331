package dto

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const upstreamVendor = "my-dashboard-dev"

// UpstreamProductEnvelope is the request body the commerce platform expects
// for product creation and update.
type UpstreamProductEnvelope struct {
	Product UpstreamProduct `json:"product"`
}

type UpstreamProduct struct {
	ID       string            `json:"id,omitempty"`
	Title    string            `json:"title"`
	BodyHTML string            `json:"body_html"`
	Vendor   string            `json:"vendor,omitempty"`
	Variants []UpstreamVariant `json:"variants"`
}

// UpstreamVariant carries the price as a JSON number.
type UpstreamVariant struct {
	Price float64 `json:"price"`
}

// NewCreateEnvelope builds the creation payload: the title and price are
// embedded in a fixed description template and a single price variant.
func NewCreateEnvelope(title string, price decimal.Decimal) UpstreamProductEnvelope {
	return UpstreamProductEnvelope{
		Product: UpstreamProduct{
			Title:    title,
			BodyHTML: describe(title, price),
			Vendor:   upstreamVendor,
			Variants: []UpstreamVariant{{Price: price.InexactFloat64()}},
		},
	}
}

// NewUpdateEnvelope builds the update payload keyed by id.
func NewUpdateEnvelope(id, title string, price decimal.Decimal) UpstreamProductEnvelope {
	return UpstreamProductEnvelope{
		Product: UpstreamProduct{
			ID:       id,
			Title:    title,
			BodyHTML: describe(title, price),
			Variants: []UpstreamVariant{{Price: price.InexactFloat64()}},
		},
	}
}

func describe(title string, price decimal.Decimal) string {
	return fmt.Sprintf("<p>%s - Price: $%s</p>", title, price.String())
}
