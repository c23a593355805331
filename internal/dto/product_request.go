package dto

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// PriceInput accepts a price sent either as a JSON number or as a numeric
// string. A missing or null price decodes to "".
type PriceInput string

func (p *PriceInput) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*p = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = PriceInput(strings.TrimSpace(s))
	default:
		// Numbers pass through; booleans, objects and arrays are kept verbatim
		// so validation reports them.
		*p = PriceInput(data)
	}
	return nil
}

// Decimal parses the price. Call it only after validation passed.
func (p PriceInput) Decimal() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(string(p))
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing price %q: %w", string(p), err)
	}
	return d, nil
}

// ProductRequest is the body of POST /api/products and PUT /api/products/{id}.
// Extra fields sent by the dashboard form, such as imgSrc, are ignored.
// A zero price is rejected only when it arrives as a JSON number; "0" as a
// string is a valid price.
type ProductRequest struct {
	Title       string     `json:"title" validate:"required"`
	Price       PriceInput `json:"price" validate:"required,price,price_nonzero=PriceQuoted"`
	PriceQuoted bool       `json:"-"`
}

func (r *ProductRequest) UnmarshalJSON(data []byte) error {
	type plain ProductRequest
	var body plain
	if err := json.Unmarshal(data, &body); err != nil {
		return err
	}

	var raw struct {
		Price json.RawMessage `json:"price"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = ProductRequest(body)
	price := bytes.TrimSpace(raw.Price)
	r.PriceQuoted = len(price) > 0 && price[0] == '"'
	return nil
}
