package domain

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(i int) *int {
	return &i
}

func TestProduct_Price(t *testing.T) {
	p := Product{Variants: []Variant{
		{Price: decimal.RequireFromString("9.99")},
		{Price: decimal.RequireFromString("19.99")},
	}}
	assert.True(t, p.Price().Equal(decimal.RequireFromString("9.99")))
}

func TestProduct_Price_NoVariants(t *testing.T) {
	assert.True(t, Product{}.Price().IsZero())
}

func TestProduct_StockLevel(t *testing.T) {
	assert.Equal(t, 0, Product{}.StockLevel())
	assert.False(t, Product{}.InStock())
	assert.Equal(t, 0, Product{Stock: intPtr(0)}.StockLevel())
	assert.Equal(t, 7, Product{Stock: intPtr(7)}.StockLevel())
	assert.True(t, Product{Stock: intPtr(7)}.InStock())
}

func TestProduct_ImageURL(t *testing.T) {
	assert.Equal(t, PlaceholderImageURL, Product{}.ImageURL())
	assert.Equal(t, PlaceholderImageURL, Product{Image: &Image{}}.ImageURL())
	assert.Equal(t, "https://cdn.example/mug.png", Product{Image: &Image{Src: "https://cdn.example/mug.png"}}.ImageURL())
}

func TestProduct_DecodeUpstreamShape(t *testing.T) {
	// The platform sends variant prices as strings.
	raw := `{"id":8072445345945,"title":"Mug","variants":[{"id":1,"price":"12.50"}],"image":null}`

	var p Product
	require.NoError(t, json.Unmarshal([]byte(raw), &p))

	assert.Equal(t, int64(8072445345945), p.ID)
	assert.Equal(t, "Mug", p.Title)
	assert.True(t, p.Price().Equal(decimal.RequireFromString("12.5")))
	assert.Nil(t, p.Stock)
	assert.Equal(t, PlaceholderImageURL, p.ImageURL())
}

func TestProduct_DecodeNumericPrice(t *testing.T) {
	var p Product
	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"title":"Cap","variants":[{"price":9.99}],"stock":3}`), &p))

	assert.True(t, p.Price().Equal(decimal.RequireFromString("9.99")))
	assert.Equal(t, 3, p.StockLevel())
}
