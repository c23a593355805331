// Package listing holds the dashboard's product listing state: the fetched
// catalogue, the query that selects the visible page, and the mutations that
// patch the local copy after gateway calls.
package listing

import (
	"fmt"
)

// PageSize is the number of products shown per page.
const PageSize = 6

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

type StockFilter string

const (
	StockAll        StockFilter = "all"
	StockInStock    StockFilter = "in-stock"
	StockOutOfStock StockFilter = "out-of-stock"
)

// Query selects the visible page of the catalogue.
type Query struct {
	Search string
	Sort   SortOrder
	Stock  StockFilter
	Page   int
}

func DefaultQuery() Query {
	return Query{
		Sort:  SortAsc,
		Stock: StockAll,
		Page:  1,
	}
}

func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(s) {
	case SortAsc, SortDesc:
		return SortOrder(s), nil
	default:
		return "", fmt.Errorf("unknown sort order %q (want asc or desc)", s)
	}
}

func ParseStockFilter(s string) (StockFilter, error) {
	switch StockFilter(s) {
	case StockAll, StockInStock, StockOutOfStock:
		return StockFilter(s), nil
	default:
		return "", fmt.Errorf("unknown stock filter %q (want all, in-stock or out-of-stock)", s)
	}
}
