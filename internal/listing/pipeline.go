package listing

import (
	"sort"
	"strings"

	"shopdash/internal/domain"
)

// Page is one slice of the processed catalogue.
type Page struct {
	Items   []domain.Product
	Number  int
	Total   int
	HasPrev bool
	HasNext bool
}

// FilterBySearch keeps products whose title contains search, ignoring case.
func FilterBySearch(products []domain.Product, search string) []domain.Product {
	if search == "" {
		return products
	}
	needle := strings.ToLower(search)
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Title), needle) {
			out = append(out, p)
		}
	}
	return out
}

// FilterByStock applies the stock filter. A product without a stock count
// is out of stock.
func FilterByStock(products []domain.Product, filter StockFilter) []domain.Product {
	if filter != StockInStock && filter != StockOutOfStock {
		return products
	}
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if p.InStock() == (filter == StockInStock) {
			out = append(out, p)
		}
	}
	return out
}

// SortByPrice returns a copy ordered by first-variant price. Equal prices keep
// their input order.
func SortByPrice(products []domain.Product, order SortOrder) []domain.Product {
	out := make([]domain.Product, len(products))
	copy(out, products)
	sort.SliceStable(out, func(i, j int) bool {
		if order == SortDesc {
			return out[i].Price().GreaterThan(out[j].Price())
		}
		return out[i].Price().LessThan(out[j].Price())
	})
	return out
}

// Process filters and sorts without paginating.
func Process(products []domain.Product, q Query) []domain.Product {
	filtered := FilterBySearch(products, q.Search)
	filtered = FilterByStock(filtered, q.Stock)
	return SortByPrice(filtered, q.Sort)
}

// Paginate returns items [(page-1)*PageSize, page*PageSize). A page past the
// end is empty but still allows going back.
func Paginate(products []domain.Product, page int) Page {
	if page < 1 {
		page = 1
	}
	// Bounds are checked by division so huge page numbers cannot overflow.
	start, end := len(products), len(products)
	if page-1 <= (len(products)-1)/PageSize {
		start = (page - 1) * PageSize
		end = min(start+PageSize, len(products))
	}

	return Page{
		Items:   products[start:end],
		Number:  page,
		Total:   len(products),
		HasPrev: page > 1,
		HasNext: end < len(products),
	}
}

// Apply runs the full pipeline for q.
func Apply(products []domain.Product, q Query) Page {
	return Paginate(Process(products, q), q.Page)
}
