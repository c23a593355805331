package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"shopdash/internal/domain"
	"shopdash/internal/listing"
	"shopdash/internal/session"
)

const (
	ansiReset = "\x1b[0m"
	ansiBold  = "\x1b[1m"
	ansiDim   = "\x1b[2m"
	ansiCyan  = "\x1b[96m"
)

type renderer struct {
	out   io.Writer
	theme session.Theme
	shop  string
}

func (r renderer) style(code, s string) string {
	if r.theme != session.ThemeDark {
		return s
	}
	return code + s + ansiReset
}

func (r renderer) page(q listing.Query, p listing.Page) {
	title := "Products"
	if r.shop != "" {
		title += " @ " + r.shop
	}
	fmt.Fprintf(r.out, "%s\n", r.style(ansiBold, title))
	fmt.Fprintf(r.out, "%s\n", r.style(ansiDim, fmt.Sprintf(
		"search=%q sort=%s stock=%s page=%d (%d matching)",
		q.Search, q.Sort, q.Stock, p.Number, p.Total,
	)))

	if len(p.Items) == 0 {
		fmt.Fprintln(r.out, "No products to show.")
	} else {
		tw := tabwriter.NewWriter(r.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tTITLE\tPRICE\tSTOCK\tIMAGE")
		for _, item := range p.Items {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n", item.ID, item.Title, item.Price().StringFixed(2), item.StockLevel(), item.ImageURL())
		}
		_ = tw.Flush()
	}

	prev, next := "prev", "next"
	if !p.HasPrev {
		prev = r.style(ansiDim, "(prev)")
	}
	if !p.HasNext {
		next = r.style(ansiDim, "(next)")
	}
	fmt.Fprintf(r.out, "%s | page %d | %s\n", prev, p.Number, next)
}

func (r renderer) product(verb string, p *domain.Product) {
	fmt.Fprintf(r.out, "%s %s %q (id %d, price %s)\n",
		r.style(ansiCyan, "✓"), verb, p.Title, p.ID, p.Price().StringFixed(2))
}
