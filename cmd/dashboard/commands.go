package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	apperrors "shopdash/internal/errors"
	"shopdash/internal/listing"
	"shopdash/internal/session"
)

func (a *app) loginCommand() *cobra.Command {
	var shop string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Start a dashboard session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if shop == "" {
				shop = a.cfg.Upstream.StoreURL
			}
			sess, err := a.store.Login(shop, time.Now())
			if err != nil {
				return err
			}
			a.logger.Debug("session started", zap.String("sessionId", sess.ID))
			fmt.Fprintf(a.out, "Logged in to %s\n", sess.ShopURL)
			return nil
		},
	}
	cmd.Flags().StringVar(&shop, "shop", "", "shop URL (default $SHOPIFY_STORE_URL)")
	return cmd
}

func (a *app) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the dashboard session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.store.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Logged out")
			return nil
		},
	}
}

type queryFlags struct {
	search string
	sort   string
	stock  string
	page   int
}

func (f *queryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.search, "search", "s", "", "case-insensitive title filter")
	cmd.Flags().StringVar(&f.sort, "sort", string(listing.SortAsc), "price order: asc or desc")
	cmd.Flags().StringVar(&f.stock, "stock", string(listing.StockAll), "stock filter: all, in-stock or out-of-stock")
	cmd.Flags().IntVarP(&f.page, "page", "p", 1, "page number")
}

func (f *queryFlags) query() (listing.Query, error) {
	order, err := listing.ParseSortOrder(f.sort)
	if err != nil {
		return listing.Query{}, err
	}
	stock, err := listing.ParseStockFilter(f.stock)
	if err != nil {
		return listing.Query{}, err
	}
	return listing.Query{Search: f.search, Sort: order, Stock: stock, Page: f.page}, nil
}

func (a *app) listCommand() *cobra.Command {
	var qf queryFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show one page of products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := qf.query()
			if err != nil {
				return err
			}
			d, page, err := a.loadedDashboard(cmd.Context(), q)
			if err != nil {
				return err
			}
			defer d.Close()

			a.renderer(cmd.Context()).page(d.Query(), page)
			return nil
		},
	}
	qf.register(cmd)
	return requiresSession(cmd)
}

type formFlags struct {
	title string
	price string
	image string
}

func (f *formFlags) register(cmd *cobra.Command, defaults listing.ProductForm) {
	cmd.Flags().StringVar(&f.title, "title", defaults.Title, "product title")
	cmd.Flags().StringVar(&f.price, "price", defaults.Price, "product price, greater than zero")
	cmd.Flags().StringVar(&f.image, "image", defaults.ImgSrc, "image URL")
}

// apply overrides form fields whose flags were set explicitly.
func (f *formFlags) apply(cmd *cobra.Command, form listing.ProductForm) listing.ProductForm {
	if cmd.Flags().Changed("title") {
		form.Title = f.title
	}
	if cmd.Flags().Changed("price") {
		form.Price = f.price
	}
	if cmd.Flags().Changed("image") {
		form.ImgSrc = f.image
	}
	return form
}

func (a *app) createCommand() *cobra.Command {
	var ff formFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a product",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d := a.dashboard()
			defer d.Close()

			created, err := d.Create(cmd.Context(), ff.apply(cmd, listing.DefaultForm()))
			if err != nil {
				return a.explain(err)
			}
			a.renderer(cmd.Context()).product("Created", created)
			return nil
		},
	}
	ff.register(cmd, listing.DefaultForm())
	return requiresSession(cmd)
}

func (a *app) updateCommand() *cobra.Command {
	var ff formFlags
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Edit a product; unset fields keep their current values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			d, _, err := a.loadedDashboard(cmd.Context(), listing.DefaultQuery())
			if err != nil {
				return err
			}
			defer d.Close()

			form, ok := d.StartEdit(id)
			if !ok {
				return fmt.Errorf("product %d not found", id)
			}
			updated, err := d.Update(cmd.Context(), id, ff.apply(cmd, form))
			if err != nil {
				return a.explain(err)
			}
			a.renderer(cmd.Context()).product("Updated", updated)
			return nil
		},
	}
	ff.register(cmd, listing.ProductForm{})
	return requiresSession(cmd)
}

func (a *app) deleteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete ID [ID...]",
		Short: "Delete one product, or several at once",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := parseID(arg)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}

			d := a.dashboard()
			defer d.Close()

			if len(ids) == 1 {
				if err := d.Delete(cmd.Context(), ids[0]); err != nil {
					return a.explain(err)
				}
				fmt.Fprintf(a.out, "Product %d deleted\n", ids[0])
				return nil
			}

			for _, id := range ids {
				d.Select(id)
			}
			err := d.BulkDelete(cmd.Context())
			if pbf, ok := apperrors.IsPartialBulkFailure(err); ok {
				failed := make(map[int64]bool, len(pbf.Failed))
				for _, id := range pbf.FailedIDs() {
					failed[id] = true
				}
				for _, id := range ids {
					if !failed[id] {
						fmt.Fprintf(a.out, "Product %d deleted\n", id)
					}
				}
				return err
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%d products deleted\n", len(ids))
			return nil
		},
	}
	return requiresSession(cmd)
}

func (a *app) themeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "theme",
		Short: "Show the current theme",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(a.out, "Theme: %s\n", a.theme())
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "toggle",
		Short: "Switch between light and dark",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			theme, err := a.store.ToggleTheme()
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Theme: %s\n", theme)
			return nil
		},
	})
	return cmd
}

func (a *app) watchCommand() *cobra.Command {
	var qf queryFlags
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Interactive listing: type to search, :next, :prev, :sort, :stock, :quit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := qf.query()
			if err != nil {
				return err
			}
			return a.watch(cmd, q)
		},
	}
	qf.register(cmd)
	return requiresSession(cmd)
}

func (a *app) watch(cmd *cobra.Command, q listing.Query) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	r := a.renderer(ctx)

	var (
		mu sync.Mutex
		d  *listing.Dashboard
	)
	show := func(p listing.Page, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			fmt.Fprintf(a.out, "refresh failed: %v\n", err)
			return
		}
		r.page(d.Query(), p)
	}

	d = a.dashboard(listing.OnSearch(show))
	defer d.Close()

	page, err := d.SetQuery(ctx, q)
	show(page, err)

	lines := make(chan string)
	go readLines(ctx, cmd.InOrStdin(), lines)

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				d.FlushSearch()
				return nil
			}
			if quit := a.watchLine(ctx, d, strings.TrimSpace(line), show); quit {
				return nil
			}
		}
	}
}

// readLines sends each line of in until EOF or until ctx is done, then closes
// lines. A read already blocked on in still finishes before it exits.
func readLines(ctx context.Context, in io.Reader, lines chan<- string) {
	defer close(lines)
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		select {
		case lines <- scanner.Text():
		case <-ctx.Done():
			return
		}
	}
}

// watchLine handles one input line and reports whether to stop.
func (a *app) watchLine(ctx context.Context, d *listing.Dashboard, line string, show func(listing.Page, error)) bool {
	if !strings.HasPrefix(line, ":") {
		d.SetSearch(ctx, line)
		return false
	}

	fields := strings.Fields(line)
	switch fields[0] {
	case ":q", ":quit":
		return true
	case ":next":
		show(d.NextPage(ctx))
	case ":prev":
		show(d.PrevPage(ctx))
	case ":sort":
		if len(fields) < 2 {
			fmt.Fprintln(a.out, "usage: :sort asc|desc")
			return false
		}
		order, err := listing.ParseSortOrder(fields[1])
		if err != nil {
			fmt.Fprintln(a.out, err)
			return false
		}
		show(d.SetSort(ctx, order))
	case ":stock":
		if len(fields) < 2 {
			fmt.Fprintln(a.out, "usage: :stock all|in-stock|out-of-stock")
			return false
		}
		filter, err := listing.ParseStockFilter(fields[1])
		if err != nil {
			fmt.Fprintln(a.out, err)
			return false
		}
		show(d.SetStock(ctx, filter))
	default:
		fmt.Fprintf(a.out, "unknown command %s\n", fields[0])
	}
	return false
}

// explain prints per-field validation messages before returning err.
func (a *app) explain(err error) error {
	if ve, ok := apperrors.IsValidationError(err); ok {
		for _, d := range ve.Details {
			fmt.Fprintf(a.out, "  %s: %s\n", d.Field, d.Message)
		}
	}
	return err
}

func (a *app) renderer(ctx context.Context) renderer {
	r := renderer{out: a.out, theme: a.theme()}
	if sess, ok := session.FromContext(ctx); ok {
		r.shop = sess.ShopURL
	}
	return r
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("product id must be a positive integer: " + s)
	}
	return id, nil
}
