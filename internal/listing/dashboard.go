package listing

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"shopdash/internal/debounce"
	"shopdash/internal/domain"
	apperrors "shopdash/internal/errors"
	"shopdash/internal/gatewayclient"
)

type Gateway interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	CreateProduct(ctx context.Context, in gatewayclient.ProductInput) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id int64, in gatewayclient.ProductInput) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
}

type searchInput struct {
	ctx  context.Context
	text string
}

// Dashboard is the listing state. The product list is a local cache of the
// gateway's catalogue, filtered and sorted for the current query; mutations
// patch it in place and it can drift from upstream until the next refresh.
// All state changes go through mu.
type Dashboard struct {
	gateway Gateway
	logger  *zap.Logger
	search  *debounce.Debouncer[searchInput]

	mu       sync.Mutex
	query    Query
	fetchGen uint64
	products []domain.Product
	selected map[int64]struct{}
	editing  *int64

	// onSearch runs after a debounced search has been applied.
	onSearch func(Page, error)
}

type DashboardOption func(*Dashboard)

// WithSearchWindow overrides the search debounce window.
func WithSearchWindow(window time.Duration) DashboardOption {
	return func(d *Dashboard) {
		d.search = debounce.New(window, d.applySearch)
	}
}

// OnSearch registers a callback for debounced search results.
func OnSearch(fn func(Page, error)) DashboardOption {
	return func(d *Dashboard) {
		d.onSearch = fn
	}
}

func NewDashboard(gateway Gateway, logger *zap.Logger, opts ...DashboardOption) *Dashboard {
	d := &Dashboard{
		gateway:  gateway,
		logger:   logger,
		query:    DefaultQuery(),
		products: []domain.Product{},
		selected: make(map[int64]struct{}),
	}
	d.search = debounce.New(debounce.DefaultWindow, d.applySearch)
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Refresh refetches the catalogue and reprocesses it for the current query.
// A failed fetch is logged and leaves the list untouched.
func (d *Dashboard) Refresh(ctx context.Context) error {
	d.mu.Lock()
	gen := d.nextFetchLocked()
	d.mu.Unlock()
	return d.refresh(ctx, gen)
}

func (d *Dashboard) nextFetchLocked() uint64 {
	d.fetchGen++
	return d.fetchGen
}

// refresh stores the fetched list only if no later fetch has started since.
func (d *Dashboard) refresh(ctx context.Context, gen uint64) error {
	fetched, err := d.gateway.ListProducts(ctx)
	if err != nil {
		d.logger.Error("error fetching products", zap.Error(err))
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if gen != d.fetchGen {
		d.logger.Debug("dropping superseded product fetch", zap.Uint64("fetch", gen))
		return nil
	}
	d.products = Process(fetched, d.query)
	return nil
}

// View returns the visible page.
func (d *Dashboard) View() Page {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Paginate(d.products, d.query.Page)
}

func (d *Dashboard) Query() Query {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.query
}

// SetQuery replaces the whole query and refreshes.
func (d *Dashboard) SetQuery(ctx context.Context, q Query) (Page, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	return d.update(ctx, func(cur *Query) { *cur = q })
}

// SetSearch debounces text; the query changes once typing pauses.
func (d *Dashboard) SetSearch(ctx context.Context, text string) {
	d.search.Push(searchInput{ctx: ctx, text: text})
}

// FlushSearch applies a pending search immediately.
func (d *Dashboard) FlushSearch() {
	d.search.Flush()
}

func (d *Dashboard) SetSort(ctx context.Context, order SortOrder) (Page, error) {
	return d.update(ctx, func(q *Query) { q.Sort = order })
}

func (d *Dashboard) SetStock(ctx context.Context, filter StockFilter) (Page, error) {
	return d.update(ctx, func(q *Query) { q.Stock = filter })
}

// NextPage is a no-op on the last page.
func (d *Dashboard) NextPage(ctx context.Context) (Page, error) {
	if !d.View().HasNext {
		return d.View(), nil
	}
	return d.update(ctx, func(q *Query) { q.Page++ })
}

// PrevPage is a no-op on the first page.
func (d *Dashboard) PrevPage(ctx context.Context) (Page, error) {
	if !d.View().HasPrev {
		return d.View(), nil
	}
	return d.update(ctx, func(q *Query) { q.Page-- })
}

// Close stops any pending debounced search.
func (d *Dashboard) Close() {
	d.search.Stop()
}

func (d *Dashboard) applySearch(in searchInput) {
	page, err := d.update(in.ctx, func(q *Query) { q.Search = in.text })
	if d.onSearch != nil {
		d.onSearch(page, err)
	}
}

func (d *Dashboard) update(ctx context.Context, change func(*Query)) (Page, error) {
	d.mu.Lock()
	change(&d.query)
	gen := d.nextFetchLocked()
	d.mu.Unlock()

	err := d.refresh(ctx, gen)
	return d.View(), err
}

// Create validates the form, creates the product and appends it to the list
// without re-sorting.
func (d *Dashboard) Create(ctx context.Context, form ProductForm) (*domain.Product, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}

	created, err := d.gateway.CreateProduct(ctx, form.input())
	if err != nil {
		d.logger.Error("error creating product", zap.Error(err))
		return nil, err
	}

	d.mu.Lock()
	d.products = append(d.products, *created)
	d.mu.Unlock()
	return created, nil
}

// StartEdit marks id as being edited and returns the prefilled form.
func (d *Dashboard) StartEdit(id int64) (ProductForm, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, p := range d.products {
		if p.ID == id {
			d.editing = &id
			return FormFromProduct(p), true
		}
	}
	return ProductForm{}, false
}

func (d *Dashboard) CancelEdit() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.editing = nil
}

func (d *Dashboard) Editing() (int64, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.editing == nil {
		return 0, false
	}
	return *d.editing, true
}

// Update replaces the product in the list and ends editing.
func (d *Dashboard) Update(ctx context.Context, id int64, form ProductForm) (*domain.Product, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}

	updated, err := d.gateway.UpdateProduct(ctx, id, form.input())
	if err != nil {
		d.logger.Error("error updating product", zap.Int64("productId", id), zap.Error(err))
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.products {
		if d.products[i].ID == id {
			d.products[i] = *updated
		}
	}
	d.editing = nil
	return updated, nil
}

// Delete removes id from the list only when the gateway confirms.
func (d *Dashboard) Delete(ctx context.Context, id int64) error {
	if err := d.gateway.DeleteProduct(ctx, id); err != nil {
		d.logger.Error("error deleting product", zap.Int64("productId", id), zap.Error(err))
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.removeLocked(map[int64]struct{}{id: {}})
	return nil
}

func (d *Dashboard) Select(id int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.selected[id] = struct{}{}
}

func (d *Dashboard) Deselect(id int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.selected, id)
}

// Selected returns the selected ids in ascending order.
func (d *Dashboard) Selected() []int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.selectedLocked()
}

// BulkDelete deletes every selected product concurrently and waits for all
// calls. Successful deletes are removed from the list, each failure is logged,
// and the selection is cleared either way. Failures come back as a
// *errors.PartialBulkFailure.
func (d *Dashboard) BulkDelete(ctx context.Context) error {
	d.mu.Lock()
	ids := d.selectedLocked()
	d.mu.Unlock()

	var (
		g      errgroup.Group
		mu     sync.Mutex
		done   = make(map[int64]struct{}, len(ids))
		failed = make(map[int64]error)
	)
	for _, id := range ids {
		g.Go(func() error {
			err := d.gateway.DeleteProduct(ctx, id)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed[id] = err
				return nil
			}
			done[id] = struct{}{}
			return nil
		})
	}
	_ = g.Wait()

	for _, id := range sortedKeys(failed) {
		d.logger.Error("error deleting product in bulk", zap.Int64("productId", id), zap.Error(failed[id]))
	}

	d.mu.Lock()
	d.removeLocked(done)
	d.selected = make(map[int64]struct{})
	d.mu.Unlock()

	if len(failed) > 0 {
		return apperrors.NewPartialBulkFailure(failed)
	}
	return nil
}

func (d *Dashboard) removeLocked(ids map[int64]struct{}) {
	kept := d.products[:0:0]
	for _, p := range d.products {
		if _, gone := ids[p.ID]; !gone {
			kept = append(kept, p)
		}
	}
	d.products = kept
}

func (d *Dashboard) selectedLocked() []int64 {
	ids := make([]int64, 0, len(d.selected))
	for id := range d.selected {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func sortedKeys(m map[int64]error) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
