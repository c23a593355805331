package listing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"shopdash/internal/domain"
	apperrors "shopdash/internal/errors"
	"shopdash/internal/gatewayclient"
)

type mockGateway struct {
	ListProductsFunc  func(ctx context.Context) ([]domain.Product, error)
	CreateProductFunc func(ctx context.Context, in gatewayclient.ProductInput) (*domain.Product, error)
	UpdateProductFunc func(ctx context.Context, id int64, in gatewayclient.ProductInput) (*domain.Product, error)
	DeleteProductFunc func(ctx context.Context, id int64) error
}

func (m *mockGateway) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return m.ListProductsFunc(ctx)
}

func (m *mockGateway) CreateProduct(ctx context.Context, in gatewayclient.ProductInput) (*domain.Product, error) {
	return m.CreateProductFunc(ctx, in)
}

func (m *mockGateway) UpdateProduct(ctx context.Context, id int64, in gatewayclient.ProductInput) (*domain.Product, error) {
	return m.UpdateProductFunc(ctx, id, in)
}

func (m *mockGateway) DeleteProduct(ctx context.Context, id int64) error {
	return m.DeleteProductFunc(ctx, id)
}

func listing(products ...domain.Product) func(ctx context.Context) ([]domain.Product, error) {
	return func(ctx context.Context) ([]domain.Product, error) {
		out := make([]domain.Product, len(products))
		copy(out, products)
		return out, nil
	}
}

func loadedDashboard(t *testing.T, gw *mockGateway, log *zap.Logger) *Dashboard {
	t.Helper()
	d := NewDashboard(gw, log)
	t.Cleanup(d.Close)
	require.NoError(t, d.Refresh(context.Background()))
	return d
}

var sample = []domain.Product{
	product(1, "Blue Mug", "12", intPtr(2)),
	product(2, "Red Mug", "8", intPtr(0)),
	product(3, "Cap", "20", intPtr(5)),
}

func TestRefresh_ProcessesForQuery(t *testing.T) {
	d := loadedDashboard(t, &mockGateway{ListProductsFunc: listing(sample...)}, zap.NewNop())

	page := d.View()

	assert.Equal(t, []int64{2, 1, 3}, ids(page.Items))
	assert.False(t, page.HasPrev)
	assert.False(t, page.HasNext)
}

func TestRefresh_FailureKeepsPreviousList(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	gw := &mockGateway{ListProductsFunc: listing(sample...)}
	d := loadedDashboard(t, gw, zap.New(core))

	gw.ListProductsFunc = func(ctx context.Context) ([]domain.Product, error) {
		return nil, errors.New("connection refused")
	}
	err := d.Refresh(context.Background())

	assert.Error(t, err)
	assert.Equal(t, []int64{2, 1, 3}, ids(d.View().Items))
	assert.Equal(t, 1, logs.FilterMessage("error fetching products").Len())
}

func TestRefresh_IsIdempotent(t *testing.T) {
	d := loadedDashboard(t, &mockGateway{ListProductsFunc: listing(sample...)}, zap.NewNop())
	first := ids(d.View().Items)

	require.NoError(t, d.Refresh(context.Background()))

	assert.Equal(t, first, ids(d.View().Items))
}

func TestRefresh_SupersededFetchIsDropped(t *testing.T) {
	var (
		mu      sync.Mutex
		calls   int
		started = make(chan struct{})
		release = make(chan struct{})
	)
	gw := &mockGateway{
		ListProductsFunc: func(ctx context.Context) ([]domain.Product, error) {
			mu.Lock()
			calls++
			n := calls
			mu.Unlock()
			if n == 2 {
				close(started)
				<-release
				return []domain.Product{sample[1]}, nil
			}
			return listing(sample...)(ctx)
		},
	}
	d := loadedDashboard(t, gw, zap.NewNop())

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = d.SetSort(context.Background(), SortDesc)
	}()
	<-started

	page, err := d.SetStock(context.Background(), StockInStock)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 1}, ids(page.Items))

	close(release)
	<-done
	assert.Equal(t, []int64{3, 1}, ids(d.View().Items))
}

func TestQueryChanges(t *testing.T) {
	d := loadedDashboard(t, &mockGateway{ListProductsFunc: listing(sample...)}, zap.NewNop())
	ctx := context.Background()

	page, err := d.SetSort(ctx, SortDesc)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 1, 2}, ids(page.Items))

	page, err = d.SetStock(ctx, StockOutOfStock)
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, ids(page.Items))

	assert.Equal(t, Query{Sort: SortDesc, Stock: StockOutOfStock, Page: 1}, d.Query())
}

func TestPaging(t *testing.T) {
	d := loadedDashboard(t, &mockGateway{ListProductsFunc: listing(catalogue(8)...)}, zap.NewNop())
	ctx := context.Background()

	page, err := d.PrevPage(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Number)

	page, err = d.NextPage(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Number)
	assert.Len(t, page.Items, 2)
	assert.False(t, page.HasNext)

	page, err = d.NextPage(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Number)
}

func TestSetSearch_Debounced(t *testing.T) {
	results := make(chan Page, 4)
	gw := &mockGateway{ListProductsFunc: listing(sample...)}
	d := NewDashboard(gw, zap.NewNop(),
		WithSearchWindow(20*time.Millisecond),
		OnSearch(func(p Page, err error) {
			assert.NoError(t, err)
			results <- p
		}),
	)
	t.Cleanup(d.Close)

	ctx := context.Background()
	d.SetSearch(ctx, "c")
	d.SetSearch(ctx, "ca")
	d.SetSearch(ctx, "cap")

	select {
	case page := <-results:
		assert.Equal(t, []int64{3}, ids(page.Items))
	case <-time.After(time.Second):
		t.Fatal("search was never applied")
	}
	assert.Equal(t, "cap", d.Query().Search)

	select {
	case <-results:
		t.Fatal("intermediate searches must be coalesced")
	case <-time.After(60 * time.Millisecond):
	}
}

func TestCreate_AppendsWithoutResort(t *testing.T) {
	var sent gatewayclient.ProductInput
	gw := &mockGateway{
		ListProductsFunc: listing(sample...),
		CreateProductFunc: func(ctx context.Context, in gatewayclient.ProductInput) (*domain.Product, error) {
			sent = in
			p := product(9, in.Title, in.Price, nil)
			return &p, nil
		},
	}
	d := loadedDashboard(t, gw, zap.NewNop())

	created, err := d.Create(context.Background(), ProductForm{Title: "Sticker", Price: "1"})

	require.NoError(t, err)
	assert.Equal(t, int64(9), created.ID)
	assert.Equal(t, gatewayclient.ProductInput{Title: "Sticker", Price: "1"}, sent)
	assert.Equal(t, []int64{2, 1, 3, 9}, ids(d.View().Items))
}

func TestCreate_InvalidFormNeverReachesGateway(t *testing.T) {
	gw := &mockGateway{
		ListProductsFunc: listing(sample...),
		CreateProductFunc: func(ctx context.Context, in gatewayclient.ProductInput) (*domain.Product, error) {
			t.Fatal("gateway must not be called")
			return nil, nil
		},
	}
	d := loadedDashboard(t, gw, zap.NewNop())

	_, err := d.Create(context.Background(), ProductForm{Title: "Sticker", Price: "0"})

	_, ok := apperrors.IsValidationError(err)
	assert.True(t, ok)
	assert.Len(t, d.View().Items, 3)
}

func TestUpdate_ReplacesAndClearsEditing(t *testing.T) {
	gw := &mockGateway{
		ListProductsFunc: listing(sample...),
		UpdateProductFunc: func(ctx context.Context, id int64, in gatewayclient.ProductInput) (*domain.Product, error) {
			p := product(id, in.Title, in.Price, intPtr(1))
			return &p, nil
		},
	}
	d := loadedDashboard(t, gw, zap.NewNop())

	form, ok := d.StartEdit(3)
	require.True(t, ok)
	assert.Equal(t, "Cap", form.Title)
	editing, ok := d.Editing()
	require.True(t, ok)
	assert.Equal(t, int64(3), editing)

	form.Title = "Wool Cap"
	_, err := d.Update(context.Background(), 3, form)
	require.NoError(t, err)

	_, ok = d.Editing()
	assert.False(t, ok)
	items := d.View().Items
	require.Len(t, items, 3)
	assert.Equal(t, "Wool Cap", items[2].Title)
}

func TestUpdate_FailureKeepsEditing(t *testing.T) {
	gw := &mockGateway{
		ListProductsFunc: listing(sample...),
		UpdateProductFunc: func(ctx context.Context, id int64, in gatewayclient.ProductInput) (*domain.Product, error) {
			return nil, &gatewayclient.StatusError{Status: 500, Message: "Failed to update product"}
		},
	}
	d := loadedDashboard(t, gw, zap.NewNop())
	form, _ := d.StartEdit(1)

	_, err := d.Update(context.Background(), 1, form)

	assert.Error(t, err)
	_, ok := d.Editing()
	assert.True(t, ok)
	assert.Equal(t, "Blue Mug", d.View().Items[1].Title)
}

func TestStartEdit_UnknownID(t *testing.T) {
	d := loadedDashboard(t, &mockGateway{ListProductsFunc: listing(sample...)}, zap.NewNop())

	_, ok := d.StartEdit(404)

	assert.False(t, ok)
}

func TestDelete_RemovesOnlyOnSuccess(t *testing.T) {
	gw := &mockGateway{
		ListProductsFunc: listing(sample...),
		DeleteProductFunc: func(ctx context.Context, id int64) error {
			if id == 2 {
				return &gatewayclient.StatusError{Status: 500, Message: "Failed to delete product"}
			}
			return nil
		},
	}
	d := loadedDashboard(t, gw, zap.NewNop())

	assert.Error(t, d.Delete(context.Background(), 2))
	assert.Equal(t, []int64{2, 1, 3}, ids(d.View().Items))

	require.NoError(t, d.Delete(context.Background(), 1))
	assert.Equal(t, []int64{2, 3}, ids(d.View().Items))
}

func TestBulkDelete_PartialFailure(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	var (
		mu    sync.Mutex
		calls []int64
	)
	gw := &mockGateway{
		ListProductsFunc: listing(sample...),
		DeleteProductFunc: func(ctx context.Context, id int64) error {
			mu.Lock()
			calls = append(calls, id)
			mu.Unlock()
			if id == 3 {
				return &gatewayclient.StatusError{Status: 500, Message: "Failed to delete product"}
			}
			return nil
		},
	}
	d := loadedDashboard(t, gw, zap.New(core))
	d.Select(1)
	d.Select(2)
	d.Select(3)

	err := d.BulkDelete(context.Background())

	pbf, ok := apperrors.IsPartialBulkFailure(err)
	require.True(t, ok)
	assert.Equal(t, []int64{3}, pbf.FailedIDs())
	assert.ElementsMatch(t, []int64{1, 2, 3}, calls)
	assert.Equal(t, []int64{3}, ids(d.View().Items))
	assert.Empty(t, d.Selected())

	failures := logs.FilterMessage("error deleting product in bulk").All()
	require.Len(t, failures, 1)
	assert.Equal(t, int64(3), failures[0].ContextMap()["productId"])
}

func TestBulkDelete_RunsConcurrently(t *testing.T) {
	var (
		wg  sync.WaitGroup
		all = make(chan struct{})
	)
	wg.Add(len(sample))
	go func() {
		wg.Wait()
		close(all)
	}()
	gw := &mockGateway{
		ListProductsFunc: listing(sample...),
		DeleteProductFunc: func(ctx context.Context, id int64) error {
			wg.Done()
			select {
			case <-all:
				return nil
			case <-time.After(2 * time.Second):
				return errors.New("deletes did not overlap")
			}
		},
	}
	d := loadedDashboard(t, gw, zap.NewNop())
	for _, p := range sample {
		d.Select(p.ID)
	}

	require.NoError(t, d.BulkDelete(context.Background()))
	assert.Empty(t, d.View().Items)
}

func TestBulkDelete_AllSucceed(t *testing.T) {
	gw := &mockGateway{
		ListProductsFunc:  listing(sample...),
		DeleteProductFunc: func(ctx context.Context, id int64) error { return nil },
	}
	d := loadedDashboard(t, gw, zap.NewNop())
	d.Select(1)
	d.Select(3)
	d.Select(1)
	d.Deselect(3)
	d.Select(3)

	require.NoError(t, d.BulkDelete(context.Background()))

	assert.Equal(t, []int64{2}, ids(d.View().Items))
	assert.Empty(t, d.Selected())
}

func TestBulkDelete_EmptySelection(t *testing.T) {
	gw := &mockGateway{
		ListProductsFunc: listing(sample...),
		DeleteProductFunc: func(ctx context.Context, id int64) error {
			t.Fatal("nothing selected")
			return nil
		},
	}
	d := loadedDashboard(t, gw, zap.NewNop())

	assert.NoError(t, d.BulkDelete(context.Background()))
	assert.Len(t, d.View().Items, 3)
}
