package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "shopdash/internal/errors"
	"shopdash/internal/session"
)

const catalogueBody = `{"products":[
	{"id":1,"title":"Blue Mug","variants":[{"price":"12.00"}],"stock":2},
	{"id":2,"title":"Red Mug","variants":[{"price":"8.00"}],"stock":0},
	{"id":3,"title":"Cap","variants":[{"price":"20.00"}],"stock":5}
]}`

type fakeGateway struct {
	mu      sync.Mutex
	deleted []string
	srv     *httptest.Server
}

func newFakeGateway(t *testing.T) *fakeGateway {
	t.Helper()
	g := &fakeGateway{}
	g.srv = httptest.NewServer(http.HandlerFunc(g.serve))
	t.Cleanup(g.srv.Close)
	return g
}

func (g *fakeGateway) serve(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/api/products":
		_, _ = w.Write([]byte(catalogueBody))
	case r.Method == http.MethodPost && r.URL.Path == "/api/products":
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"product":{"id":9,"title":"Product Name","variants":[{"price":"1.00"}]}}`))
	case r.Method == http.MethodDelete:
		id := strings.TrimPrefix(r.URL.Path, "/api/products/")
		g.mu.Lock()
		g.deleted = append(g.deleted, id)
		g.mu.Unlock()
		if id == "3" {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"Failed to delete product","code":"UPSTREAM_ERROR"}`))
			return
		}
		_, _ = w.Write([]byte(`{"message":"Product ` + id + ` deleted successfully"}`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type cli struct {
	gateway string
	prefs   string
}

func newCLI(t *testing.T) (*cli, *fakeGateway) {
	g := newFakeGateway(t)
	return &cli{gateway: g.srv.URL, prefs: filepath.Join(t.TempDir(), "prefs.yaml")}, g
}

func (c *cli) run(args ...string) (string, error) {
	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--gateway", c.gateway, "--prefs", c.prefs, "--log-level", "error"}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestList_RequiresLogin(t *testing.T) {
	c, _ := newCLI(t)

	_, err := c.run("list")

	assert.ErrorIs(t, err, session.ErrNotLoggedIn)
}

func TestLoginListLogout(t *testing.T) {
	c, _ := newCLI(t)

	out, err := c.run("login", "--shop", "demo.myshopify.com")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in to demo.myshopify.com")

	out, err = c.run("list", "--search", "MUG", "--sort", "desc")
	require.NoError(t, err)
	assert.Contains(t, out, "demo.myshopify.com")
	blue := strings.Index(out, "Blue Mug")
	red := strings.Index(out, "Red Mug")
	require.True(t, blue >= 0 && red >= 0)
	assert.Less(t, blue, red)
	assert.NotContains(t, out, "Cap")

	_, err = c.run("logout")
	require.NoError(t, err)
	_, err = c.run("list")
	assert.ErrorIs(t, err, session.ErrNotLoggedIn)
}

func TestList_RejectsUnknownSort(t *testing.T) {
	c, _ := newCLI(t)
	_, err := c.run("login", "--shop", "demo.myshopify.com")
	require.NoError(t, err)

	_, err = c.run("list", "--sort", "price")

	assert.Error(t, err)
}

func TestList_HugePageIsEmpty(t *testing.T) {
	c, _ := newCLI(t)
	_, err := c.run("login", "--shop", "demo.myshopify.com")
	require.NoError(t, err)

	out, err := c.run("list", "--page", "3074457345618258602")

	require.NoError(t, err)
	assert.Contains(t, out, "No products to show.")
	assert.NotContains(t, out, "Blue Mug")
}

func TestCreate_UsesFormDefaults(t *testing.T) {
	c, _ := newCLI(t)
	_, err := c.run("login", "--shop", "demo.myshopify.com")
	require.NoError(t, err)

	out, err := c.run("create")

	require.NoError(t, err)
	assert.Contains(t, out, `Created "Product Name"`)
}

func TestCreate_InvalidPrice(t *testing.T) {
	c, _ := newCLI(t)
	_, err := c.run("login", "--shop", "demo.myshopify.com")
	require.NoError(t, err)

	out, err := c.run("create", "--title", "Mug", "--price", "-3")

	_, ok := apperrors.IsValidationError(err)
	assert.True(t, ok)
	assert.Contains(t, out, "price: Price must be a positive number")
}

func TestDelete_ManyIsBulk(t *testing.T) {
	c, g := newCLI(t)
	_, err := c.run("login", "--shop", "demo.myshopify.com")
	require.NoError(t, err)

	out, err := c.run("delete", "1", "2", "3")

	pbf, ok := apperrors.IsPartialBulkFailure(err)
	require.True(t, ok)
	assert.Equal(t, []int64{3}, pbf.FailedIDs())
	assert.Contains(t, out, "Product 1 deleted")
	assert.Contains(t, out, "Product 2 deleted")
	assert.ElementsMatch(t, []string{"1", "2", "3"}, g.deleted)
}

func TestThemeToggle(t *testing.T) {
	c, _ := newCLI(t)

	out, err := c.run("theme")
	require.NoError(t, err)
	assert.Contains(t, out, "Theme: light")

	out, err = c.run("theme", "toggle")
	require.NoError(t, err)
	assert.Contains(t, out, "Theme: dark")

	out, err = c.run("theme")
	require.NoError(t, err)
	assert.Contains(t, out, "Theme: dark")
}

func TestWatch_DebouncedSearchFromInput(t *testing.T) {
	c, _ := newCLI(t)
	_, err := c.run("login", "--shop", "demo.myshopify.com")
	require.NoError(t, err)

	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetIn(strings.NewReader("c\nca\ncap\n"))
	root.SetArgs([]string{"--gateway", c.gateway, "--prefs", c.prefs, "--log-level", "error", "watch"})

	require.NoError(t, root.ExecuteContext(context.Background()))

	assert.Contains(t, out.String(), `search="cap"`)
	assert.NotContains(t, out.String(), `search="ca"`)
}

func TestReadLines_StopsWhenContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	lines := make(chan string)
	done := make(chan struct{})
	go func() {
		defer close(done)
		readLines(ctx, strings.NewReader(":q\nstill\nbuffered\n"), lines)
	}()

	assert.Equal(t, ":q", <-lines)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reader still blocked after cancel")
	}
	_, ok := <-lines
	assert.False(t, ok)
}
