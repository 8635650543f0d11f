package web

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/vladislavdragonenkov/bakery/internal/domain"
	"github.com/vladislavdragonenkov/bakery/internal/metrics"
	"github.com/vladislavdragonenkov/bakery/internal/service/catalog"
	"github.com/vladislavdragonenkov/bakery/internal/service/checkout"
	"github.com/vladislavdragonenkov/bakery/internal/storage/memory"
)

const testSecret = "test-secret-key"

type site struct {
	server *httptest.Server
	client *http.Client
	menu   domain.MenuRepository
	orders domain.OrderRepository
}

func newSite(t *testing.T, opts Options) *site {
	t.Helper()

	menuRepo := memory.NewMenuRepository()
	orderRepo := memory.NewOrderRepository()
	shop := metrics.NewShopMetricsWithRegisterer(prometheus.NewRegistry())
	logger := log.WithField("component", "web-test")

	if opts.SecretKey == "" {
		opts.SecretKey = testSecret
	}

	handler, err := NewRouter(
		catalog.NewService(menuRepo, shop, logger),
		checkout.NewService(menuRepo, orderRepo, shop, logger),
		opts,
		metrics.NewHTTPMetricsWithRegisterer(prometheus.NewRegistry()),
		logger,
	)
	require.NoError(t, err)

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &site{
		server: server,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		menu:   menuRepo,
		orders: orderRepo,
	}
}

func (s *site) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()

	resp, err := s.client.Get(s.server.URL + path)
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

func (s *site) postForm(t *testing.T, path string, form url.Values) (*http.Response, string) {
	t.Helper()

	resp, err := s.client.PostForm(s.server.URL+path, form)
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()

	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestStaticPages(t *testing.T) {
	s := newSite(t, Options{})

	for path, marker := range map[string]string{
		"/":        "Welcome to Sweet Crumbs Bakery",
		"/about":   "About us",
		"/contact": "Contact",
	} {
		resp, body := s.get(t, path)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Contains(t, body, marker, path)
		assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
		assert.NotEmpty(t, resp.Header.Get(HeaderRequestID))
	}
}

func TestAddMenuItemThenCheckoutAndBill(t *testing.T) {
	s := newSite(t, Options{})

	resp, _ := s.postForm(t, "/add_menu_item", url.Values{"name": {"Croissant"}, "price": {"3.50"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/menu", resp.Header.Get("Location"))

	resp, body := s.get(t, "/menu")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Menu item added successfully!")
	assert.Contains(t, body, "Croissant")
	assert.Contains(t, body, "$3.50")

	resp, _ = s.postForm(t, "/add_menu_item", url.Values{"name": {"Bagel"}, "price": {"2.25"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	// flash показывается один раз
	_, body = s.get(t, "/menu")
	assert.Contains(t, body, "Menu item added successfully!")
	_, body = s.get(t, "/menu")
	assert.NotContains(t, body, "Menu item added successfully!")

	_, body = s.get(t, "/checkout")
	assert.Contains(t, body, `name="item_ids" value="1"`)
	assert.Contains(t, body, `name="item_ids" value="2"`)

	resp, _ = s.postForm(t, "/checkout", url.Values{
		"username": {"alice"},
		"item_ids": {"1", "2", "1"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	location := resp.Header.Get("Location")
	require.True(t, strings.HasPrefix(location, "/bill/"), location)

	resp, body = s.get(t, location)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Order placed successfully! Total: $5.75")
	assert.Contains(t, body, "Customer: alice")
	assert.Contains(t, body, "Items: Croissant, Bagel")
	assert.Contains(t, body, "Total: $5.75")
}

func TestCheckout_EmptySelectionCreatesZeroOrder(t *testing.T) {
	s := newSite(t, Options{})

	resp, _ := s.postForm(t, "/checkout", url.Values{"username": {"bob"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	_, body := s.get(t, resp.Header.Get("Location"))
	assert.Contains(t, body, "Order placed successfully! Total: $0.00")
	assert.Contains(t, body, "No items.")
}

func TestCheckout_ValidationRerendersForm(t *testing.T) {
	s := newSite(t, Options{})

	resp, body := s.postForm(t, "/checkout", url.Values{"username": {"   "}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "username is required")
	assert.Contains(t, body, `action="/checkout"`)

	resp, body = s.postForm(t, "/checkout", url.Values{"username": {"   "}, "item_ids": {"1"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "username is required")
}

func TestCheckout_UnparseableItemIDsMatchNothing(t *testing.T) {
	s := newSite(t, Options{})

	resp, _ := s.postForm(t, "/add_menu_item", url.Values{"name": {"Croissant"}, "price": {"3.50"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp, _ = s.postForm(t, "/checkout", url.Values{"username": {"carol"}, "item_ids": {"abc", "1", "1.5", ""}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	_, body := s.get(t, resp.Header.Get("Location"))
	assert.Contains(t, body, "Customer: carol")
	assert.Contains(t, body, "Items: Croissant")
	assert.Contains(t, body, "Total: $3.50")
}

func TestAddMenuItem_ValidationRerendersForm(t *testing.T) {
	s := newSite(t, Options{})

	resp, body := s.postForm(t, "/add_menu_item", url.Values{"name": {"Muffin"}, "price": {"abc"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "price must be a number")
	assert.Contains(t, body, `value="Muffin"`)

	for _, form := range []url.Values{
		{"name": {"Muffin"}, "price": {"1e50000000"}},
		{"name": {"Muffin"}, "price": {"10000000000"}},
		{"name": {"Bread, rye"}, "price": {"4"}},
	} {
		resp, _ = s.postForm(t, "/add_menu_item", form)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, form.Encode())
	}

	items, err := s.menu.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestBill_RendersSummaryAsStored(t *testing.T) {
	s := newSite(t, Options{})

	order, err := s.orders.Create(context.Background(), domain.Order{
		CustomerName: "dave",
		ItemSummary:  "Bread, rye, Bagel",
		TotalPrice:   decimal.RequireFromString("6.25"),
	})
	require.NoError(t, err)

	_, body := s.get(t, "/bill/"+strconv.FormatInt(order.ID, 10))
	assert.Contains(t, body, "Items: Bread, rye, Bagel")
	assert.NotContains(t, body, "<li>")
}

func TestBill_NotFound(t *testing.T) {
	s := newSite(t, Options{})

	for _, path := range []string{"/bill/42", "/bill/abc", "/bill/99999999999999999999", "/nowhere"} {
		resp, body := s.get(t, path)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
		assert.Contains(t, body, "does not exist", path)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s := newSite(t, Options{})

	req, err := http.NewRequest(http.MethodDelete, s.server.URL+"/menu", nil)
	require.NoError(t, err)
	resp, err := s.client.Do(req)
	require.NoError(t, err)
	body := readBody(t, resp)

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Contains(t, body, "not allowed")
}

func TestAddMenuItem_AdminBasicAuth(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	s := newSite(t, Options{AdminUser: "admin", AdminPasswordHash: string(hash)})

	resp, _ := s.get(t, "/add_menu_item")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("WWW-Authenticate"), "Basic")

	form := url.Values{"name": {"Scone"}, "price": {"1.75"}}
	req, err := http.NewRequest(http.MethodPost, s.server.URL+"/add_menu_item", strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth("admin", "wrong")
	resp, err = s.client.Do(req)
	require.NoError(t, err)
	readBody(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err = http.NewRequest(http.MethodPost, s.server.URL+"/add_menu_item", strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth("admin", "s3cret")
	resp, err = s.client.Do(req)
	require.NoError(t, err)
	readBody(t, resp)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp, _ = s.get(t, "/menu")
	assert.Equal(t, http.StatusOK, resp.StatusCode, "public pages stay open")
}

type brokenCatalog struct{}

func (brokenCatalog) ListMenu(context.Context) ([]domain.MenuItem, error) {
	return nil, domain.WrapStorage("list menu items", errors.New("database is locked"))
}

func (brokenCatalog) AddMenuItem(context.Context, string, string) (domain.MenuItem, error) {
	panic("boom")
}

type brokenOrders struct{}

func (brokenOrders) SubmitOrder(context.Context, string, []int64) (domain.Order, error) {
	return domain.Order{}, domain.WrapStorage("insert order", errors.New("disk full"))
}

func (brokenOrders) GetBill(context.Context, int64) (domain.Order, error) {
	return domain.Order{}, domain.WrapStorage("select order", errors.New("disk full"))
}

func TestStorageErrorsRenderServerError(t *testing.T) {
	handler, err := NewRouter(brokenCatalog{}, brokenOrders{}, Options{SecretKey: testSecret}, nil, log.WithField("component", "web-test"))
	require.NoError(t, err)

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/menu", nil),
		httptest.NewRequest(http.MethodGet, "/bill/1", nil),
		newFormRequest("/checkout", url.Values{"username": {"dave"}}),
		newFormRequest("/add_menu_item", url.Values{"name": {"x"}, "price": {"1"}}),
	} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code, req.URL.Path)
		assert.Contains(t, rec.Body.String(), "Something went wrong", req.URL.Path)
		assert.NotContains(t, rec.Body.String(), "disk full", req.URL.Path)
	}
}

func TestNewRouter_RequiresDependencies(t *testing.T) {
	_, err := NewRouter(nil, brokenOrders{}, Options{SecretKey: testSecret}, nil, nil)
	assert.Error(t, err)

	_, err = NewRouter(brokenCatalog{}, brokenOrders{}, Options{}, nil, nil)
	assert.Error(t, err)
}

func newFormRequest(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}
