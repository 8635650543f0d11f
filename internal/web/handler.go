package web

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/bakery/internal/domain"
	"github.com/vladislavdragonenkov/bakery/internal/metrics"
)

// MenuCatalog - операции каталога, нужные страницам меню.
type MenuCatalog interface {
	ListMenu(ctx context.Context) ([]domain.MenuItem, error)
	AddMenuItem(ctx context.Context, name, rawPrice string) (domain.MenuItem, error)
}

// OrderDesk - операции оформления заказа и выдачи счёта.
type OrderDesk interface {
	SubmitOrder(ctx context.Context, customerName string, selectedItemIDs []int64) (domain.Order, error)
	GetBill(ctx context.Context, orderID int64) (domain.Order, error)
}

// Options настраивает публичный сайт.
type Options struct {
	// SecretKey подписывает flash-cookie.
	SecretKey string
	// AdminUser и AdminPasswordHash (bcrypt) включают Basic Auth для /add_menu_item.
	AdminUser         string
	AdminPasswordHash string
	// SecureCookies выставляет флаг Secure на cookie.
	SecureCookies bool
}

// Handler обслуживает страницы пекарни.
type Handler struct {
	catalog MenuCatalog
	orders  OrderDesk
	pages   *renderer
	flash   *flashStore
	logger  *log.Entry
}

// NewRouter собирает маршруты сайта и middleware. httpMetrics может быть nil.
func NewRouter(catalog MenuCatalog, orders OrderDesk, opts Options, httpMetrics *metrics.HTTPMetrics, logger *log.Entry) (http.Handler, error) {
	if catalog == nil || orders == nil {
		return nil, fmt.Errorf("web: catalog and orders are required")
	}
	if logger == nil {
		logger = log.WithField("component", "web")
	}
	if opts.SecretKey == "" {
		return nil, fmt.Errorf("web: secret key is required")
	}

	pages, err := newRenderer()
	if err != nil {
		return nil, err
	}

	h := &Handler{
		catalog: catalog,
		orders:  orders,
		pages:   pages,
		flash:   newFlashStore([]byte(opts.SecretKey), opts.SecureCookies),
		logger:  logger,
	}

	admin := basicAuth(opts.AdminUser, opts.AdminPasswordHash, h.unauthorized)

	router := mux.NewRouter()
	router.Use(instrumentRoutes(httpMetrics))

	router.HandleFunc("/", h.home).Methods(http.MethodGet)
	router.HandleFunc("/about", h.about).Methods(http.MethodGet)
	router.HandleFunc("/contact", h.contact).Methods(http.MethodGet)
	router.HandleFunc("/menu", h.menu).Methods(http.MethodGet)
	router.HandleFunc("/checkout", h.checkoutForm).Methods(http.MethodGet)
	router.HandleFunc("/checkout", h.checkoutSubmit).Methods(http.MethodPost)
	router.HandleFunc("/bill/{orderId:[0-9]+}", h.bill).Methods(http.MethodGet)
	router.Handle("/add_menu_item", admin(http.HandlerFunc(h.addMenuItemForm))).Methods(http.MethodGet)
	router.Handle("/add_menu_item", admin(http.HandlerFunc(h.addMenuItemSubmit))).Methods(http.MethodPost)

	router.NotFoundHandler = instrumentUnmatched(httpMetrics, "not_found", http.HandlerFunc(h.notFound))
	router.MethodNotAllowedHandler = instrumentUnmatched(httpMetrics, "method_not_allowed", http.HandlerFunc(h.methodNotAllowed))

	var root http.Handler = router
	root = recoverPanics(h.serverErrorPage)(root)
	root = logRequests(logger)(root)
	root = withRequestID(root)

	return root, nil
}
