package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"

	"github.com/vladislavdragonenkov/bakery/internal/domain"
	"github.com/vladislavdragonenkov/bakery/internal/metrics"
	"github.com/vladislavdragonenkov/bakery/internal/storage/memory"
)

type recordingPublisher struct {
	mu     sync.Mutex
	orders []domain.Order
	err    error
}

func (p *recordingPublisher) PublishOrderPlaced(_ context.Context, order domain.Order) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.orders = append(p.orders, order)
	return p.err
}

type failingOrderRepository struct {
	err error
}

func (r failingOrderRepository) Create(context.Context, domain.Order) (domain.Order, error) {
	return domain.Order{}, r.err
}

func (r failingOrderRepository) Get(context.Context, int64) (domain.Order, error) {
	return domain.Order{}, r.err
}

type failingMenuRepository struct {
	domain.MenuRepository
	err error
}

func (r failingMenuRepository) FindByIDs(context.Context, []int64) ([]domain.MenuItem, error) {
	return nil, r.err
}

type CheckoutSuite struct {
	suite.Suite

	menu      domain.MenuRepository
	orders    domain.OrderRepository
	publisher *recordingPublisher
	service   *Service

	croissant domain.MenuItem
	bagel     domain.MenuItem
}

func TestCheckoutSuite(t *testing.T) {
	suite.Run(t, new(CheckoutSuite))
}

func (s *CheckoutSuite) SetupTest() {
	s.menu = memory.NewMenuRepository()
	s.orders = memory.NewOrderRepository()
	s.publisher = &recordingPublisher{}
	s.service = NewServiceWithPublisher(
		s.menu,
		s.orders,
		s.publisher,
		metrics.NewShopMetricsWithRegisterer(prometheus.NewRegistry()),
		log.WithField("component", "checkout-test"),
	)

	var err error
	s.croissant, err = s.menu.Create(context.Background(), domain.MenuItem{Name: "Croissant", Price: decimal.RequireFromString("3.50")})
	s.Require().NoError(err)
	s.bagel, err = s.menu.Create(context.Background(), domain.MenuItem{Name: "Bagel", Price: decimal.RequireFromString("2.25")})
	s.Require().NoError(err)
}

func (s *CheckoutSuite) TestSubmitOrder_DuplicateIDsCountOnce() {
	ctx := context.Background()

	order, err := s.service.SubmitOrder(ctx, "alice", []int64{s.croissant.ID, s.bagel.ID, s.croissant.ID})
	s.Require().NoError(err)

	s.True(order.TotalPrice.Equal(decimal.RequireFromString("5.75")), "total %s", order.TotalPrice)
	s.Equal("$5.75", domain.FormatPrice(order.TotalPrice))
	s.ElementsMatch([]string{"Croissant", "Bagel"}, order.Items())
	s.Equal("alice", order.CustomerName)
	s.NotZero(order.ID)

	bill, err := s.service.GetBill(ctx, order.ID)
	s.Require().NoError(err)
	s.Equal(order.ID, bill.ID)
	s.Equal(order.CustomerName, bill.CustomerName)
	s.Equal(order.ItemSummary, bill.ItemSummary)
	s.True(order.TotalPrice.Equal(bill.TotalPrice))

	s.Require().Len(s.publisher.orders, 1)
	s.Equal(order.ID, s.publisher.orders[0].ID)
}

func (s *CheckoutSuite) TestSubmitOrder_EmptySelection() {
	order, err := s.service.SubmitOrder(context.Background(), "bob", nil)
	s.Require().NoError(err)

	s.True(order.TotalPrice.IsZero())
	s.Empty(order.ItemSummary)
	s.Nil(order.Items())
}

func (s *CheckoutSuite) TestSubmitOrder_UnknownIDsDropped() {
	order, err := s.service.SubmitOrder(context.Background(), "carol", []int64{404, 405})
	s.Require().NoError(err)
	s.True(order.TotalPrice.IsZero())
	s.Empty(order.ItemSummary)

	order, err = s.service.SubmitOrder(context.Background(), "carol", []int64{404, s.bagel.ID})
	s.Require().NoError(err)
	s.Equal("Bagel", order.ItemSummary)
	s.True(order.TotalPrice.Equal(decimal.RequireFromString("2.25")))
}

func (s *CheckoutSuite) TestSubmitOrder_SnapshotDecoupledFromMenu() {
	order, err := s.service.SubmitOrder(context.Background(), "dave", []int64{s.croissant.ID})
	s.Require().NoError(err)

	_, err = s.menu.Create(context.Background(), domain.MenuItem{Name: "Croissant", Price: decimal.RequireFromString("9.99")})
	s.Require().NoError(err)

	bill, err := s.service.GetBill(context.Background(), order.ID)
	s.Require().NoError(err)
	s.True(bill.TotalPrice.Equal(decimal.RequireFromString("3.50")))
}

func (s *CheckoutSuite) TestSubmitOrder_InvalidCustomer() {
	for _, name := range []string{"", "   "} {
		_, err := s.service.SubmitOrder(context.Background(), name, []int64{s.croissant.ID})
		s.True(domain.IsValidation(err), "name %q: %v", name, err)
	}
	s.Empty(s.publisher.orders)
}

func (s *CheckoutSuite) TestSubmitOrder_PublishFailureDoesNotFailCheckout() {
	s.publisher.err = errors.New("broker down")

	order, err := s.service.SubmitOrder(context.Background(), "erin", []int64{s.bagel.ID})
	s.Require().NoError(err)

	bill, err := s.service.GetBill(context.Background(), order.ID)
	s.Require().NoError(err)
	s.Equal("Bagel", bill.ItemSummary)
}

func (s *CheckoutSuite) TestSubmitOrder_StorageFailurePropagates() {
	storageErr := domain.WrapStorage("insert order", errors.New("database is locked"))
	svc := NewService(s.menu, failingOrderRepository{err: storageErr}, nil, nil)

	_, err := svc.SubmitOrder(context.Background(), "frank", []int64{s.croissant.ID})
	s.True(domain.IsStorage(err))
	s.ErrorIs(err, storageErr)
}

func (s *CheckoutSuite) TestSubmitOrder_MenuFailurePropagates() {
	svc := NewService(failingMenuRepository{err: domain.WrapStorage("find menu items", errors.New("io"))}, s.orders, nil, nil)

	_, err := svc.SubmitOrder(context.Background(), "grace", []int64{1})
	s.True(domain.IsStorage(err))
}

func (s *CheckoutSuite) TestGetBill_NotFound() {
	_, err := s.service.GetBill(context.Background(), 999)
	s.ErrorIs(err, domain.ErrOrderNotFound)
	s.True(domain.IsNotFound(err))
}

func TestParseItemIDs(t *testing.T) {
	ids := ParseItemIDs([]string{"1", " 2 ", "1"})
	if len(ids) != 3 || ids[0] != 1 || ids[1] != 2 || ids[2] != 1 {
		t.Fatalf("unexpected ids: %v", ids)
	}

	ids = ParseItemIDs([]string{"two", "1", "", "3.0", "99999999999999999999"})
	if len(ids) != 1 || ids[0] != 1 {
		t.Fatalf("expected unparseable values to be skipped, got %v", ids)
	}

	if ids := ParseItemIDs(nil); len(ids) != 0 {
		t.Fatalf("expected empty ids, got %v", ids)
	}
}

func TestUniqueIDs(t *testing.T) {
	got := uniqueIDs([]int64{3, 1, 3, 2, 1})
	want := []int64{3, 1, 2}
	if len(got) != len(want) {
		t.Fatalf("unexpected ids: %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected ids: %v", got)
		}
	}
}
