package checkout

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/bakery/internal/domain"
	"github.com/vladislavdragonenkov/bakery/internal/metrics"
)

// EventPublisher публикует события о сохранённых заказах.
type EventPublisher interface {
	PublishOrderPlaced(ctx context.Context, order domain.Order) error
}

// Service оформляет заказы и выдаёт счета.
type Service struct {
	menu      domain.MenuRepository
	orders    domain.OrderRepository
	publisher EventPublisher
	metrics   *metrics.ShopMetrics
	logger    *log.Entry
}

// NewService создаёт сервис оформления заказов без публикации событий.
func NewService(
	menu domain.MenuRepository,
	orders domain.OrderRepository,
	m *metrics.ShopMetrics,
	logger *log.Entry,
) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "checkout")
	}
	return &Service{
		menu:    menu,
		orders:  orders,
		metrics: m,
		logger:  logger,
	}
}

// NewServiceWithPublisher создаёт сервис, который после сохранения заказа публикует order.placed.
func NewServiceWithPublisher(
	menu domain.MenuRepository,
	orders domain.OrderRepository,
	publisher EventPublisher,
	m *metrics.ShopMetrics,
	logger *log.Entry,
) *Service {
	s := NewService(menu, orders, m, logger)
	s.publisher = publisher
	return s
}

// SubmitOrder превращает выбор покупателя в сохранённый заказ.
//
// Повторяющиеся id учитываются один раз, неизвестные id молча отбрасываются.
// Если ни одна позиция не найдена, заказ всё равно создаётся с нулевой суммой.
func (s *Service) SubmitOrder(ctx context.Context, customerName string, selectedItemIDs []int64) (domain.Order, error) {
	if _, err := domain.NormalizeName("username", customerName); err != nil {
		s.metrics.RecordCheckoutFailure(metrics.ReasonValidation)
		return domain.Order{}, err
	}

	ids := uniqueIDs(selectedItemIDs)

	items, err := s.menu.FindByIDs(ctx, ids)
	if err != nil {
		s.metrics.RecordCheckoutFailure(metrics.ReasonStorage)
		return domain.Order{}, fmt.Errorf("resolve menu items: %w", err)
	}

	order, err := domain.NewOrder(customerName, items)
	if err != nil {
		s.metrics.RecordCheckoutFailure(metrics.ReasonValidation)
		return domain.Order{}, err
	}

	logger := s.logger.WithFields(log.Fields{
		"customer":  order.CustomerName,
		"requested": len(selectedItemIDs),
		"matched":   len(items),
	})
	if len(items) == 0 {
		logger.Warn("order has no matching menu items, total is zero")
	}

	created, err := s.orders.Create(ctx, order)
	if err != nil {
		s.metrics.RecordCheckoutFailure(metrics.ReasonStorage)
		return domain.Order{}, fmt.Errorf("create order: %w", err)
	}

	s.metrics.RecordOrderPlaced(created.TotalPrice, len(items))
	logger.WithFields(log.Fields{
		"order_id": created.ID,
		"total":    created.TotalPrice.StringFixed(2),
	}).Info("order placed")

	s.publishOrderPlaced(ctx, created)

	return created, nil
}

// GetBill возвращает сохранённый заказ для страницы счёта.
func (s *Service) GetBill(ctx context.Context, orderID int64) (domain.Order, error) {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("get order %d: %w", orderID, err)
	}
	return order, nil
}

// publishOrderPlaced не влияет на результат оформления: заказ уже сохранён.
func (s *Service) publishOrderPlaced(ctx context.Context, order domain.Order) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishOrderPlaced(ctx, order); err != nil {
		s.metrics.RecordEventPublishFailure()
		s.logger.WithError(err).WithField("order_id", order.ID).Warn("failed to publish order.placed event")
	}
}

// ParseItemIDs разбирает значения item_ids из формы.
// Нечисловые значения пропускаются: как и неизвестный id, они ничему не соответствуют.
func ParseItemIDs(raw []string) []int64 {
	ids := make([]int64, 0, len(raw))
	for _, value := range raw {
		id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	unique := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	return unique
}
