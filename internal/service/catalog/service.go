package catalog

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/bakery/internal/domain"
	"github.com/vladislavdragonenkov/bakery/internal/metrics"
)

// Service управляет каталогом пекарни: просмотр меню и добавление позиций.
type Service struct {
	menu    domain.MenuRepository
	metrics *metrics.ShopMetrics
	logger  *log.Entry
}

// NewService создаёт сервис каталога. metrics может быть nil.
func NewService(menu domain.MenuRepository, m *metrics.ShopMetrics, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "catalog")
	}
	return &Service{
		menu:    menu,
		metrics: m,
		logger:  logger,
	}
}

// ListMenu возвращает все позиции меню.
func (s *Service) ListMenu(ctx context.Context) ([]domain.MenuItem, error) {
	items, err := s.menu.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list menu: %w", err)
	}
	return items, nil
}

// AddMenuItem проверяет ввод формы и сохраняет новую позицию.
func (s *Service) AddMenuItem(ctx context.Context, name, rawPrice string) (domain.MenuItem, error) {
	price, err := domain.ParsePrice(rawPrice)
	if err != nil {
		s.metrics.RecordMenuAddFailure(metrics.ReasonValidation)
		return domain.MenuItem{}, err
	}

	item, err := domain.NewMenuItem(name, price)
	if err != nil {
		s.metrics.RecordMenuAddFailure(metrics.ReasonValidation)
		return domain.MenuItem{}, err
	}

	created, err := s.menu.Create(ctx, item)
	if err != nil {
		reason := metrics.ReasonStorage
		if domain.IsValidation(err) {
			reason = metrics.ReasonValidation
		}
		s.metrics.RecordMenuAddFailure(reason)
		return domain.MenuItem{}, fmt.Errorf("create menu item: %w", err)
	}

	s.metrics.RecordMenuItemAdded()
	s.logger.WithFields(log.Fields{
		"menu_item_id": created.ID,
		"name":         created.Name,
		"price":        created.Price.StringFixed(2),
	}).Info("menu item added")

	return created, nil
}
