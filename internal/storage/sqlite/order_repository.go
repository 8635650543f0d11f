package sqlite

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/vladislavdragonenkov/bakery/internal/domain"
)

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository создаёт SQLite-реализацию OrderRepository.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepository{db: store.DB()}
}

func (r *orderRepository) Create(ctx context.Context, order domain.Order) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	row := orderRow{
		Username:   order.CustomerName,
		Items:      order.ItemSummary,
		TotalPrice: order.TotalPrice,
		CreatedAt:  order.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return domain.Order{}, domain.WrapStorage("insert order", err)
	}
	return row.toDomain(), nil
}

func (r *orderRepository) Get(ctx context.Context, id int64) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var row orderRow
	err := r.db.WithContext(ctx).First(&row, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, domain.WrapStorage("select order", err)
	}
	return row.toDomain(), nil
}

var _ domain.OrderRepository = (*orderRepository)(nil)
