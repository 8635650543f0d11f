package sqlite

import (
	"context"

	"gorm.io/gorm"

	"github.com/vladislavdragonenkov/bakery/internal/domain"
)

type menuRepository struct {
	db *gorm.DB
}

// NewMenuRepository создаёт SQLite-реализацию MenuRepository.
func NewMenuRepository(store *Store) domain.MenuRepository {
	return &menuRepository{db: store.DB()}
}

func (r *menuRepository) List(ctx context.Context) ([]domain.MenuItem, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var rows []menuItemRow
	if err := r.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, domain.WrapStorage("list menu items", err)
	}
	return menuItemsToDomain(rows), nil
}

func (r *menuRepository) FindByIDs(ctx context.Context, ids []int64) ([]domain.MenuItem, error) {
	if len(ids) == 0 {
		return []domain.MenuItem{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var rows []menuItemRow
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&rows).Error; err != nil {
		return nil, domain.WrapStorage("find menu items", err)
	}
	return menuItemsToDomain(rows), nil
}

func (r *menuRepository) Create(ctx context.Context, item domain.MenuItem) (domain.MenuItem, error) {
	if item.Price.IsNegative() {
		return domain.MenuItem{}, domain.NewValidationError("price", "price must be non-negative")
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	row := menuItemRow{
		Name:      item.Name,
		Price:     item.Price,
		CreatedAt: item.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return domain.MenuItem{}, domain.WrapStorage("insert menu item", err)
	}
	return row.toDomain(), nil
}

func menuItemsToDomain(rows []menuItemRow) []domain.MenuItem {
	items := make([]domain.MenuItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toDomain())
	}
	return items
}

var _ domain.MenuRepository = (*menuRepository)(nil)
