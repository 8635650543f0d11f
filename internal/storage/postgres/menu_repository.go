package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vladislavdragonenkov/bakery/internal/domain"
)

type menuRepository struct {
	db *sql.DB
}

// NewMenuRepository создаёт PostgreSQL-реализацию MenuRepository.
func NewMenuRepository(store *Store) domain.MenuRepository {
	return &menuRepository{db: store.DB()}
}

func (r *menuRepository) List(ctx context.Context) ([]domain.MenuItem, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, price, created_at
		FROM menu_items
		ORDER BY id
	`)
	if err != nil {
		return nil, domain.WrapStorage("list menu items", err)
	}
	return scanMenuItems(rows)
}

func (r *menuRepository) FindByIDs(ctx context.Context, ids []int64) ([]domain.MenuItem, error) {
	if len(ids) == 0 {
		return []domain.MenuItem{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, price, created_at
		FROM menu_items
		WHERE id = ANY($1)
		ORDER BY id
	`, ids)
	if err != nil {
		return nil, domain.WrapStorage("find menu items", err)
	}
	return scanMenuItems(rows)
}

func (r *menuRepository) Create(ctx context.Context, item domain.MenuItem) (domain.MenuItem, error) {
	if item.Price.IsNegative() {
		return domain.MenuItem{}, domain.NewValidationError("price", "price must be non-negative")
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO menu_items (name, price)
		VALUES ($1, $2)
		RETURNING id, created_at
	`, item.Name, item.Price).Scan(&item.ID, &item.CreatedAt)
	if err != nil {
		if isCheckViolation(err) {
			return domain.MenuItem{}, domain.NewValidationError("price", "price must be non-negative")
		}
		return domain.MenuItem{}, domain.WrapStorage("insert menu item", err)
	}

	return item, nil
}

func scanMenuItems(rows *sql.Rows) ([]domain.MenuItem, error) {
	defer rows.Close()

	items := make([]domain.MenuItem, 0)
	for rows.Next() {
		var item domain.MenuItem
		if err := rows.Scan(&item.ID, &item.Name, &item.Price, &item.CreatedAt); err != nil {
			return nil, domain.WrapStorage("scan menu item", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapStorage("iterate menu items", fmt.Errorf("rows: %w", err))
	}

	return items, nil
}

var _ domain.MenuRepository = (*menuRepository)(nil)
