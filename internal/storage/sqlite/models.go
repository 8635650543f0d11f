package sqlite

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/bakery/internal/domain"
)

const (
	menuItemsTable = "menu_items"
	ordersTable    = "orders"
)

// Цены храним текстом: SQLite иначе приведёт их к REAL и потеряет точность.
type menuItemRow struct {
	ID        int64           `gorm:"primaryKey;autoIncrement"`
	Name      string          `gorm:"size:150;not null"`
	Price     decimal.Decimal `gorm:"type:text;not null"`
	CreatedAt time.Time
}

func (menuItemRow) TableName() string { return menuItemsTable }

func (r menuItemRow) toDomain() domain.MenuItem {
	return domain.MenuItem{
		ID:        r.ID,
		Name:      r.Name,
		Price:     r.Price,
		CreatedAt: r.CreatedAt,
	}
}

type orderRow struct {
	ID         int64           `gorm:"primaryKey;autoIncrement"`
	Username   string          `gorm:"size:150;not null"`
	Items      string          `gorm:"not null"`
	TotalPrice decimal.Decimal `gorm:"type:text;not null"`
	CreatedAt  time.Time
}

func (orderRow) TableName() string { return ordersTable }

func (r orderRow) toDomain() domain.Order {
	return domain.Order{
		ID:           r.ID,
		CustomerName: r.Username,
		ItemSummary:  r.Items,
		TotalPrice:   r.TotalPrice,
		CreatedAt:    r.CreatedAt,
	}
}
