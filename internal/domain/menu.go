package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MenuItem - позиция каталога пекарни.
type MenuItem struct {
	// ID назначается хранилищем при создании и больше не меняется.
	ID    int64
	Name  string
	Price decimal.Decimal
	// CreatedAt фиксирует момент добавления позиции в меню.
	CreatedAt time.Time
}

// NewMenuItem проверяет имя и цену и возвращает позицию без ID.
// Имя не может содержать ItemSummarySeparator, иначе Order.Items не восстановит список.
func NewMenuItem(name string, price decimal.Decimal) (MenuItem, error) {
	name, err := NormalizeName("name", name)
	if err != nil {
		return MenuItem{}, err
	}
	if strings.Contains(name, ItemSummarySeparator) {
		return MenuItem{}, NewValidationError("name", `name must not contain ", "`)
	}
	if price.IsNegative() {
		return MenuItem{}, NewValidationError("price", "price must be non-negative")
	}
	if price.GreaterThan(MaxPrice) {
		return MenuItem{}, NewValidationError("price", "price must not exceed 9999999999.99")
	}
	return MenuItem{Name: name, Price: price}, nil
}
