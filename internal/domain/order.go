package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ItemSummarySeparator разделяет названия позиций в ItemSummary.
const ItemSummarySeparator = ", "

// Order - неизменяемая запись оформленного заказа.
//
// ItemSummary и TotalPrice - снимки на момент оформления: они не ссылаются
// на строки меню и не пересчитываются, если меню потом изменится.
type Order struct {
	ID           int64
	CustomerName string
	ItemSummary  string
	TotalPrice   decimal.Decimal
	CreatedAt    time.Time
}

// NewOrder собирает заказ из уже найденных позиций меню.
// Пустой набор позиций допустим: итог будет 0, а описание - пустым.
func NewOrder(customerName string, items []MenuItem) (Order, error) {
	customerName, err := NormalizeName("username", customerName)
	if err != nil {
		return Order{}, err
	}

	total := decimal.Zero
	names := make([]string, 0, len(items))
	for _, item := range items {
		total = total.Add(item.Price)
		names = append(names, item.Name)
	}

	return Order{
		CustomerName: customerName,
		ItemSummary:  strings.Join(names, ItemSummarySeparator),
		TotalPrice:   total,
	}, nil
}

// Items возвращает названия позиций из ItemSummary.
func (o Order) Items() []string {
	if o.ItemSummary == "" {
		return nil
	}
	return strings.Split(o.ItemSummary, ItemSummarySeparator)
}
