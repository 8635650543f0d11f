package kafka

import (
	"strconv"
	"time"

	"github.com/vladislavdragonenkov/bakery/internal/domain"
)

// EventType определяет тип события
type EventType string

const (
	EventTypeOrderPlaced EventType = "order.placed"
)

// TopicOrderEvents топик по умолчанию для событий заказов.
const TopicOrderEvents = "bakery.order.events"

// HeaderEventType дублирует тип события в заголовке сообщения.
const HeaderEventType = "x-event-type"

// OrderPlacedEvent публикуется после сохранения заказа.
// Цена передаётся строкой, чтобы не терять точность.
type OrderPlacedEvent struct {
	EventType    EventType `json:"event_type"`
	OrderID      int64     `json:"order_id"`
	CustomerName string    `json:"customer_name"`
	Items        []string  `json:"items"`
	TotalPrice   string    `json:"total_price"`
	Timestamp    time.Time `json:"timestamp"`
}

// NewOrderPlacedEvent собирает событие из сохранённого заказа.
func NewOrderPlacedEvent(order domain.Order) OrderPlacedEvent {
	items := order.Items()
	if items == nil {
		items = []string{}
	}

	ts := order.CreatedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	return OrderPlacedEvent{
		EventType:    EventTypeOrderPlaced,
		OrderID:      order.ID,
		CustomerName: order.CustomerName,
		Items:        items,
		TotalPrice:   order.TotalPrice.StringFixed(2),
		Timestamp:    ts,
	}
}

// Key возвращает ключ партиционирования.
func (e OrderPlacedEvent) Key() string {
	return strconv.FormatInt(e.OrderID, 10)
}
