package domain

import "context"

// MenuRepository описывает требования к хранилищу каталога.
type MenuRepository interface {
	// List возвращает все позиции меню. Порядок вызывающим не гарантируется.
	List(ctx context.Context) ([]MenuItem, error)
	// FindByIDs возвращает существующие позиции из ids; неизвестные ID молча пропускаются.
	FindByIDs(ctx context.Context, ids []int64) ([]MenuItem, error)
	// Create сохраняет позицию и возвращает её с назначенным ID.
	Create(ctx context.Context, item MenuItem) (MenuItem, error)
}

// OrderRepository описывает требования к хранилищу заказов.
type OrderRepository interface {
	// Create сохраняет новый заказ и возвращает его с назначенным ID.
	Create(ctx context.Context, order Order) (Order, error)
	// Get возвращает заказ по идентификатору или ErrOrderNotFound, если его нет.
	Get(ctx context.Context, id int64) (Order, error)
}
