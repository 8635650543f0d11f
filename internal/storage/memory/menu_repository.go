package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/bakery/internal/domain"
)

// menuRepositoryInMemory хранит каталог в map, ID выдаются по возрастанию.
type menuRepositoryInMemory struct {
	mu     sync.RWMutex
	nextID int64
	items  map[int64]domain.MenuItem
}

// NewMenuRepository возвращает in-memory каталог.
func NewMenuRepository() domain.MenuRepository {
	return &menuRepositoryInMemory{
		items: make(map[int64]domain.MenuItem),
	}
}

func (r *menuRepositoryInMemory) List(ctx context.Context) ([]domain.MenuItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.WrapStorage("list menu items", err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.MenuItem, 0, len(r.items))
	for _, item := range r.items {
		result = append(result, item)
	}
	sortByID(result)
	return result, nil
}

func (r *menuRepositoryInMemory) FindByIDs(ctx context.Context, ids []int64) ([]domain.MenuItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.WrapStorage("find menu items", err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[int64]struct{}, len(ids))
	result := make([]domain.MenuItem, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if item, ok := r.items[id]; ok {
			result = append(result, item)
		}
	}
	sortByID(result)
	return result, nil
}

func (r *menuRepositoryInMemory) Create(ctx context.Context, item domain.MenuItem) (domain.MenuItem, error) {
	if err := ctx.Err(); err != nil {
		return domain.MenuItem{}, domain.WrapStorage("create menu item", err)
	}
	if item.Price.IsNegative() {
		return domain.MenuItem{}, domain.NewValidationError("price", "price must be non-negative")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	item.ID = r.nextID
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	r.items[item.ID] = item
	return item, nil
}

func sortByID(items []domain.MenuItem) {
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
}

var _ domain.MenuRepository = (*menuRepositoryInMemory)(nil)
