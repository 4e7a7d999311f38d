package repository

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/debemdeboas/instaplanner/internal/cache"
	"github.com/debemdeboas/instaplanner/internal/model"
)

// MemoryItemRepository keeps records in process memory. It is used by tests
// and by the "memory" storage driver; nothing survives a restart.
type MemoryItemRepository struct { // implements ItemRepository
	// mu makes multi-record writes atomic, like a transaction.
	mu      sync.Mutex
	records *cache.Cache[model.ItemID, model.Record]

	now func() time.Time
}

func NewMemoryItemRepository() *MemoryItemRepository {
	return &MemoryItemRepository{
		records: cache.NewCache[model.ItemID, model.Record](),
		now:     time.Now,
	}
}

func (r *MemoryItemRepository) SaveItems(ctx context.Context, items []model.Item, container model.Container, positions []int) error {
	const op = "save items"

	if err := ctx.Err(); err != nil {
		return newPersistenceError(KindUpdateFailed, op, err)
	}
	if !container.Valid() {
		return newPersistenceError(KindUpdateFailed, op, errors.Errorf("invalid container %q", container))
	}
	if positions != nil && len(positions) != len(items) {
		return newPersistenceError(KindUpdateFailed, op, errors.Errorf("got %d positions for %d items", len(positions), len(items)))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	maxPosition := -1
	if positions == nil {
		for _, rec := range r.records.Values() {
			if rec.Container == container && rec.Position > maxPosition {
				maxPosition = rec.Position
			}
		}
	}

	now := r.now()
	for i, item := range items {
		position := maxPosition + 1 + i
		if positions != nil {
			position = positions[i]
		}

		payload := item.Payload
		if existing, ok := r.records.Get(item.ID); ok {
			payload = existing.Payload
		}

		r.records.Set(item.ID, model.Record{
			ID:        item.ID,
			Payload:   payload,
			Position:  position,
			Timestamp: now,
			Container: container,
		})
	}
	return nil
}

func (r *MemoryItemRepository) LoadAll(ctx context.Context) ([]model.Item, []model.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, newPersistenceError(KindLoadFailed, "load all", err)
	}

	r.mu.Lock()
	records := r.records.Values()
	r.mu.Unlock()

	slices.SortStableFunc(records, func(a, b model.Record) int {
		if c := cmp.Compare(a.Position, b.Position); c != 0 {
			return c
		}
		if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	grid := make([]model.Item, 0)
	sidebar := make([]model.Item, 0)
	for _, rec := range records {
		if rec.Container == model.Grid {
			grid = append(grid, rec.Item())
		} else {
			sidebar = append(sidebar, rec.Item())
		}
	}
	return grid, sidebar, nil
}

func (r *MemoryItemRepository) UpdatePositions(ctx context.Context, items []model.Item, container model.Container) error {
	const op = "update positions"

	if err := ctx.Err(); err != nil {
		return newPersistenceError(KindUpdateFailed, op, err)
	}
	if !container.Valid() {
		return newPersistenceError(KindUpdateFailed, op, errors.Errorf("invalid container %q", container))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i, item := range items {
		rec, ok := r.records.Get(item.ID)
		if !ok {
			continue
		}
		rec.Position = i
		rec.Container = container
		r.records.Set(item.ID, rec)
	}
	return nil
}

func (r *MemoryItemRepository) DeleteItem(ctx context.Context, id model.ItemID) error {
	if err := ctx.Err(); err != nil {
		return newPersistenceError(KindDeleteFailed, "delete item", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.records.Delete(id)
	return nil
}

func (r *MemoryItemRepository) ClearAll(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return newPersistenceError(KindClearFailed, "clear all", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.records.Clear()
	return nil
}

func (r *MemoryItemRepository) Count(ctx context.Context, container model.Container) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, newPersistenceError(KindLoadFailed, "count", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, rec := range r.records.Values() {
		if rec.Container == container {
			count++
		}
	}
	return count, nil
}

// Record returns the stored record for id.
func (r *MemoryItemRepository) Record(id model.ItemID) (model.Record, bool) {
	return r.records.Get(id)
}
