// Package gallery owns the two ordered collections, the grid and the sidebar,
// and mirrors every change to the item store.
package gallery

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/instaplanner/internal/model"
	"github.com/debemdeboas/instaplanner/internal/notify"
	"github.com/debemdeboas/instaplanner/internal/repository"
)

const DefaultMaxItems = 100

// Manager holds the in-memory collections. Every mutation updates memory
// synchronously and queues the matching store write; memory is never rolled
// back when a write fails.
type Manager struct {
	mu      sync.RWMutex
	grid    []model.Item
	sidebar []model.Item

	repo     repository.ItemRepository
	notifier notify.Notifier
	logger   zerolog.Logger
	maxItems int
	rand     *rand.Rand

	writes *writeQueue
}

type Option func(*Manager)

func WithMaxItems(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxItems = n
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// WithRand sets the source used by Shuffle.
func WithRand(r *rand.Rand) Option {
	return func(m *Manager) {
		if r != nil {
			m.rand = r
		}
	}
}

func New(repo repository.ItemRepository, notifier notify.Notifier, opts ...Option) *Manager {
	if notifier == nil {
		notifier = notify.Discard
	}

	m := &Manager{
		grid:     make([]model.Item, 0),
		sidebar:  make([]model.Item, 0),
		repo:     repo,
		notifier: notifier,
		logger:   zerolog.Nop(),
		maxItems: DefaultMaxItems,
		rand:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.writes = newWriteQueue(m.persistFailed)
	return m
}

// Load replaces both collections with the contents of the store.
func (m *Manager) Load(ctx context.Context) error {
	grid, sidebar, err := m.repo.LoadAll(ctx)
	if err != nil {
		m.persistFailed("load all", err)
		return err
	}

	m.mu.Lock()
	m.grid = grid
	m.sidebar = sidebar
	m.mu.Unlock()

	m.logger.Info().Int("grid", len(grid)).Int("sidebar", len(sidebar)).Msg("Collections loaded")

	if total := len(grid) + len(sidebar); total > 0 {
		m.notify(notify.VariantDefault, "Images loaded", fmt.Sprintf("Loaded %d images from storage.", total))
	}
	return nil
}

// AddItems prepends items to target and returns the items that were actually
// added. Items whose id is empty or already present in either container are skipped.
func (m *Manager) AddItems(items []model.Item, target model.Container) ([]model.Item, error) {
	if !target.Valid() {
		return nil, fmt.Errorf("%w: cannot add items to %q", ErrInvalidOperation, target)
	}

	m.mu.Lock()

	fresh := make([]model.Item, 0, len(items))
	seen := make(map[model.ItemID]bool, len(items))
	for _, item := range items {
		if item.ID == "" || seen[item.ID] {
			continue
		}
		if c, _ := m.locate(item.ID); c != "" {
			continue
		}
		seen[item.ID] = true
		fresh = append(fresh, item)
	}

	list := m.list(target)
	if len(*list)+len(fresh) > m.maxItems {
		size := len(*list)
		m.mu.Unlock()

		m.notify(notify.VariantDestructive, "Too many images", fmt.Sprintf("Maximum %d images allowed.", m.maxItems))
		return nil, fmt.Errorf("%w: %s holds %d, adding %d would exceed %d", ErrCapacityExceeded, target, size, len(fresh), m.maxItems)
	}
	if len(fresh) == 0 {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: no new items to add", ErrInvalidOperation)
	}

	*list = prepend(*list, fresh...)
	m.enqueueSave(target, *list)
	m.mu.Unlock()

	m.notify(notify.VariantDefault, "Images added successfully",
		fmt.Sprintf("%d image(s) have been added to the %s.", len(fresh), target))
	return fresh, nil
}

func (m *Manager) DeleteItem(id model.ItemID, container model.Container) error {
	if !container.Valid() {
		return fmt.Errorf("%w: cannot delete from %q", ErrInvalidOperation, container)
	}

	m.mu.Lock()
	list := m.list(container)
	idx := model.IndexOf(*list, id)
	if idx == -1 {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s in %s", ErrNotFound, id, container)
	}

	*list = removeAt(*list, idx)
	m.enqueueDelete(id)
	m.enqueueUpdatePositions(container, *list)
	m.mu.Unlock()

	m.notify(notify.VariantDefault, "Image deleted", fmt.Sprintf("The image has been removed from the %s.", container))
	return nil
}

// MoveItem removes id from one container and prepends it to the other.
func (m *Manager) MoveItem(id model.ItemID, from, to model.Container) error {
	if !from.Valid() || !to.Valid() || from == to {
		return fmt.Errorf("%w: cannot move from %q to %q", ErrInvalidOperation, from, to)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	src := m.list(from)
	idx := model.IndexOf(*src, id)
	if idx == -1 {
		return fmt.Errorf("%w: %s in %s", ErrNotFound, id, from)
	}

	item := (*src)[idx]
	*src = removeAt(*src, idx)
	dst := m.list(to)
	*dst = prepend(*dst, item)

	m.enqueueSave(from, *src)
	m.enqueueSave(to, *dst)

	m.logger.Debug().Str("id", string(id)).Str("from", string(from)).Str("to", string(to)).Msg("Item moved")
	return nil
}

// MoveAll prepends every item of from to to, keeping their relative order.
func (m *Manager) MoveAll(from, to model.Container) error {
	if !from.Valid() || !to.Valid() || from == to {
		return fmt.Errorf("%w: cannot move from %q to %q", ErrInvalidOperation, from, to)
	}

	m.mu.Lock()
	src := m.list(from)
	if len(*src) == 0 {
		m.mu.Unlock()
		m.notify(notify.VariantDefault, "No images to move", fmt.Sprintf("The %s is empty.", from))
		return fmt.Errorf("%w: %s is empty", ErrInvalidOperation, from)
	}

	moved := *src
	dst := m.list(to)
	*dst = prepend(*dst, moved...)
	*src = make([]model.Item, 0)
	m.enqueueSave(to, *dst)
	m.mu.Unlock()

	m.notify(notify.VariantDefault, "Images moved", fmt.Sprintf("%d image(s) moved to the %s.", len(moved), to))
	return nil
}

func (m *Manager) Reorder(container model.Container, oldIndex, newIndex int, mode Mode) error {
	if !container.Valid() {
		return fmt.Errorf("%w: cannot reorder %q", ErrInvalidOperation, container)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reorderLocked(container, oldIndex, newIndex, mode)
}

func (m *Manager) reorderLocked(container model.Container, oldIndex, newIndex int, mode Mode) error {
	list := m.list(container)
	n := len(*list)
	if oldIndex < 0 || oldIndex >= n || newIndex < 0 || newIndex >= n {
		return fmt.Errorf("%w: index %d -> %d out of range for %s of length %d", ErrInvalidOperation, oldIndex, newIndex, container, n)
	}
	if oldIndex == newIndex {
		return nil
	}

	if mode == ModeSlide {
		*list = arrayMove(*list, oldIndex, newIndex)
	} else {
		*list = swapped(*list, oldIndex, newIndex)
	}
	m.enqueueUpdatePositions(container, *list)

	m.logger.Debug().
		Str("container", string(container)).
		Int("from", oldIndex).
		Int("to", newIndex).
		Stringer("mode", mode).
		Msg("Container reordered")
	return nil
}

// SwapAcrossContainers exchanges the slots of two items. When both live in the
// same container it is a plain swap reorder.
func (m *Manager) SwapAcrossContainers(sourceID, targetID model.ItemID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sc, si := m.locate(sourceID)
	if sc == "" {
		return fmt.Errorf("%w: %s", ErrNotFound, sourceID)
	}
	tc, ti := m.locate(targetID)
	if tc == "" {
		return fmt.Errorf("%w: %s", ErrNotFound, targetID)
	}

	if sc == tc {
		return m.reorderLocked(sc, si, ti, ModeSwap)
	}

	src := m.list(sc)
	dst := m.list(tc)
	source := (*src)[si]
	target := (*dst)[ti]

	*src = slices.Clone(*src)
	*dst = slices.Clone(*dst)
	(*src)[si] = target
	(*dst)[ti] = source

	m.enqueueSave(model.Grid, m.grid)
	m.enqueueSave(model.Sidebar, m.sidebar)

	m.logger.Debug().Str("source", string(sourceID)).Str("target", string(targetID)).Msg("Items swapped across containers")
	return nil
}

// Shuffle randomly permutes container with Fisher-Yates.
func (m *Manager) Shuffle(container model.Container) error {
	if !container.Valid() {
		return fmt.Errorf("%w: cannot shuffle %q", ErrInvalidOperation, container)
	}

	m.mu.Lock()
	list := m.list(container)
	n := len(*list)
	if n < 2 {
		m.mu.Unlock()
		m.notify(notify.VariantDefault, "Cannot shuffle", "Need at least two images to shuffle.")
		return fmt.Errorf("%w: need at least two items to shuffle, %s has %d", ErrInvalidOperation, container, n)
	}

	shuffled := slices.Clone(*list)
	for i := n - 1; i > 0; i-- {
		j := m.rand.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	*list = shuffled
	m.enqueueSave(container, shuffled)
	m.mu.Unlock()

	m.notify(notify.VariantDefault, "Images shuffled", fmt.Sprintf("%d %s images have been randomly rearranged.", n, container))
	return nil
}

func (m *Manager) Clear(container model.Container) error {
	if !container.Valid() {
		return fmt.Errorf("%w: cannot clear %q", ErrInvalidOperation, container)
	}

	m.mu.Lock()
	list := m.list(container)
	removed := *list
	*list = make([]model.Item, 0)
	for _, item := range removed {
		m.enqueueDelete(item.ID)
	}
	m.mu.Unlock()

	m.notify(notify.VariantDefault, container.Title()+" cleared",
		fmt.Sprintf("%d images in the %s have been removed.", len(removed), container))
	return nil
}

func (m *Manager) ClearAll() error {
	m.mu.Lock()
	total := len(m.grid) + len(m.sidebar)
	m.grid = make([]model.Item, 0)
	m.sidebar = make([]model.Item, 0)
	m.enqueue("clear all", func(ctx context.Context) error {
		return m.repo.ClearAll(ctx)
	})
	m.mu.Unlock()

	m.notify(notify.VariantDefault, "All images cleared", fmt.Sprintf("%d images have been successfully removed.", total))
	return nil
}

// Replace sets the contents of container wholesale. Ids are taken out of the
// other container first, and items no longer held by either container are
// deleted from the store. The capacity limit does not apply.
func (m *Manager) Replace(container model.Container, items []model.Item) error {
	if !container.Valid() {
		return fmt.Errorf("%w: cannot replace %q", ErrInvalidOperation, container)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	fresh := dedupe(items)
	m.detachLocked(container.Other(), fresh)

	list := m.list(container)
	old := *list
	*list = fresh

	for _, item := range old {
		if c, _ := m.locate(item.ID); c == "" {
			m.enqueueDelete(item.ID)
		}
	}
	m.enqueueSave(container, fresh)
	return nil
}

// InsertAt places items at index in container, clamping index to the
// container bounds. Items already present in either container are moved.
func (m *Manager) InsertAt(container model.Container, index int, items []model.Item) error {
	if !container.Valid() {
		return fmt.Errorf("%w: cannot insert into %q", ErrInvalidOperation, container)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	fresh := dedupe(items)
	if len(fresh) == 0 {
		return nil
	}
	m.detachLocked(container.Other(), fresh)

	list := m.list(container)
	ids := idSet(fresh)
	kept := slices.DeleteFunc(slices.Clone(*list), func(item model.Item) bool {
		return ids[item.ID]
	})

	index = min(max(index, 0), len(kept))
	*list = slices.Insert(kept, index, fresh...)
	m.enqueueSave(container, *list)
	return nil
}

// Remove drops the given ids from container and deletes them from the store.
// Unknown ids are ignored.
func (m *Manager) Remove(ids []model.ItemID, container model.Container) error {
	if !container.Valid() {
		return fmt.Errorf("%w: cannot remove from %q", ErrInvalidOperation, container)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	drop := make(map[model.ItemID]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	list := m.list(container)
	var removed []model.ItemID
	*list = slices.DeleteFunc(slices.Clone(*list), func(item model.Item) bool {
		if drop[item.ID] {
			removed = append(removed, item.ID)
			return true
		}
		return false
	})
	if len(removed) == 0 {
		return nil
	}

	for _, id := range removed {
		m.enqueueDelete(id)
	}
	m.enqueueUpdatePositions(container, *list)
	return nil
}

// Items returns a copy of container's contents in display order.
func (m *Manager) Items(container model.Container) []model.Item {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !container.Valid() {
		return nil
	}
	return slices.Clone(*m.list(container))
}

func (m *Manager) Find(id model.ItemID) (model.Item, model.Container, int, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, idx := m.locate(id)
	if c == "" {
		return model.Item{}, "", -1, false
	}
	return (*m.list(c))[idx], c, idx, true
}

func (m *Manager) Len(container model.Container) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !container.Valid() {
		return 0
	}
	return len(*m.list(container))
}

func (m *Manager) MaxItems() int {
	return m.maxItems
}

// Wait blocks until every store write queued so far has completed.
func (m *Manager) Wait() {
	m.writes.wait()
}

// Close flushes pending store writes and stops the writer.
func (m *Manager) Close() {
	m.writes.close()
}

func (m *Manager) list(c model.Container) *[]model.Item {
	if c == model.Grid {
		return &m.grid
	}
	return &m.sidebar
}

func (m *Manager) locate(id model.ItemID) (model.Container, int) {
	if idx := model.IndexOf(m.grid, id); idx != -1 {
		return model.Grid, idx
	}
	if idx := model.IndexOf(m.sidebar, id); idx != -1 {
		return model.Sidebar, idx
	}
	return "", -1
}

// detachLocked removes items from container and queues a position rewrite if anything changed.
func (m *Manager) detachLocked(container model.Container, items []model.Item) {
	ids := idSet(items)
	list := m.list(container)
	kept := slices.DeleteFunc(slices.Clone(*list), func(item model.Item) bool {
		return ids[item.ID]
	})
	if len(kept) == len(*list) {
		return
	}
	*list = kept
	m.enqueueUpdatePositions(container, kept)
}

func (m *Manager) enqueue(op string, run func(ctx context.Context) error) {
	if !m.writes.enqueue(writeJob{op: op, run: run}) {
		m.logger.Warn().Str("op", op).Msg("Store write dropped after close")
	}
}

func (m *Manager) enqueueSave(container model.Container, items []model.Item) {
	snapshot := slices.Clone(items)
	m.enqueue("save items", func(ctx context.Context) error {
		return m.repo.SaveItems(ctx, snapshot, container, repository.IndexPositions(len(snapshot)))
	})
}

func (m *Manager) enqueueUpdatePositions(container model.Container, items []model.Item) {
	snapshot := slices.Clone(items)
	m.enqueue("update positions", func(ctx context.Context) error {
		return m.repo.UpdatePositions(ctx, snapshot, container)
	})
}

func (m *Manager) enqueueDelete(id model.ItemID) {
	m.enqueue("delete item", func(ctx context.Context) error {
		return m.repo.DeleteItem(ctx, id)
	})
}

func (m *Manager) persistFailed(op string, err error) {
	m.logger.Error().Stack().Err(err).Str("op", op).Msg("Persistence failed")

	description := "An unexpected error occurred"
	var pe *repository.PersistenceError
	if errors.As(err, &pe) {
		description = pe.Message()
	}
	m.notify(notify.VariantDestructive, "Error", description)
}

func (m *Manager) notify(variant notify.Variant, title, description string) {
	m.notifier.Notify(notify.Notification{
		Variant:     variant,
		Title:       title,
		Description: description,
	})
}

func dedupe(items []model.Item) []model.Item {
	out := make([]model.Item, 0, len(items))
	seen := make(map[model.ItemID]bool, len(items))
	for _, item := range items {
		if item.ID == "" || seen[item.ID] {
			continue
		}
		seen[item.ID] = true
		out = append(out, item)
	}
	return out
}

func idSet(items []model.Item) map[model.ItemID]bool {
	ids := make(map[model.ItemID]bool, len(items))
	for _, item := range items {
		ids[item.ID] = true
	}
	return ids
}
