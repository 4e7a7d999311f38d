// Package planner ties the collections to the undo history. Every
// user-initiated mutation goes through a Planner so it can be undone.
package planner

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/instaplanner/internal/gallery"
	"github.com/debemdeboas/instaplanner/internal/history"
	"github.com/debemdeboas/instaplanner/internal/model"
	"github.com/debemdeboas/instaplanner/internal/notify"
)

type Planner struct {
	// mu keeps the snapshot taken for history and the mutation it describes together.
	mu sync.Mutex

	gallery  *gallery.Manager
	history  *history.Manager
	notifier notify.Notifier
	logger   zerolog.Logger
}

type Option func(*Planner)

func WithNotifier(n notify.Notifier) Option {
	return func(p *Planner) {
		if n != nil {
			p.notifier = n
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(p *Planner) {
		p.logger = l
	}
}

func New(g *gallery.Manager, h *history.Manager, opts ...Option) *Planner {
	p := &Planner{
		gallery:  g,
		history:  h,
		notifier: notify.Discard,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Planner) Gallery() *gallery.Manager {
	return p.gallery
}

func (p *Planner) History() *history.Manager {
	return p.history
}

func (p *Planner) AddItems(items []model.Item, target model.Container) ([]model.Item, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	added, err := p.gallery.AddItems(items, target)
	if err != nil {
		return nil, err
	}
	p.push(history.Action{Type: history.ActionAdd, Items: added, Container: target})
	return added, nil
}

func (p *Planner) DeleteItem(id model.ItemID, container model.Container) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	item, c, idx, ok := p.gallery.Find(id)
	if !ok || c != container {
		return fmt.Errorf("%w: %s in %s", gallery.ErrNotFound, id, container)
	}
	if err := p.gallery.DeleteItem(id, container); err != nil {
		return err
	}
	p.push(history.Action{
		Type:      history.ActionDelete,
		Items:     []model.Item{item},
		Container: container,
		Positions: []int{idx},
	})
	return nil
}

func (p *Planner) MoveItem(id model.ItemID, from, to model.Container) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	item, _, idx, ok := p.gallery.Find(id)
	if err := p.gallery.MoveItem(id, from, to); err != nil {
		return err
	}
	if ok {
		p.push(history.Action{
			Type:      history.ActionMove,
			Items:     []model.Item{item},
			Container: from,
			Target:    to,
			Positions: []int{idx},
		})
	}
	return nil
}

func (p *Planner) MoveAll(from, to model.Container) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	moved := p.gallery.Items(from)
	if err := p.gallery.MoveAll(from, to); err != nil {
		return err
	}
	p.push(history.Action{Type: history.ActionMoveAll, Items: moved, Container: from, Target: to})
	return nil
}

func (p *Planner) Reorder(container model.Container, oldIndex, newIndex int, mode gallery.Mode) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	before := p.gallery.Items(container)
	if err := p.gallery.Reorder(container, oldIndex, newIndex, mode); err != nil {
		return err
	}
	p.pushOrderChange(history.ActionReorder, container, before)
	return nil
}

func (p *Planner) SwapAcrossContainers(sourceID, targetID model.ItemID) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	source, _, _, _ := p.gallery.Find(sourceID)
	target, _, _, _ := p.gallery.Find(targetID)
	if err := p.gallery.SwapAcrossContainers(sourceID, targetID); err != nil {
		return err
	}
	if sourceID != targetID {
		p.push(history.Action{Type: history.ActionSwap, Items: []model.Item{source, target}})
	}
	return nil
}

func (p *Planner) Shuffle(container model.Container) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	before := p.gallery.Items(container)
	if err := p.gallery.Shuffle(container); err != nil {
		return err
	}
	p.pushOrderChange(history.ActionShuffle, container, before)
	return nil
}

func (p *Planner) Clear(container model.Container) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	removed := p.gallery.Items(container)
	if err := p.gallery.Clear(container); err != nil {
		return err
	}
	if len(removed) > 0 {
		p.push(history.Action{Type: history.ActionClear, Items: removed, Container: container})
	}
	return nil
}

func (p *Planner) ClearAll() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	grid := p.gallery.Items(model.Grid)
	sidebar := p.gallery.Items(model.Sidebar)
	if err := p.gallery.ClearAll(); err != nil {
		return err
	}
	if len(grid)+len(sidebar) > 0 {
		p.push(history.Action{
			Type:          history.ActionClearAll,
			Items:         grid,
			Container:     model.All,
			PreviousOrder: sidebar,
		})
	}
	return nil
}

// Undo reverts the most recent action. It reports whether there was one.
func (p *Planner) Undo() bool {
	return p.replay(p.history.Undo, "Undo failed", "Failed to undo the last action.")
}

// Redo re-applies the most recently undone action. It reports whether there was one.
func (p *Planner) Redo() bool {
	return p.replay(p.history.Redo, "Redo failed", "Failed to redo the action.")
}

func (p *Planner) CanUndo() bool {
	return p.history.CanUndo()
}

func (p *Planner) CanRedo() bool {
	return p.history.CanRedo()
}

func (p *Planner) Find(id model.ItemID) (model.Item, model.Container, int, bool) {
	return p.gallery.Find(id)
}

func (p *Planner) Items(container model.Container) []model.Item {
	return p.gallery.Items(container)
}

func (p *Planner) Len(container model.Container) int {
	return p.gallery.Len(container)
}

func (p *Planner) replay(pop func() (history.Entry, bool), title, description string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry, ok := pop()
	if !ok {
		return false
	}

	if err := p.apply(entry); err != nil {
		p.logger.Error().
			Err(err).
			Str("action", string(entry.Action.Type)).
			Str("direction", string(entry.Direction)).
			Msg("History replay failed")
		p.notifier.Notify(notify.Notification{
			Variant:     notify.VariantDestructive,
			Title:       title,
			Description: description,
		})
		return true
	}

	p.logger.Debug().
		Str("action", string(entry.Action.Type)).
		Str("direction", string(entry.Direction)).
		Msg("History replayed")
	return true
}

func (p *Planner) apply(entry history.Entry) error {
	a := entry.Action
	undo := entry.Direction == history.DirectionUndo
	g := p.gallery

	switch a.Type {
	case history.ActionAdd:
		if undo {
			return g.Remove(model.IDs(a.Items), a.Container)
		}
		return g.InsertAt(a.Container, 0, a.Items)

	case history.ActionDelete:
		if undo {
			var errs []error
			for i, item := range a.Items {
				errs = append(errs, g.InsertAt(a.Container, position(a, i), []model.Item{item}))
			}
			return errors.Join(errs...)
		}
		var errs []error
		for _, item := range a.Items {
			errs = append(errs, g.DeleteItem(item.ID, a.Container))
		}
		return errors.Join(errs...)

	case history.ActionMove:
		if undo {
			// InsertAt takes the item out of the target container.
			return g.InsertAt(a.Container, position(a, 0), a.Items)
		}
		var errs []error
		for _, item := range a.Items {
			errs = append(errs, g.MoveItem(item.ID, a.Container, a.Target))
		}
		return errors.Join(errs...)

	case history.ActionMoveAll:
		if undo {
			return g.Replace(a.Container, a.Items)
		}
		return g.MoveAll(a.Container, a.Target)

	case history.ActionReorder, history.ActionShuffle:
		if undo {
			return g.Replace(a.Container, a.PreviousOrder)
		}
		return g.Replace(a.Container, a.Items)

	case history.ActionSwap:
		if len(a.Items) != 2 {
			return fmt.Errorf("swap action holds %d items", len(a.Items))
		}
		return g.SwapAcrossContainers(a.Items[0].ID, a.Items[1].ID)

	case history.ActionClear:
		if undo {
			return g.Replace(a.Container, a.Items)
		}
		return g.Clear(a.Container)

	case history.ActionClearAll:
		if undo {
			return errors.Join(
				g.Replace(model.Grid, a.Items),
				g.Replace(model.Sidebar, a.PreviousOrder),
			)
		}
		return g.ClearAll()

	default:
		return fmt.Errorf("unknown action type %q", a.Type)
	}
}

func (p *Planner) push(action history.Action) {
	p.history.Push(action)
	p.logger.Debug().Str("action", string(action.Type)).Msg("Action recorded")
}

func (p *Planner) pushOrderChange(t history.ActionType, container model.Container, before []model.Item) {
	after := p.gallery.Items(container)
	if slices.Equal(model.IDs(before), model.IDs(after)) {
		return
	}
	p.push(history.Action{Type: t, Items: after, Container: container, PreviousOrder: before})
}

func position(a history.Action, i int) int {
	if i < len(a.Positions) {
		return a.Positions[i]
	}
	// Without a captured index the item goes back to the end.
	return math.MaxInt
}
