// Package gesture turns a finished drag into at most one collection operation.
package gesture

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/instaplanner/internal/gallery"
	"github.com/debemdeboas/instaplanner/internal/model"
)

// DefaultSwapDelay matches the length of the swap animation.
const DefaultSwapDelay = 250 * time.Millisecond

// Collections is what the resolver mutates.
type Collections interface {
	Find(id model.ItemID) (model.Item, model.Container, int, bool)
	SwapAcrossContainers(sourceID, targetID model.ItemID) error
	Reorder(container model.Container, oldIndex, newIndex int, mode gallery.Mode) error
	MoveItem(id model.ItemID, from, to model.Container) error
}

type DragEndEvent struct {
	ActiveID model.ItemID
	// OverID is the drop target: another item's id, a container id
	// ("grid" or "sidebar") for empty container space, or empty for no target.
	OverID string
}

// InputState is the modifier state sampled when the drag ends.
type InputState struct {
	Slide bool
}

type Op int

const (
	OpNone Op = iota
	OpSwapAcross
	OpReorder
	OpMove
)

func (o Op) String() string {
	switch o {
	case OpNone:
		return "none"
	case OpSwapAcross:
		return "swap-across"
	case OpReorder:
		return "reorder"
	case OpMove:
		return "move"
	default:
		return fmt.Sprintf("Op(%d)", int(o))
	}
}

// Resolution describes the operation a drag resolved to. Swaps and reorders
// are deferred, so the collections may not reflect them yet.
type Resolution struct {
	Op Op

	ActiveID model.ItemID
	OverID   model.ItemID

	Source model.Container
	Target model.Container

	// From and To are the indices of a reorder at drag end.
	From int
	To   int
	Mode gallery.Mode

	Deferred bool
}

type Resolver struct {
	mu       sync.Mutex
	activeID model.ItemID

	collections Collections
	deferrer    Deferrer
	delay       time.Duration
	logger      zerolog.Logger

	ownsDeferrer bool
}

type Option func(*Resolver)

func WithDeferrer(d Deferrer) Option {
	return func(r *Resolver) {
		if d != nil {
			r.deferrer = d
		}
	}
}

// WithDelay sets how long swaps and reorders wait before they are applied.
func WithDelay(d time.Duration) Option {
	return func(r *Resolver) {
		if d >= 0 {
			r.delay = d
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(r *Resolver) {
		r.logger = l
	}
}

func New(c Collections, opts ...Option) *Resolver {
	r := &Resolver{
		collections: c,
		delay:       DefaultSwapDelay,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.deferrer == nil {
		r.deferrer = NewQueueDeferrer()
		r.ownsDeferrer = true
	}
	return r
}

func (r *Resolver) DragStart(activeID model.ItemID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.activeID = activeID
}

// ActiveItem returns the item currently being dragged.
func (r *Resolver) ActiveItem() (model.Item, bool) {
	r.mu.Lock()
	id := r.activeID
	r.mu.Unlock()

	if id == "" {
		return model.Item{}, false
	}
	item, _, _, ok := r.collections.Find(id)
	return item, ok
}

// DragEnd resolves a drop. Precedence: no target does nothing; dropping on an
// item in the other container swaps unless slide is held; dropping on an item
// in the same container reorders; dropping on the other container's empty
// space moves. Anything else does nothing.
func (r *Resolver) DragEnd(ev DragEndEvent, in InputState) Resolution {
	r.mu.Lock()
	r.activeID = ""
	r.mu.Unlock()

	none := Resolution{Op: OpNone, ActiveID: ev.ActiveID}
	if ev.OverID == "" {
		return none
	}

	_, activeC, activeIdx, ok := r.collections.Find(ev.ActiveID)
	if !ok {
		return none
	}

	if sentinel := model.Container(ev.OverID); sentinel.Valid() {
		if sentinel == activeC {
			return none
		}
		res := Resolution{Op: OpMove, ActiveID: ev.ActiveID, Source: activeC, Target: sentinel}
		if err := r.collections.MoveItem(ev.ActiveID, activeC, sentinel); err != nil {
			r.logger.Warn().Err(err).Str("id", string(ev.ActiveID)).Msg("Move on drop failed")
			return none
		}
		r.logResolution(res)
		return res
	}

	overID := model.ItemID(ev.OverID)
	_, overC, overIdx, ok := r.collections.Find(overID)
	if !ok {
		return none
	}

	if activeC != overC {
		if in.Slide {
			return none
		}
		res := Resolution{
			Op:       OpSwapAcross,
			ActiveID: ev.ActiveID,
			OverID:   overID,
			Source:   activeC,
			Target:   overC,
			Deferred: true,
		}
		r.deferrer.Defer(r.delay, func() {
			if err := r.collections.SwapAcrossContainers(ev.ActiveID, overID); err != nil {
				r.logger.Warn().Err(err).Msg("Deferred swap failed")
			}
		})
		r.logResolution(res)
		return res
	}

	if activeIdx == overIdx {
		return none
	}

	mode := gallery.ModeSwap
	if in.Slide {
		mode = gallery.ModeSlide
	}
	res := Resolution{
		Op:       OpReorder,
		ActiveID: ev.ActiveID,
		OverID:   overID,
		Source:   activeC,
		Target:   overC,
		From:     activeIdx,
		To:       overIdx,
		Mode:     mode,
		Deferred: true,
	}
	r.deferrer.Defer(r.delay, func() {
		r.reorderByID(ev.ActiveID, overID, mode)
	})
	r.logResolution(res)
	return res
}

// Close stops the deferrer if the resolver created it, running pending mutations first.
func (r *Resolver) Close() {
	if !r.ownsDeferrer {
		return
	}
	if q, ok := r.deferrer.(*QueueDeferrer); ok {
		q.Close()
	}
}

// Wait blocks until deferred mutations issued so far have been applied.
func (r *Resolver) Wait() {
	if q, ok := r.deferrer.(*QueueDeferrer); ok {
		q.Wait()
	}
}

// reorderByID looks the indices up again when the deferred reorder fires, since
// earlier mutations may have shifted them.
func (r *Resolver) reorderByID(activeID, overID model.ItemID, mode gallery.Mode) {
	_, activeC, from, ok1 := r.collections.Find(activeID)
	_, overC, to, ok2 := r.collections.Find(overID)
	if !ok1 || !ok2 || activeC != overC || from == to {
		return
	}
	if err := r.collections.Reorder(activeC, from, to, mode); err != nil {
		r.logger.Warn().Err(err).Msg("Deferred reorder failed")
	}
}

func (r *Resolver) logResolution(res Resolution) {
	r.logger.Debug().
		Stringer("op", res.Op).
		Str("active", string(res.ActiveID)).
		Str("over", string(res.OverID)).
		Str("source", string(res.Source)).
		Str("target", string(res.Target)).
		Msg("Drag resolved")
}
