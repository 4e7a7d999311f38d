// Package keyboard maps key presses onto collection and history commands.
package keyboard

import (
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/instaplanner/internal/model"
)

const (
	KeyArrowLeft  = "ArrowLeft"
	KeyArrowRight = "ArrowRight"
	KeyDelete     = "Delete"
	KeyBackspace  = "Backspace"
)

type KeyEvent struct {
	Key   string
	Meta  bool
	Ctrl  bool
	Shift bool

	// InTextInput is set when focus is inside an editable field.
	InTextInput bool
}

type Command int

const (
	CmdNone Command = iota
	CmdMoveItem
	CmdMoveAll
	CmdDelete
	CmdUndo
	CmdRedo
)

func (c Command) String() string {
	switch c {
	case CmdNone:
		return "none"
	case CmdMoveItem:
		return "move-item"
	case CmdMoveAll:
		return "move-all"
	case CmdDelete:
		return "delete"
	case CmdUndo:
		return "undo"
	case CmdRedo:
		return "redo"
	default:
		return fmt.Sprintf("Command(%d)", int(c))
	}
}

// Commands is what the router drives.
type Commands interface {
	Find(id model.ItemID) (model.Item, model.Container, int, bool)
	MoveItem(id model.ItemID, from, to model.Container) error
	MoveAll(from, to model.Container) error
	DeleteItem(id model.ItemID, container model.Container) error
	Undo() bool
	Redo() bool
	CanUndo() bool
	CanRedo() bool
	Len(container model.Container) int
}

// Router holds the hover focus shared with pointer handling. Keys that do not
// apply to the current state are ignored.
type Router struct {
	mu               sync.Mutex
	hoveredID        model.ItemID
	hoveredContainer model.Container

	commands Commands
	platform Platform
	logger   zerolog.Logger
}

type Option func(*Router)

func WithPlatform(p Platform) Option {
	return func(r *Router) {
		if p == PlatformMac || p == PlatformOther {
			r.platform = p
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(r *Router) {
		r.logger = l
	}
}

func New(c Commands, opts ...Option) *Router {
	r := &Router{
		commands: c,
		platform: DetectPlatform(),
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Router) SetHover(id model.ItemID, container model.Container) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hoveredID = id
	r.hoveredContainer = container
}

func (r *Router) ClearHover() {
	r.SetHover("", "")
}

func (r *Router) Hover() (model.ItemID, model.Container) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hoveredID, r.hoveredContainer
}

// HandleKey runs the command bound to ev, if any, and returns it.
func (r *Router) HandleKey(ev KeyEvent) Command {
	mod := r.platform.modifier(ev)

	if mod && strings.EqualFold(ev.Key, "z") {
		if ev.Shift {
			if r.commands.CanRedo() && r.commands.Redo() {
				return CmdRedo
			}
			return CmdNone
		}
		if r.commands.CanUndo() && r.commands.Undo() {
			return CmdUndo
		}
		return CmdNone
	}

	id, container := r.Hover()
	if id == "" || !container.Valid() {
		return CmdNone
	}

	switch ev.Key {
	case KeyArrowLeft:
		if container != model.Grid {
			return CmdNone
		}
		return r.move(id, model.Grid, model.Sidebar, mod)
	case KeyArrowRight:
		if container != model.Sidebar {
			return CmdNone
		}
		return r.move(id, model.Sidebar, model.Grid, mod)
	case KeyDelete, KeyBackspace:
		if ev.InTextInput {
			return CmdNone
		}
		if err := r.commands.DeleteItem(id, container); err != nil {
			r.logger.Debug().Err(err).Str("id", string(id)).Msg("Delete key ignored")
			return CmdNone
		}
		r.ClearHover()
		return CmdDelete
	}
	return CmdNone
}

func (r *Router) move(id model.ItemID, from, to model.Container, all bool) Command {
	if all {
		if r.commands.Len(from) == 0 {
			return CmdNone
		}
		if err := r.commands.MoveAll(from, to); err != nil {
			r.logger.Debug().Err(err).Msg("Move all key ignored")
			return CmdNone
		}
		r.SetHover(id, to)
		return CmdMoveAll
	}

	if _, c, _, ok := r.commands.Find(id); !ok || c != from {
		return CmdNone
	}
	if err := r.commands.MoveItem(id, from, to); err != nil {
		r.logger.Debug().Err(err).Str("id", string(id)).Msg("Move key ignored")
		return CmdNone
	}
	r.SetHover(id, to)
	return CmdMoveItem
}
