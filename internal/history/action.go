package history

import "github.com/debemdeboas/instaplanner/internal/model"

type ActionType string

const (
	ActionAdd      ActionType = "add"
	ActionDelete   ActionType = "delete"
	ActionMove     ActionType = "move"
	ActionMoveAll  ActionType = "moveAll"
	ActionReorder  ActionType = "reorder"
	ActionSwap     ActionType = "swap"
	ActionShuffle  ActionType = "shuffle"
	ActionClear    ActionType = "clear"
	ActionClearAll ActionType = "clearAll"
)

// Action is a snapshot of one user-initiated mutation, complete enough to be
// inverted without asking the collections for anything.
type Action struct {
	Type ActionType

	// Items are the items the action touched. For reorder and shuffle it is
	// the container order after the change; for clearAll, the grid before it.
	Items []model.Item

	Container model.Container
	// Target is the destination container of move and moveAll.
	Target model.Container

	// PreviousOrder is the container order before a reorder or shuffle, and
	// the sidebar before a clearAll.
	PreviousOrder []model.Item

	// Positions holds the index each item occupied in Container before the
	// action, for delete and move.
	Positions []int
}

type Direction string

const (
	DirectionUndo Direction = "undo"
	DirectionRedo Direction = "redo"
)

// Entry is an action popped from one of the stacks, tagged with the direction it is being replayed in.
type Entry struct {
	Action    Action
	Direction Direction
}
