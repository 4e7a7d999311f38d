// Package model defines the core data structures shared by the store, the collection manager and the history.
package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type ItemID string

// Item is an uploaded image. Payload is the encoded image produced by the
// upload pipeline and is never mutated after creation.
type Item struct {
	ID      ItemID
	Payload []byte
}

func NewItemID() ItemID {
	return ItemID(uuid.New().String())
}

// Record is the persisted form of an Item.
type Record struct {
	ID        ItemID
	Payload   []byte
	Position  int
	Timestamp time.Time
	Container Container
}

func (r Record) Item() Item {
	return Item{ID: r.ID, Payload: r.Payload}
}

type Container string

const (
	Grid    Container = "grid"
	Sidebar Container = "sidebar"

	// All is only used as a history tag meaning both containers.
	All Container = "all"
)

// Valid reports whether c is one of the two live containers.
func (c Container) Valid() bool {
	return c == Grid || c == Sidebar
}

func (c Container) Other() Container {
	switch c {
	case Grid:
		return Sidebar
	case Sidebar:
		return Grid
	default:
		return c
	}
}

func (c Container) Title() string {
	switch c {
	case Grid:
		return "Grid"
	case Sidebar:
		return "Sidebar"
	case All:
		return "All"
	default:
		return string(c)
	}
}

func ParseContainer(s string) (Container, error) {
	switch c := Container(s); c {
	case Grid, Sidebar, All:
		return c, nil
	default:
		return "", fmt.Errorf("unknown container %q", s)
	}
}

func IDs(items []Item) []ItemID {
	ids := make([]ItemID, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	return ids
}

// IndexOf returns the index of id in items, or -1.
func IndexOf(items []Item, id ItemID) int {
	for i, item := range items {
		if item.ID == id {
			return i
		}
	}
	return -1
}
