package gallery

import (
	"fmt"
	"slices"
)

// Mode selects how dropping one item onto another reorders a container.
type Mode int

const (
	// ModeSwap exchanges the two items and leaves every other item in place.
	ModeSwap Mode = iota
	// ModeSlide removes the item and re-inserts it at the target index,
	// shifting the items in between by one.
	ModeSlide
)

func (m Mode) String() string {
	switch m {
	case ModeSwap:
		return "swap"
	case ModeSlide:
		return "slide"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

func arrayMove[T any](s []T, from, to int) []T {
	out := slices.Clone(s)
	item := out[from]
	out = slices.Delete(out, from, from+1)
	return slices.Insert(out, to, item)
}

func swapped[T any](s []T, i, j int) []T {
	out := slices.Clone(s)
	out[i], out[j] = out[j], out[i]
	return out
}

func removeAt[T any](s []T, i int) []T {
	return slices.Delete(slices.Clone(s), i, i+1)
}

func prepend[T any](s []T, items ...T) []T {
	out := make([]T, 0, len(items)+len(s))
	out = append(out, items...)
	return append(out, s...)
}
