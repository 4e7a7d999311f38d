package repository

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/instaplanner/internal/model"
)

// ItemRepository is the ordered-collection store. It is a durable mirror of
// the in-memory collections: positions are derived from slice order by the
// caller and are only meaningful relative to other records in the same container.
type ItemRepository interface {
	// SaveItems upserts items into container in a single transaction. When
	// positions is nil the items are appended after the container's current
	// maximum position.
	SaveItems(ctx context.Context, items []model.Item, container model.Container, positions []int) error

	// LoadAll returns both containers ordered by ascending position.
	LoadAll(ctx context.Context) (grid, sidebar []model.Item, err error)

	// UpdatePositions rewrites the position (and container) of records that
	// already exist to match the index order of items. Unknown ids are skipped.
	UpdatePositions(ctx context.Context, items []model.Item, container model.Container) error

	DeleteItem(ctx context.Context, id model.ItemID) error
	ClearAll(ctx context.Context) error

	Count(ctx context.Context, container model.Container) (int, error)
}

var repoLogger = zerolog.Nop()

func SetLogger(l zerolog.Logger) {
	repoLogger = l
}

// IndexPositions returns 0..n-1, the positions matching a slice's order.
func IndexPositions(n int) []int {
	positions := make([]int, n)
	for i := range positions {
		positions[i] = i
	}
	return positions
}
