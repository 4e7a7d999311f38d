package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/debemdeboas/instaplanner/internal/db"
	"github.com/debemdeboas/instaplanner/internal/model"
	"github.com/debemdeboas/instaplanner/internal/util"
	"github.com/debemdeboas/instaplanner/internal/util/compression"
)

type DBItemRepository struct { // implements ItemRepository
	db         db.Db
	compressor compression.Compressor

	now func() time.Time
}

func NewDBItemRepository(d db.Db, compressor compression.Compressor) *DBItemRepository {
	if compressor == nil {
		compressor = compression.ZstdCompressor{}
	}

	return &DBItemRepository{
		db:         d,
		compressor: compressor,
		now:        time.Now,
	}
}

func (r *DBItemRepository) SaveItems(ctx context.Context, items []model.Item, container model.Container, positions []int) error {
	const op = "save items"

	if !container.Valid() {
		return newPersistenceError(KindUpdateFailed, op, errors.Errorf("invalid container %q", container))
	}
	if positions != nil && len(positions) != len(items) {
		return newPersistenceError(KindUpdateFailed, op, errors.Errorf("got %d positions for %d items", len(positions), len(items)))
	}
	if len(items) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return newPersistenceError(KindUpdateFailed, op, err)
	}
	defer tx.Rollback()

	maxPosition := -1
	if positions == nil {
		var max sql.NullInt64
		err := tx.QueryRowContext(ctx, `SELECT MAX(position) FROM images WHERE container = ?`, string(container)).Scan(&max)
		if err != nil {
			return newPersistenceError(KindUpdateFailed, op, err)
		}
		if max.Valid {
			maxPosition = int(max.Int64)
		}
	}

	timestamp := r.now().UnixMilli()
	for i, item := range items {
		position := maxPosition + 1 + i
		if positions != nil {
			position = positions[i]
		}

		// Payloads never change after creation, so an existing record only
		// needs its placement rewritten.
		res, err := tx.ExecContext(ctx,
			`UPDATE images SET position = ?, timestamp = ?, container = ? WHERE id = ?`,
			position, timestamp, string(container), string(item.ID),
		)
		if err != nil {
			return newPersistenceError(KindUpdateFailed, op, err)
		}
		if affected, err := res.RowsAffected(); err == nil && affected > 0 {
			continue
		}

		compressed, err := r.compressor.Compress(item.Payload)
		if err != nil {
			return newPersistenceError(KindUpdateFailed, op, errors.Wrap(err, "error compressing payload"))
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO images (id, payload, payload_hash, position, timestamp, container) VALUES (?, ?, ?, ?, ?, ?)`,
			string(item.ID), compressed, util.ContentHash(item.Payload), position, timestamp, string(container),
		)
		if err != nil {
			return newPersistenceError(KindUpdateFailed, op, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return newPersistenceError(KindUpdateFailed, op, err)
	}

	repoLogger.Debug().
		Str("container", string(container)).
		Int("count", len(items)).
		Msg("Items saved")

	return nil
}

func (r *DBItemRepository) LoadAll(ctx context.Context) ([]model.Item, []model.Item, error) {
	const op = "load all"

	rows, err := r.db.Get().QueryContext(ctx,
		`SELECT id, payload, container FROM images ORDER BY position ASC, timestamp ASC, id ASC`,
	)
	if err != nil {
		return nil, nil, newPersistenceError(KindLoadFailed, op, err)
	}
	defer rows.Close()

	grid := make([]model.Item, 0)
	sidebar := make([]model.Item, 0)

	for rows.Next() {
		var id, container string
		var compressed []byte

		if err := rows.Scan(&id, &compressed, &container); err != nil {
			return nil, nil, newPersistenceError(KindLoadFailed, op, err)
		}

		payload, err := r.compressor.Decompress(compressed)
		if err != nil {
			return nil, nil, newPersistenceError(KindLoadFailed, op, errors.Wrapf(err, "error decompressing payload of %s", id))
		}

		item := model.Item{ID: model.ItemID(id), Payload: payload}
		if model.Container(container) == model.Grid {
			grid = append(grid, item)
		} else {
			sidebar = append(sidebar, item)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, newPersistenceError(KindLoadFailed, op, err)
	}

	return grid, sidebar, nil
}

func (r *DBItemRepository) UpdatePositions(ctx context.Context, items []model.Item, container model.Container) error {
	const op = "update positions"

	if !container.Valid() {
		return newPersistenceError(KindUpdateFailed, op, errors.Errorf("invalid container %q", container))
	}
	if len(items) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return newPersistenceError(KindUpdateFailed, op, err)
	}
	defer tx.Rollback()

	for i, item := range items {
		_, err := tx.ExecContext(ctx,
			`UPDATE images SET position = ?, container = ? WHERE id = ?`,
			i, string(container), string(item.ID),
		)
		if err != nil {
			return newPersistenceError(KindUpdateFailed, op, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return newPersistenceError(KindUpdateFailed, op, err)
	}
	return nil
}

func (r *DBItemRepository) DeleteItem(ctx context.Context, id model.ItemID) error {
	if _, err := r.db.Get().ExecContext(ctx, `DELETE FROM images WHERE id = ?`, string(id)); err != nil {
		return newPersistenceError(KindDeleteFailed, "delete item", err)
	}
	return nil
}

func (r *DBItemRepository) ClearAll(ctx context.Context) error {
	const op = "clear all"

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return newPersistenceError(KindClearFailed, op, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM images`); err != nil {
		return newPersistenceError(KindClearFailed, op, err)
	}
	if err := tx.Commit(); err != nil {
		return newPersistenceError(KindClearFailed, op, err)
	}
	return nil
}

func (r *DBItemRepository) Count(ctx context.Context, container model.Container) (int, error) {
	var count int
	err := r.db.Get().QueryRowContext(ctx, `SELECT COUNT(*) FROM images WHERE container = ?`, string(container)).Scan(&count)
	if err != nil {
		return 0, newPersistenceError(KindLoadFailed, "count", err)
	}
	return count, nil
}
