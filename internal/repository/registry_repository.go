package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/ticket-escrow/internal/model"
)

// AppendEntry inserts a registry row at the next index.  The index is taken
// under a lock on the table tail so concurrent registrations cannot collide.
func (s *Store) AppendEntry(ctx context.Context, instanceID uint64, name string) (e model.RegistryEntry, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.RegistryEntry{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	var next uint64
	if err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(idx) + 1, 0) FROM event_registry FOR UPDATE`).Scan(&next); err != nil {
		return model.RegistryEntry{}, err
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO event_registry (idx, instance_id, name) VALUES (?, ?, ?)`,
		next, instanceID, name); err != nil {
		return model.RegistryEntry{}, err
	}
	return model.RegistryEntry{Index: next, InstanceID: instanceID, DisplayName: name}, nil
}

// Entry fetches one registry row by index.
func (s *Store) Entry(ctx context.Context, index uint64) (model.RegistryEntry, bool, error) {
	e := model.RegistryEntry{Index: index}
	err := s.db.QueryRowContext(ctx,
		`SELECT instance_id, name FROM event_registry WHERE idx = ?`, index).Scan(&e.InstanceID, &e.DisplayName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.RegistryEntry{}, false, nil
		}
		return model.RegistryEntry{}, false, err
	}
	return e, true, nil
}

// CountEntries returns the number of registry rows.
func (s *Store) CountEntries(ctx context.Context) (uint64, error) {
	var n uint64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM event_registry`).Scan(&n)
	return n, err
}

// ListEntries pages through the registry in index order.
func (s *Store) ListEntries(ctx context.Context, offset uint64, limit int) ([]model.RegistryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT idx, instance_id, name FROM event_registry WHERE idx >= ? ORDER BY idx LIMIT ?`,
		offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.RegistryEntry{}
	for rows.Next() {
		var e model.RegistryEntry
		if err := rows.Scan(&e.Index, &e.InstanceID, &e.DisplayName); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
