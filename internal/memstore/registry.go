package memstore

import (
	"context"

	"github.com/iliyamo/ticket-escrow/internal/model"
)

// AppendEntry adds a registry entry at the next index.
func (s *Store) AppendEntry(ctx context.Context, instanceID uint64, name string) (model.RegistryEntry, error) {
	if err := ctx.Err(); err != nil {
		return model.RegistryEntry{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e := model.RegistryEntry{Index: uint64(len(s.registry)), InstanceID: instanceID, DisplayName: name}
	s.registry = append(s.registry, e)
	return e, nil
}

// Entry returns the entry at index and whether it exists.
func (s *Store) Entry(ctx context.Context, index uint64) (model.RegistryEntry, bool, error) {
	if err := ctx.Err(); err != nil {
		return model.RegistryEntry{}, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if index >= uint64(len(s.registry)) {
		return model.RegistryEntry{}, false, nil
	}
	return s.registry[index], true, nil
}

// CountEntries returns the number of registered entries.
func (s *Store) CountEntries(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return uint64(len(s.registry)), nil
}

// ListEntries returns up to limit entries starting at offset.
func (s *Store) ListEntries(ctx context.Context, offset uint64, limit int) ([]model.RegistryEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []model.RegistryEntry{}
	for i := offset; i < uint64(len(s.registry)) && len(out) < limit; i++ {
		out = append(out, s.registry[i])
	}
	return out, nil
}
