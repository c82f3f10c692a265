// Package registry is the append-only directory of deployed events.  It
// maps a monotonically growing index to an instance id and a display name.
// Event instances never read it.
package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/iliyamo/ticket-escrow/internal/model"
)

// MaxNameLength bounds display names, in characters.
const MaxNameLength = 128

var (
	ErrNotFound    = errors.New("registry entry not found")
	ErrInvalidName = errors.New("invalid display name")
)

// Store persists registry entries.  AppendEntry must assign indexes
// sequentially starting at 0.
type Store interface {
	AppendEntry(ctx context.Context, instanceID uint64, name string) (model.RegistryEntry, error)
	Entry(ctx context.Context, index uint64) (model.RegistryEntry, bool, error)
	CountEntries(ctx context.Context) (uint64, error)
	ListEntries(ctx context.Context, offset uint64, limit int) ([]model.RegistryEntry, error)
}

// Service validates and forwards registry calls.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// ValidateName reports whether name is acceptable for Register.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > MaxNameLength {
		return ErrInvalidName
	}
	return nil
}

// Register appends an entry and returns its index.
func (s *Service) Register(ctx context.Context, instanceID uint64, name string) (uint64, error) {
	if err := ValidateName(name); err != nil {
		return 0, err
	}
	name = strings.TrimSpace(name)
	e, err := s.store.AppendEntry(ctx, instanceID, name)
	if err != nil {
		return 0, fmt.Errorf("register instance %d: %w", instanceID, err)
	}
	return e.Index, nil
}

// Get returns the entry at index.
func (s *Service) Get(ctx context.Context, index uint64) (model.RegistryEntry, error) {
	e, ok, err := s.store.Entry(ctx, index)
	if err != nil {
		return model.RegistryEntry{}, err
	}
	if !ok {
		return model.RegistryEntry{}, ErrNotFound
	}
	return e, nil
}

// Count returns the number of entries.
func (s *Service) Count(ctx context.Context) (uint64, error) {
	return s.store.CountEntries(ctx)
}

// List returns a page of entries in index order.
func (s *Service) List(ctx context.Context, offset uint64, limit int) ([]model.RegistryEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.store.ListEntries(ctx, offset, limit)
}
