package memstore

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/ticket-escrow/internal/model"
)

// Accounts keeps users and refresh tokens in memory.  It backs the auth
// endpoints when the server runs without MySQL.
type Accounts struct {
	mu      sync.Mutex
	nextID  uint64
	byID    map[uint64]model.User
	byEmail map[string]uint64
	refresh map[string]model.RefreshToken
}

func NewAccounts() *Accounts {
	return &Accounts{
		nextID:  1,
		byID:    make(map[uint64]model.User),
		byEmail: make(map[string]uint64),
		refresh: make(map[string]model.RefreshToken),
	}
}

// Create stores a user whose password is already hashed.
func (a *Accounts) Create(ctx context.Context, email, hash, role string, addr model.Address) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.byEmail[email]; ok {
		return 0, model.ErrEmailExists
	}
	now := time.Now().UTC()
	u := model.User{
		ID: a.nextID, Email: email, PasswordHash: hash, Role: role, Address: addr,
		IsActive: true, CreatedAt: now, UpdatedAt: now,
	}
	a.nextID++
	a.byID[u.ID] = u
	a.byEmail[email] = u.ID
	return u.ID, nil
}

func (a *Accounts) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	a.mu.Lock()
	defer a.mu.Unlock()
	id, ok := a.byEmail[email]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return a.byID[id], nil
}

func (a *Accounts) GetByID(ctx context.Context, id uint64) (model.User, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	u, ok := a.byID[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return u, nil
}

func (a *Accounts) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.refresh[tokenHash] = model.RefreshToken{
		UserID: userID, TokenHash: tokenHash, ExpiresAt: exp, CreatedAt: time.Now().UTC(),
	}
	return nil
}

func (a *Accounts) ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	rt, ok := a.refresh[tokenHash]
	if !ok || rt.RevokedAt != nil || time.Now().UTC().After(rt.ExpiresAt) {
		return 0, model.ErrRefreshInvalid
	}
	return rt.UserID, nil
}

func (a *Accounts) RevokeByHash(ctx context.Context, tokenHash string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if rt, ok := a.refresh[tokenHash]; ok && rt.RevokedAt == nil {
		now := time.Now().UTC()
		rt.RevokedAt = &now
		a.refresh[tokenHash] = rt
	}
	return nil
}

func (a *Accounts) RevokeAllForUser(ctx context.Context, userID uint64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	now := time.Now().UTC()
	for h, rt := range a.refresh {
		if rt.UserID == userID && rt.RevokedAt == nil {
			rt.RevokedAt = &now
			a.refresh[h] = rt
		}
	}
	return nil
}
