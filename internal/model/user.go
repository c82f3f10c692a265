package model

import (
	"errors"
	"time"
)

// Account roles stored in users.role.  Event roles (organizer, owner) are
// not account roles; they are resolved per instance and per ticket.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// Account store errors shared by every user and refresh token backend.
var (
	ErrUserNotFound   = errors.New("user not found")
	ErrEmailExists    = errors.New("email already exists")
	ErrRefreshInvalid = errors.New("refresh token invalid, expired or revoked")
)

// User represents an account record as stored in the `users` table.  Each
// account owns exactly one Address, which is the identity used by every
// ticket and wallet operation.
//
// Fields:
//
//	ID           – primary key identifier of the user.
//	Email        – unique email address.
//	PasswordHash – bcrypt hashed password.
//	Role         – USER or ADMIN.
//	Address      – account address (users.address, BINARY(32)).
//	IsActive     – whether the account is active.
//	CreatedAt    – timestamp of creation.
//	UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Role         string    // users.role
	Address      Address   // users.address
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  The plain
// token is not stored; only its SHA-256 hash.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
