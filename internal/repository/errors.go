// Package repository implements the MySQL persistence layer: the ticketing
// execution substrate (instances, tickets, tokens, wallets and the transfer
// journal), the event registry, and user accounts with refresh tokens.
//
// The sentinel values below let handlers distinguish failure scenarios
// without inspecting driver errors.
package repository

import (
	"errors"

	"github.com/iliyamo/ticket-escrow/internal/model"
)

// ErrEmailExists is returned by UserRepo.Create when the email is already
// registered (MySQL error 1062).  Handlers translate it into HTTP 409.
var ErrEmailExists = model.ErrEmailExists

// errReadOnly is returned when a write is attempted inside Store.View.
var errReadOnly = errors.New("repository: write in read-only view")
