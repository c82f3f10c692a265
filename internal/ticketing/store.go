package ticketing

import (
	"context"

	"github.com/iliyamo/ticket-escrow/internal/model"
)

// Store is the execution substrate the engine runs on.  Implementations must
// run each Atomic call as one serializable unit per instance: either every
// write issued through the Tx commits, or none does.  Returning an error from
// fn aborts the unit.
type Store interface {
	// CreateInstance deploys a new, unconfigured event instance.
	CreateInstance(ctx context.Context, creator model.Address) (model.Instance, error)

	// Atomic runs fn with exclusive access to the instance.  It returns
	// ErrNotFound if the instance does not exist.
	Atomic(ctx context.Context, instanceID uint64, fn func(ctx context.Context, tx Tx) error) error

	// View runs fn against a consistent snapshot of the instance.  Writes
	// issued through the Tx are discarded or rejected.
	View(ctx context.Context, instanceID uint64, fn func(ctx context.Context, tx Tx) error) error

	Ledger
}

// Tx is the view of one instance inside an atomic unit.  It combines the
// ticket record store with the token and currency primitives.
type Tx interface {
	// Instance returns the instance being operated on.
	Instance(ctx context.Context) (model.Instance, error)
	// SaveConfig overwrites the event config and marks the instance initialized.
	SaveConfig(ctx context.Context, cfg model.EventConfig) error

	// GetTicket returns the record stored under id and whether it exists.
	GetTicket(ctx context.Context, id uint64) (model.Ticket, bool, error)
	// PutTicket creates or fully overwrites the record under id.
	PutTicket(ctx context.Context, id uint64, t model.Ticket) error
	// UpdateStatus rewrites only the status field; ErrNotFound if id is absent.
	UpdateStatus(ctx context.Context, id uint64, s model.Status) error
	// TicketsByOwner lists the tickets currently owned by owner, by id.
	TicketsByOwner(ctx context.Context, owner model.Address) ([]TicketEntry, error)

	// MintToken creates a new token held by the instance contract.
	MintToken(ctx context.Context) (uint64, error)
	// TransferToken moves a token from its current holder to another
	// address.  The holder must equal from.  forced marks a transfer made
	// without the holder's consent (cancellation reclaim).
	TransferToken(ctx context.Context, tokenID uint64, from, to model.Address, forced bool) error

	// Collect debits amount from the payer wallet into the contract balance.
	// ErrInsufficientFunds if the wallet cannot cover it.
	Collect(ctx context.Context, from model.Address, amount uint64, kind model.TransferKind) error
	// Pay moves amount from the contract balance to a wallet.
	// ErrInsufficientBalance if the contract cannot cover it.
	Pay(ctx context.Context, to model.Address, amount uint64, kind model.TransferKind) error
}

// Ledger exposes wallet balances outside of any event instance.
type Ledger interface {
	// Deposit credits a wallet from outside the system.
	Deposit(ctx context.Context, to model.Address, amount uint64) (model.Wallet, error)
	// Wallet returns the balance of addr; unknown addresses have balance 0.
	Wallet(ctx context.Context, addr model.Address) (model.Wallet, error)
	// Transfers lists the most recent journal entries touching addr.
	Transfers(ctx context.Context, addr model.Address, limit int) ([]model.Transfer, error)
}

// TicketEntry pairs a ticket id with its record.
type TicketEntry struct {
	ID     uint64
	Ticket model.Ticket
}
