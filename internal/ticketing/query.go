package ticketing

import (
	"context"

	"github.com/iliyamo/ticket-escrow/internal/model"
)

// Summary is the read-only view of an event instance.
type Summary struct {
	InstanceID           uint64        `json:"instance_id"`
	Creator              model.Address `json:"creator"`
	Contract             model.Address `json:"contract"`
	Initialized          bool          `json:"initialized"`
	Price                uint64        `json:"price"`
	Supply               uint64        `json:"supply"`
	Sold                 uint64        `json:"sold"`
	Remaining            uint64        `json:"remaining"`
	Organizer            model.Address `json:"organizer"`
	CancellationDeadline uint64        `json:"cancellation_deadline"`
	PenaltyPercentage    uint64        `json:"penalty_percentage"`
	RoyaltyPercentage    uint64        `json:"royalty_percentage"`
	Balance              uint64        `json:"balance"`
}

// TicketView is a ticket record together with its id.
type TicketView struct {
	ID uint64 `json:"id"`
	model.Ticket
}

// EventSummary returns the configuration and sales figures of an instance.
func (e *Engine) EventSummary(ctx context.Context, instanceID uint64) (Summary, error) {
	var s Summary
	err := e.store.View(ctx, instanceID, func(ctx context.Context, tx Tx) error {
		inst, err := tx.Instance(ctx)
		if err != nil {
			return err
		}
		cfg := inst.Config
		s = Summary{
			InstanceID:           inst.ID,
			Creator:              inst.Creator,
			Contract:             inst.Contract(),
			Initialized:          inst.Initialized,
			Price:                cfg.Price,
			Supply:               cfg.Supply,
			Sold:                 cfg.Sold,
			Organizer:            cfg.Organizer,
			CancellationDeadline: cfg.CancellationDeadline,
			PenaltyPercentage:    cfg.PenaltyPercentage,
			RoyaltyPercentage:    cfg.RoyaltyPercentage,
			Balance:              inst.Balance,
		}
		if cfg.Supply > cfg.Sold {
			s.Remaining = cfg.Supply - cfg.Sold
		}
		return nil
	})
	return s, err
}

// TicketInfo returns one ticket or ErrNotFound.
func (e *Engine) TicketInfo(ctx context.Context, instanceID, ticketID uint64) (TicketView, error) {
	var v TicketView
	err := e.store.View(ctx, instanceID, func(ctx context.Context, tx Tx) error {
		t, err := loadTicket(ctx, tx, ticketID)
		if err != nil {
			return err
		}
		v = TicketView{ID: ticketID, Ticket: t}
		return nil
	})
	return v, err
}

// TicketsByOwner lists the tickets of an instance owned by owner, in id order.
func (e *Engine) TicketsByOwner(ctx context.Context, instanceID uint64, owner model.Address) ([]TicketView, error) {
	out := []TicketView{}
	err := e.store.View(ctx, instanceID, func(ctx context.Context, tx Tx) error {
		entries, err := tx.TicketsByOwner(ctx, owner)
		if err != nil {
			return err
		}
		for _, en := range entries {
			out = append(out, TicketView{ID: en.ID, Ticket: en.Ticket})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ContractBalance returns the escrow balance of an instance.
func (e *Engine) ContractBalance(ctx context.Context, instanceID uint64) (uint64, error) {
	var bal uint64
	err := e.store.View(ctx, instanceID, func(ctx context.Context, tx Tx) error {
		inst, err := tx.Instance(ctx)
		if err != nil {
			return err
		}
		bal = inst.Balance
		return nil
	})
	return bal, err
}

// Deposit credits a wallet.  Zero amounts are rejected.
func (e *Engine) Deposit(ctx context.Context, to model.Address, amount uint64) (model.Wallet, error) {
	if to.IsZero() {
		return model.Wallet{}, model.ErrInvalidAddress
	}
	if amount == 0 {
		return model.Wallet{}, ErrInvalidPrice
	}
	w, err := e.store.Deposit(ctx, to, amount)
	if err != nil {
		return model.Wallet{}, err
	}
	return w, nil
}

// Wallet returns the spendable balance of addr.
func (e *Engine) Wallet(ctx context.Context, addr model.Address) (model.Wallet, error) {
	return e.store.Wallet(ctx, addr)
}

// Transfers returns the latest journal entries touching addr.
func (e *Engine) Transfers(ctx context.Context, addr model.Address, limit int) ([]model.Transfer, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return e.store.Transfers(ctx, addr, limit)
}
