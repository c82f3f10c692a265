package ticketing

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/iliyamo/ticket-escrow/internal/model"
	"github.com/iliyamo/ticket-escrow/internal/split"
)

// EventParams are the sale parameters supplied at configuration.  The
// organizer is not a parameter: it is always the configuring caller.
type EventParams struct {
	Price                uint64
	Supply               uint64
	CancellationDeadline uint64
	PenaltyPercentage    uint64
	RoyaltyPercentage    uint64
}

// IssuedTicket is the result of a successful issue.
type IssuedTicket struct {
	TicketID uint64       `json:"ticket_id"`
	Ticket   model.Ticket `json:"ticket"`
}

// CancelReceipt reports how a cancelled ticket's price was split.
type CancelReceipt struct {
	TicketID  uint64 `json:"ticket_id"`
	Penalty   uint64 `json:"penalty"`
	Refund    uint64 `json:"refund"`
	Reclaimed bool   `json:"reclaimed"`
}

// Deploy creates a new unconfigured instance owned by the caller.
func (e *Engine) Deploy(ctx context.Context, creator model.Address) (model.Instance, error) {
	if creator.IsZero() {
		return model.Instance{}, fmt.Errorf("%w: missing caller", ErrUnauthorized)
	}
	inst, err := e.store.CreateInstance(ctx, creator)
	if err != nil {
		return model.Instance{}, err
	}
	e.log.Info("instance deployed", zap.Uint64("instance", inst.ID), zap.Stringer("creator", creator))
	return inst, nil
}

// ConfigureEvent sets the sale parameters.  Only the creator may call it and
// only once per instance; the caller becomes the organizer.
func (e *Engine) ConfigureEvent(ctx context.Context, call Call, p EventParams) error {
	return e.mutate(ctx, call, ActivityConfigured, func(ctx context.Context, tx Tx) (Activity, error) {
		inst, err := tx.Instance(ctx)
		if err != nil {
			return Activity{}, err
		}
		if err := authorizeInitializer(inst, call.Caller); err != nil {
			return Activity{}, err
		}
		if inst.Initialized {
			return Activity{}, ErrAlreadyInitialized
		}
		if p.PenaltyPercentage > split.MaxPercentage || p.RoyaltyPercentage > split.MaxPercentage {
			return Activity{}, ErrInvalidPercentage
		}
		if p.Price == 0 {
			return Activity{}, fmt.Errorf("%w: price must be positive", ErrInvalidPrice)
		}
		cfg := model.EventConfig{
			Price:                p.Price,
			Supply:               p.Supply,
			Organizer:            call.Caller,
			CancellationDeadline: p.CancellationDeadline,
			PenaltyPercentage:    p.PenaltyPercentage,
			RoyaltyPercentage:    p.RoyaltyPercentage,
		}
		if err := tx.SaveConfig(ctx, cfg); err != nil {
			return Activity{}, err
		}
		return Activity{Owner: call.Caller, Amount: p.Price}, nil
	})
}

// IssueTicket sells the next ticket to the caller for exactly the event
// price.  The ticket id is the sold count before the sale.
func (e *Engine) IssueTicket(ctx context.Context, call Call, payment uint64) (IssuedTicket, error) {
	var out IssuedTicket
	err := e.mutate(ctx, call, ActivityIssued, func(ctx context.Context, tx Tx) (Activity, error) {
		inst, err := configured(ctx, tx)
		if err != nil {
			return Activity{}, err
		}
		if call.Caller.IsZero() {
			return Activity{}, fmt.Errorf("%w: missing caller", ErrUnauthorized)
		}
		cfg := inst.Config
		if cfg.Sold >= cfg.Supply {
			return Activity{}, ErrSoldOut
		}
		if payment != cfg.Price {
			return Activity{}, fmt.Errorf("%w: want %d, got %d", ErrIncorrectPayment, cfg.Price, payment)
		}
		if err := tx.Collect(ctx, call.Caller, payment, model.TransferTicketPayment); err != nil {
			return Activity{}, err
		}
		tokenID, err := tx.MintToken(ctx)
		if err != nil {
			return Activity{}, err
		}

		id := cfg.Sold
		t := model.Ticket{TokenID: tokenID, Owner: call.Caller, Status: model.StatusPending}
		if err := tx.PutTicket(ctx, id, t); err != nil {
			return Activity{}, err
		}
		cfg.Sold++
		if err := tx.SaveConfig(ctx, cfg); err != nil {
			return Activity{}, err
		}

		out = IssuedTicket{TicketID: id, Ticket: t}
		return Activity{TicketID: id, TokenID: tokenID, Owner: t.Owner, Status: t.Status, Amount: payment}, nil
	})
	if err != nil {
		return IssuedTicket{}, err
	}
	return out, nil
}

// ClaimTicket transfers the ticket token from the contract to the owner.
func (e *Engine) ClaimTicket(ctx context.Context, call Call, ticketID uint64) error {
	return e.mutate(ctx, call, ActivityClaimed, func(ctx context.Context, tx Tx) (Activity, error) {
		inst, err := configured(ctx, tx)
		if err != nil {
			return Activity{}, err
		}
		t, err := loadTicket(ctx, tx, ticketID)
		if err != nil {
			return Activity{}, err
		}
		if err := authorizeOwner(t, call.Caller); err != nil {
			return Activity{}, err
		}
		if t.Status != model.StatusPending {
			return Activity{}, fmt.Errorf("%w: ticket is %s", ErrInvalidState, t.Status)
		}
		if err := tx.TransferToken(ctx, t.TokenID, inst.Contract(), t.Owner, false); err != nil {
			return Activity{}, err
		}
		if err := tx.UpdateStatus(ctx, ticketID, model.StatusClaimed); err != nil {
			return Activity{}, err
		}
		return Activity{TicketID: ticketID, TokenID: t.TokenID, Owner: t.Owner, Status: model.StatusClaimed}, nil
	})
}

// CheckIn marks a claimed ticket as used.  Only the organizer may call it.
func (e *Engine) CheckIn(ctx context.Context, call Call, ticketID uint64) error {
	return e.mutate(ctx, call, ActivityCheckedIn, func(ctx context.Context, tx Tx) (Activity, error) {
		inst, err := configured(ctx, tx)
		if err != nil {
			return Activity{}, err
		}
		t, err := loadTicket(ctx, tx, ticketID)
		if err != nil {
			return Activity{}, err
		}
		if err := authorizeOrganizer(inst, call.Caller); err != nil {
			return Activity{}, err
		}
		if t.Status != model.StatusClaimed {
			return Activity{}, fmt.Errorf("%w: ticket is %s", ErrInvalidState, t.Status)
		}
		if err := tx.UpdateStatus(ctx, ticketID, model.StatusUsed); err != nil {
			return Activity{}, err
		}
		return Activity{TicketID: ticketID, TokenID: t.TokenID, Owner: t.Owner, Status: model.StatusUsed}, nil
	})
}

// CancelTicket refunds the ticket price minus the penalty to the owner and
// pays the penalty to the organizer.  Cancellation must happen strictly
// before the deadline; a zero deadline disables it.
func (e *Engine) CancelTicket(ctx context.Context, call Call, ticketID uint64) (CancelReceipt, error) {
	var out CancelReceipt
	err := e.mutate(ctx, call, ActivityCancelled, func(ctx context.Context, tx Tx) (Activity, error) {
		inst, err := configured(ctx, tx)
		if err != nil {
			return Activity{}, err
		}
		t, err := loadTicket(ctx, tx, ticketID)
		if err != nil {
			return Activity{}, err
		}
		if err := authorizeOwner(t, call.Caller); err != nil {
			return Activity{}, err
		}
		if !e.cancellable(t.Status) {
			return Activity{}, fmt.Errorf("%w: ticket is %s", ErrInvalidState, t.Status)
		}
		cfg := inst.Config
		now := e.clock.Now().Unix()
		if cfg.CancellationDeadline == 0 || now < 0 || uint64(now) >= cfg.CancellationDeadline {
			return Activity{}, ErrDeadlinePassed
		}
		parts, err := split.Cancellation(cfg.Price, cfg.PenaltyPercentage)
		if err != nil {
			return Activity{}, splitErr(err)
		}

		reclaimed := t.Status == model.StatusClaimed
		if reclaimed {
			if err := tx.TransferToken(ctx, t.TokenID, t.Owner, inst.Contract(), true); err != nil {
				return Activity{}, err
			}
		}
		if err := payIfPositive(ctx, tx, cfg.Organizer, parts.Kept, model.TransferPenalty); err != nil {
			return Activity{}, err
		}
		if err := payIfPositive(ctx, tx, t.Owner, parts.Passed, model.TransferRefund); err != nil {
			return Activity{}, err
		}
		t.Status = model.StatusCancelled
		t.ResalePrice = 0
		if err := tx.PutTicket(ctx, ticketID, t); err != nil {
			return Activity{}, err
		}

		out = CancelReceipt{TicketID: ticketID, Penalty: parts.Kept, Refund: parts.Passed, Reclaimed: reclaimed}
		return Activity{TicketID: ticketID, TokenID: t.TokenID, Owner: t.Owner, Status: t.Status, Amount: parts.Passed}, nil
	})
	if err != nil {
		return CancelReceipt{}, err
	}
	return out, nil
}

func (e *Engine) cancellable(s model.Status) bool {
	switch s {
	case model.StatusPending:
		return true
	case model.StatusClaimed:
		return e.policy == CancelWithClawback
	}
	return false
}

// WithdrawFunds pays amount from the contract balance to the organizer.
func (e *Engine) WithdrawFunds(ctx context.Context, call Call, amount uint64) error {
	return e.mutate(ctx, call, ActivityWithdrawn, func(ctx context.Context, tx Tx) (Activity, error) {
		inst, err := configured(ctx, tx)
		if err != nil {
			return Activity{}, err
		}
		if err := authorizeOrganizer(inst, call.Caller); err != nil {
			return Activity{}, err
		}
		if amount == 0 {
			return Activity{}, fmt.Errorf("%w: amount must be positive", ErrInvalidPrice)
		}
		if amount > inst.Balance {
			return Activity{}, ErrInsufficientBalance
		}
		if err := tx.Pay(ctx, inst.Config.Organizer, amount, model.TransferWithdrawal); err != nil {
			return Activity{}, err
		}
		return Activity{Owner: inst.Config.Organizer, Amount: amount}, nil
	})
}
