package ticketing

import (
	"context"
	"fmt"
)

// Operation is one mutating request.  The set of operations is closed: only
// the types in this file implement it, and Execute handles each of them.
type Operation interface {
	operation()
	Name() string
}

type (
	Configure struct{ Params EventParams }
	Issue     struct{ Payment uint64 }
	Claim     struct{ TicketID uint64 }
	CheckInOp struct{ TicketID uint64 }
	Cancel    struct{ TicketID uint64 }
	Withdraw  struct{ Amount uint64 }
	List      struct{ TicketID, Price uint64 }
	Delist    struct{ TicketID uint64 }
	Buy       struct{ TicketID, Payment uint64 }
)

func (Configure) operation() {}
func (Issue) operation()     {}
func (Claim) operation()     {}
func (CheckInOp) operation() {}
func (Cancel) operation()    {}
func (Withdraw) operation()  {}
func (List) operation()      {}
func (Delist) operation()    {}
func (Buy) operation()       {}

func (Configure) Name() string { return ActivityConfigured }
func (Issue) Name() string     { return ActivityIssued }
func (Claim) Name() string     { return ActivityClaimed }
func (CheckInOp) Name() string { return ActivityCheckedIn }
func (Cancel) Name() string    { return ActivityCancelled }
func (Withdraw) Name() string  { return ActivityWithdrawn }
func (List) Name() string      { return ActivityListed }
func (Delist) Name() string    { return ActivityDelisted }
func (Buy) Name() string       { return ActivityResold }

// Result carries the output of an executed operation.  Only the field that
// matches the operation is set.
type Result struct {
	Issued *IssuedTicket
	Cancel *CancelReceipt
	Resale *ResaleReceipt
}

// Execute dispatches op to the matching engine method.
func (e *Engine) Execute(ctx context.Context, call Call, op Operation) (Result, error) {
	switch op := op.(type) {
	case Configure:
		return Result{}, e.ConfigureEvent(ctx, call, op.Params)
	case Issue:
		it, err := e.IssueTicket(ctx, call, op.Payment)
		if err != nil {
			return Result{}, err
		}
		return Result{Issued: &it}, nil
	case Claim:
		return Result{}, e.ClaimTicket(ctx, call, op.TicketID)
	case CheckInOp:
		return Result{}, e.CheckIn(ctx, call, op.TicketID)
	case Cancel:
		rc, err := e.CancelTicket(ctx, call, op.TicketID)
		if err != nil {
			return Result{}, err
		}
		return Result{Cancel: &rc}, nil
	case Withdraw:
		return Result{}, e.WithdrawFunds(ctx, call, op.Amount)
	case List:
		return Result{}, e.ListForResale(ctx, call, op.TicketID, op.Price)
	case Delist:
		return Result{}, e.DelistResale(ctx, call, op.TicketID)
	case Buy:
		rc, err := e.BuyResale(ctx, call, op.TicketID, op.Payment)
		if err != nil {
			return Result{}, err
		}
		return Result{Resale: &rc}, nil
	}
	return Result{}, fmt.Errorf("ticketing: unknown operation %T", op)
}
