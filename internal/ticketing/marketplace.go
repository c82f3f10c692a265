package ticketing

import (
	"context"
	"fmt"

	"github.com/iliyamo/ticket-escrow/internal/model"
	"github.com/iliyamo/ticket-escrow/internal/split"
)

// ResaleReceipt reports how a resale payment was split.
type ResaleReceipt struct {
	TicketID   uint64        `json:"ticket_id"`
	Seller     model.Address `json:"seller"`
	Buyer      model.Address `json:"buyer"`
	Price      uint64        `json:"price"`
	Royalty    uint64        `json:"royalty"`
	SellerTake uint64        `json:"seller_take"`
}

// ListForResale offers a claimed ticket at price.
func (e *Engine) ListForResale(ctx context.Context, call Call, ticketID, price uint64) error {
	return e.mutate(ctx, call, ActivityListed, func(ctx context.Context, tx Tx) (Activity, error) {
		if _, err := configured(ctx, tx); err != nil {
			return Activity{}, err
		}
		t, err := loadTicket(ctx, tx, ticketID)
		if err != nil {
			return Activity{}, err
		}
		if err := authorizeOwner(t, call.Caller); err != nil {
			return Activity{}, err
		}
		if t.Status != model.StatusClaimed {
			return Activity{}, fmt.Errorf("%w: ticket is %s", ErrInvalidState, t.Status)
		}
		if price == 0 {
			return Activity{}, fmt.Errorf("%w: resale price must be positive", ErrInvalidPrice)
		}
		t.Status = model.StatusListed
		t.ResalePrice = price
		if err := tx.PutTicket(ctx, ticketID, t); err != nil {
			return Activity{}, err
		}
		return Activity{TicketID: ticketID, TokenID: t.TokenID, Owner: t.Owner, Status: t.Status, Amount: price}, nil
	})
}

// DelistResale withdraws a listing.
func (e *Engine) DelistResale(ctx context.Context, call Call, ticketID uint64) error {
	return e.mutate(ctx, call, ActivityDelisted, func(ctx context.Context, tx Tx) (Activity, error) {
		if _, err := configured(ctx, tx); err != nil {
			return Activity{}, err
		}
		t, err := loadTicket(ctx, tx, ticketID)
		if err != nil {
			return Activity{}, err
		}
		if err := authorizeOwner(t, call.Caller); err != nil {
			return Activity{}, err
		}
		if t.Status != model.StatusListed {
			return Activity{}, fmt.Errorf("%w: ticket is %s", ErrInvalidState, t.Status)
		}
		t.Status = model.StatusClaimed
		t.ResalePrice = 0
		if err := tx.PutTicket(ctx, ticketID, t); err != nil {
			return Activity{}, err
		}
		return Activity{TicketID: ticketID, TokenID: t.TokenID, Owner: t.Owner, Status: t.Status}, nil
	})
}

// BuyResale buys a listed ticket for exactly its resale price.  The royalty
// goes to the organizer, the rest to the seller, and the token moves from
// the seller to the buyer.
func (e *Engine) BuyResale(ctx context.Context, call Call, ticketID, payment uint64) (ResaleReceipt, error) {
	var out ResaleReceipt
	err := e.mutate(ctx, call, ActivityResold, func(ctx context.Context, tx Tx) (Activity, error) {
		inst, err := configured(ctx, tx)
		if err != nil {
			return Activity{}, err
		}
		t, err := loadTicket(ctx, tx, ticketID)
		if err != nil {
			return Activity{}, err
		}
		if call.Caller.IsZero() {
			return Activity{}, fmt.Errorf("%w: missing caller", ErrUnauthorized)
		}
		if t.Status != model.StatusListed {
			return Activity{}, fmt.Errorf("%w: ticket is %s", ErrInvalidState, t.Status)
		}
		if t.Owner == call.Caller {
			return Activity{}, fmt.Errorf("%w: seller cannot buy own listing", ErrInvalidState)
		}
		if t.ResalePrice == 0 {
			return Activity{}, ErrInvalidPrice
		}
		if payment != t.ResalePrice {
			return Activity{}, fmt.Errorf("%w: want %d, got %d", ErrIncorrectPayment, t.ResalePrice, payment)
		}
		parts, err := split.Resale(t.ResalePrice, inst.Config.RoyaltyPercentage)
		if err != nil {
			return Activity{}, splitErr(err)
		}

		seller := t.Owner
		if err := tx.Collect(ctx, call.Caller, payment, model.TransferResalePayment); err != nil {
			return Activity{}, err
		}
		if err := payIfPositive(ctx, tx, inst.Config.Organizer, parts.Kept, model.TransferRoyalty); err != nil {
			return Activity{}, err
		}
		if err := payIfPositive(ctx, tx, seller, parts.Passed, model.TransferSellerPayout); err != nil {
			return Activity{}, err
		}
		if err := tx.TransferToken(ctx, t.TokenID, seller, call.Caller, false); err != nil {
			return Activity{}, err
		}
		t.Owner = call.Caller
		t.Status = model.StatusClaimed
		t.ResalePrice = 0
		if err := tx.PutTicket(ctx, ticketID, t); err != nil {
			return Activity{}, err
		}

		out = ResaleReceipt{
			TicketID:   ticketID,
			Seller:     seller,
			Buyer:      call.Caller,
			Price:      payment,
			Royalty:    parts.Kept,
			SellerTake: parts.Passed,
		}
		return Activity{TicketID: ticketID, TokenID: t.TokenID, Owner: t.Owner, Status: t.Status, Amount: payment}, nil
	})
	if err != nil {
		return ResaleReceipt{}, err
	}
	return out, nil
}
