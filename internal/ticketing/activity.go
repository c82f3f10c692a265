package ticketing

import (
	"time"

	"github.com/iliyamo/ticket-escrow/internal/model"
)

// Activity types, one per mutating operation.
const (
	ActivityConfigured = "event.configured"
	ActivityIssued     = "ticket.issued"
	ActivityClaimed    = "ticket.claimed"
	ActivityCheckedIn  = "ticket.checked_in"
	ActivityCancelled  = "ticket.cancelled"
	ActivityListed     = "ticket.listed"
	ActivityDelisted   = "ticket.delisted"
	ActivityResold     = "ticket.resold"
	ActivityWithdrawn  = "funds.withdrawn"
)

// Activity describes one committed operation.  Amount is the currency that
// moved (payment, refund, resale price or withdrawal), 0 if none did.
type Activity struct {
	Type       string        `json:"type"`
	InstanceID uint64        `json:"instance_id"`
	TicketID   uint64        `json:"ticket_id"`
	TokenID    uint64        `json:"token_id,omitempty"`
	Actor      model.Address `json:"actor"`
	Owner      model.Address `json:"owner"`
	Status     model.Status  `json:"status"`
	Amount     uint64        `json:"amount,omitempty"`
	At         time.Time     `json:"at"`
}
