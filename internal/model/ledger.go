package model

import "time"

// TransferKind labels an entry of the transfer journal.
type TransferKind string

const (
	TransferDeposit       TransferKind = "deposit"
	TransferTicketPayment TransferKind = "ticket_payment"
	TransferRefund        TransferKind = "refund"
	TransferPenalty       TransferKind = "penalty"
	TransferResalePayment TransferKind = "resale_payment"
	TransferSellerPayout  TransferKind = "seller_payout"
	TransferRoyalty       TransferKind = "royalty"
	TransferWithdrawal    TransferKind = "withdrawal"
)

// Transfer is one currency movement.  InstanceID is zero for wallet deposits
// that do not involve an event contract.
type Transfer struct {
	ID         uint64       `json:"id"`
	InstanceID uint64       `json:"instance_id,omitempty"`
	From       Address      `json:"from"`
	To         Address      `json:"to"`
	Amount     uint64       `json:"amount"`
	Kind       TransferKind `json:"kind"`
	CreatedAt  time.Time    `json:"created_at"`
}

// Wallet is the spendable balance of an account address.
type Wallet struct {
	Address Address `json:"address"`
	Balance uint64  `json:"balance"`
}
