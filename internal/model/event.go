package model

import "time"

// EventConfig holds the sale parameters of one event instance.  It is
// written once by the configuration operation; afterwards only Sold changes.
//
// Fields:
//
//	Price                – unit price in the smallest currency unit.
//	Supply               – maximum number of tickets ever issued.
//	Sold                 – tickets issued so far, never above Supply.
//	Organizer            – identity allowed to check in and withdraw.
//	CancellationDeadline – unix seconds; cancellation allowed strictly before it, 0 disables.
//	PenaltyPercentage    – share of the price kept on cancellation, 0..100.
//	RoyaltyPercentage    – share of a resale paid to the organizer, 0..100.
type EventConfig struct {
	Price                uint64  `json:"price"`
	Supply               uint64  `json:"supply"`
	Sold                 uint64  `json:"sold"`
	Organizer            Address `json:"organizer"`
	CancellationDeadline uint64  `json:"cancellation_deadline"`
	PenaltyPercentage    uint64  `json:"penalty_percentage"`
	RoyaltyPercentage    uint64  `json:"royalty_percentage"`
}

// Instance is one deployed event.  Creator is the deploying identity and the
// only caller allowed to configure it.  Balance is the escrow balance held by
// the instance contract.
type Instance struct {
	ID          uint64      // event_instances.id
	Creator     Address     // event_instances.creator
	Initialized bool        // event_instances.initialized
	Config      EventConfig // sale parameters (zero until initialized)
	Balance     uint64      // event_instances.balance
	CreatedAt   time.Time   // event_instances.created_at
}

// Contract returns the escrow address of the instance.
func (i Instance) Contract() Address { return ContractAddress(i.ID) }
