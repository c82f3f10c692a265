package model

import (
	"fmt"
	"strings"
)

// Status is the lifecycle state of a ticket.  The numeric values are part of
// the persisted record layout and must not be renumbered.
type Status uint8

const (
	StatusPending   Status = 0 // issued and paid, token still held by the contract
	StatusClaimed   Status = 1 // token transferred to the owner
	StatusUsed      Status = 2 // checked in at the venue (terminal)
	StatusListed    Status = 3 // offered for resale at ResalePrice
	StatusCancelled Status = 4 // refunded (terminal)
)

// Valid reports whether s is one of the known states.
func (s Status) Valid() bool { return s <= StatusCancelled }

// Terminal reports whether no further transition is possible from s.
func (s Status) Terminal() bool { return s == StatusUsed || s == StatusCancelled }

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "PENDING"
	case StatusClaimed:
		return "CLAIMED"
	case StatusUsed:
		return "USED"
	case StatusListed:
		return "LISTED"
	case StatusCancelled:
		return "CANCELLED"
	}
	return fmt.Sprintf("STATUS(%d)", uint8(s))
}

// MarshalText renders the status name in JSON responses.
func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText accepts the names produced by MarshalText.
func (s *Status) UnmarshalText(b []byte) error {
	parsed, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseStatus maps a status name (case-insensitive) to its value.
func ParseStatus(name string) (Status, error) {
	for st := StatusPending; st <= StatusCancelled; st++ {
		if strings.EqualFold(name, st.String()) {
			return st, nil
		}
	}
	return 0, fmt.Errorf("unknown ticket status %q", name)
}

// Ticket is one issued admission right.  Invariant: ResalePrice > 0 exactly
// when Status is StatusListed.
//
// Fields:
//
//	TokenID     – id of the token minted for this ticket.
//	Owner       – current holder of the admission right.
//	Status      – lifecycle state.
//	ResalePrice – asking price while listed, 0 otherwise.
type Ticket struct {
	TokenID     uint64  `json:"token_id"`
	Owner       Address `json:"owner"`
	Status      Status  `json:"status"`
	ResalePrice uint64  `json:"resale_price"`
}

// Token is the unique transferable unit that represents custody of a ticket.
type Token struct {
	ID         uint64  // tokens.id, never reused
	InstanceID uint64  // tokens.instance_id
	Holder     Address // tokens.holder
}
