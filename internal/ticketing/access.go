package ticketing

import (
	"fmt"

	"github.com/iliyamo/ticket-escrow/internal/model"
)

// The three authorization checks.  Each one compares the caller with a
// single identity; there is no delegation.

func authorizeInitializer(inst model.Instance, caller model.Address) error {
	if caller.IsZero() || caller != inst.Creator {
		return fmt.Errorf("%w: only the creator may configure the event", ErrUnauthorized)
	}
	return nil
}

func authorizeOrganizer(inst model.Instance, caller model.Address) error {
	if caller.IsZero() || caller != inst.Config.Organizer {
		return fmt.Errorf("%w: caller is not the organizer", ErrUnauthorized)
	}
	return nil
}

func authorizeOwner(t model.Ticket, caller model.Address) error {
	if caller.IsZero() || caller != t.Owner {
		return fmt.Errorf("%w: caller does not own the ticket", ErrUnauthorized)
	}
	return nil
}
