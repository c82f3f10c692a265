package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/iliyamo/ticket-escrow/internal/model"
	"github.com/iliyamo/ticket-escrow/internal/ticketing"
)

// sqlTx implements ticketing.Tx on top of one *sql.Tx.  The instance row
// is read (and, for writes, locked with FOR UPDATE) when the transaction
// opens; changes to it are kept in inst and written back once by
// flushInstance before commit.  Ticket, token and wallet rows are locked
// individually as they are touched.
type sqlTx struct {
	tx       *sql.Tx        // underlying database transaction
	inst     model.Instance // working copy of the locked instance row
	readOnly bool           // true for query transactions; mutators refuse
	dirty    bool           // inst differs from the stored row
}

// writable reports errReadOnly for transactions opened by Store.View.
func (t *sqlTx) writable() error {
	if t.readOnly {
		return errReadOnly
	}
	return nil
}

// flushInstance writes the working copy of the instance back to its row.
// Store.Update calls it only when dirty is set.
func (t *sqlTx) flushInstance(ctx context.Context) error {
	c := t.inst.Config
	_, err := t.tx.ExecContext(ctx,
		`UPDATE event_instances
		    SET initialized = ?, price = ?, supply = ?, sold = ?, organizer = ?,
		        cancellation_deadline = ?, penalty_percentage = ?, royalty_percentage = ?, balance = ?
		  WHERE id = ?`,
		t.inst.Initialized, c.Price, c.Supply, c.Sold, c.Organizer[:],
		c.CancellationDeadline, c.PenaltyPercentage, c.RoyaltyPercentage, t.inst.Balance, t.inst.ID)
	return err
}

// Instance returns the working copy, including changes not yet flushed.
func (t *sqlTx) Instance(ctx context.Context) (model.Instance, error) {
	return t.inst, nil
}

// SaveConfig marks the instance initialized with cfg.  The row itself is
// updated by flushInstance.
func (t *sqlTx) SaveConfig(ctx context.Context, cfg model.EventConfig) error {
	if err := t.writable(); err != nil {
		return err
	}
	t.inst.Config = cfg
	t.inst.Initialized = true
	t.dirty = true
	return nil
}

// GetTicket decodes the stored 49-byte record of ticket id.  A missing row
// is reported as ok=false rather than an error so callers can map it to
// ErrNotFound after their own checks.
func (t *sqlTx) GetTicket(ctx context.Context, id uint64) (model.Ticket, bool, error) {
	q := `SELECT record FROM tickets WHERE instance_id = ? AND ticket_id = ?`
	if !t.readOnly {
		// Lock the row so concurrent mutations of the same ticket serialize.
		q += ` FOR UPDATE`
	}
	var rec []byte
	err := t.tx.QueryRowContext(ctx, q, t.inst.ID, id).Scan(&rec)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Ticket{}, false, nil
		}
		return model.Ticket{}, false, err
	}
	tk, err := ticketing.DecodeRecord(rec)
	if err != nil {
		return model.Ticket{}, false, err
	}
	return tk, true, nil
}

// PutTicket stores tk under id, inserting or replacing the record.  The
// owner column duplicates the record's owner bytes so TicketsByOwner can
// use an index.
func (t *sqlTx) PutTicket(ctx context.Context, id uint64, tk model.Ticket) error {
	if err := t.writable(); err != nil {
		return err
	}
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO tickets (instance_id, ticket_id, record, owner) VALUES (?, ?, ?, ?)
		 ON DUPLICATE KEY UPDATE record = VALUES(record), owner = VALUES(owner)`,
		t.inst.ID, id, ticketing.EncodeRecord(tk), tk.Owner[:])
	return err
}

// UpdateStatus rewrites only the status byte of an existing record.
func (t *sqlTx) UpdateStatus(ctx context.Context, id uint64, s model.Status) error {
	if err := t.writable(); err != nil {
		return err
	}
	var rec []byte
	err := t.tx.QueryRowContext(ctx,
		`SELECT record FROM tickets WHERE instance_id = ? AND ticket_id = ? FOR UPDATE`,
		t.inst.ID, id).Scan(&rec)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: ticket %d", ticketing.ErrNotFound, id)
		}
		return err
	}
	// Patch the status byte in place; the rest of the record is unchanged.
	if err := ticketing.SetRecordStatus(rec, s); err != nil {
		return err
	}
	_, err = t.tx.ExecContext(ctx,
		`UPDATE tickets SET record = ? WHERE instance_id = ? AND ticket_id = ?`, rec, t.inst.ID, id)
	return err
}

// TicketsByOwner lists the instance's tickets owned by owner in id order.
// Rows are not locked; it is only used by queries.
func (t *sqlTx) TicketsByOwner(ctx context.Context, owner model.Address) ([]ticketing.TicketEntry, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT ticket_id, record FROM tickets WHERE instance_id = ? AND owner = ? ORDER BY ticket_id`,
		t.inst.ID, owner[:])
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ticketing.TicketEntry
	for rows.Next() {
		var (
			id  uint64
			rec []byte
		)
		if err := rows.Scan(&id, &rec); err != nil {
			return nil, err
		}
		tk, err := ticketing.DecodeRecord(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, ticketing.TicketEntry{ID: id, Ticket: tk})
	}
	return out, rows.Err()
}

// MintToken creates a token held by the instance contract.  The id comes
// from the AUTO_INCREMENT column, so ids are global and never reused.
func (t *sqlTx) MintToken(ctx context.Context) (uint64, error) {
	if err := t.writable(); err != nil {
		return 0, err
	}
	contract := t.inst.Contract()
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO tokens (instance_id, holder) VALUES (?, ?)`, t.inst.ID, contract[:])
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// TransferToken moves a token from one holder to another and appends a row
// to token_transfers.  forced marks a clawback that did not need the
// holder's consent.  The move fails if from is not the current holder.
func (t *sqlTx) TransferToken(ctx context.Context, tokenID uint64, from, to model.Address, forced bool) error {
	if err := t.writable(); err != nil {
		return err
	}
	var (
		instanceID uint64
		holder     []byte
	)
	err := t.tx.QueryRowContext(ctx,
		`SELECT instance_id, holder FROM tokens WHERE id = ? FOR UPDATE`, tokenID).Scan(&instanceID, &holder)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: token %d", ticketing.ErrNotFound, tokenID)
		}
		return err
	}
	current, err := model.AddressFromBytes(holder)
	if err != nil {
		return err
	}
	// Tokens of other instances are invisible here.
	if instanceID != t.inst.ID {
		return fmt.Errorf("%w: token %d", ticketing.ErrNotFound, tokenID)
	}
	if current != from {
		return fmt.Errorf("%w: token %d is not held by %s", ticketing.ErrInvalidState, tokenID, from)
	}
	if _, err := t.tx.ExecContext(ctx, `UPDATE tokens SET holder = ? WHERE id = ?`, to[:], tokenID); err != nil {
		return err
	}
	_, err = t.tx.ExecContext(ctx,
		`INSERT INTO token_transfers (token_id, from_addr, to_addr, forced) VALUES (?, ?, ?, ?)`,
		tokenID, from[:], to[:], forced)
	return err
}

// Collect debits from's wallet into the contract balance and journals the
// movement.  The wallet row is locked for the rest of the transaction.
func (t *sqlTx) Collect(ctx context.Context, from model.Address, amount uint64, kind model.TransferKind) error {
	if err := t.writable(); err != nil {
		return err
	}
	bal, err := lockWallet(ctx, t.tx, from)
	if err != nil {
		return err
	}
	if bal < amount {
		return ticketing.ErrInsufficientFunds // payer cannot cover it
	}
	if amount > math.MaxUint64-t.inst.Balance {
		return ticketing.ErrArithmeticOverflow
	}
	if err := saveWallet(ctx, t.tx, from, bal-amount); err != nil {
		return err
	}
	t.inst.Balance += amount
	t.dirty = true
	return journal(ctx, t.tx, t.inst.ID, from, t.inst.Contract(), amount, kind)
}

// Pay credits to's wallet out of the contract balance and journals it.
func (t *sqlTx) Pay(ctx context.Context, to model.Address, amount uint64, kind model.TransferKind) error {
	if err := t.writable(); err != nil {
		return err
	}
	if t.inst.Balance < amount {
		return ticketing.ErrInsufficientBalance // contract cannot cover it
	}
	bal, err := lockWallet(ctx, t.tx, to)
	if err != nil {
		return err
	}
	if amount > math.MaxUint64-bal {
		return ticketing.ErrArithmeticOverflow
	}
	if err := saveWallet(ctx, t.tx, to, bal+amount); err != nil {
		return err
	}
	t.inst.Balance -= amount
	t.dirty = true
	return journal(ctx, t.tx, t.inst.ID, t.inst.Contract(), to, amount, kind)
}
