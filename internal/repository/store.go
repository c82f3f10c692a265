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

// Store is the MySQL execution substrate for the ticketing engine.  Each
// atomic unit is one transaction that starts by locking the instance row
// with SELECT ... FOR UPDATE, so concurrent units on the same instance run
// one after another.  Instance changes (config, sold, balance) are kept on
// an in-memory copy and written back just before commit.
type Store struct {
	db *sql.DB
}

// NewStore returns a Store bound to db.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

var _ ticketing.Store = (*Store)(nil)

const instanceColumns = `id, creator, initialized, price, supply, sold, organizer,
	cancellation_deadline, penalty_percentage, royalty_percentage, balance, created_at`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanInstance reads one row selected with instanceColumns.  Addresses are
// stored as BINARY(32) and converted back here.
func scanInstance(row rowScanner) (model.Instance, error) {
	var (
		inst               model.Instance
		creator, organizer []byte
	)
	err := row.Scan(&inst.ID, &creator, &inst.Initialized, &inst.Config.Price, &inst.Config.Supply,
		&inst.Config.Sold, &organizer, &inst.Config.CancellationDeadline, &inst.Config.PenaltyPercentage,
		&inst.Config.RoyaltyPercentage, &inst.Balance, &inst.CreatedAt)
	if err != nil {
		return model.Instance{}, err
	}
	if inst.Creator, err = model.AddressFromBytes(creator); err != nil {
		return model.Instance{}, fmt.Errorf("instance %d creator: %w", inst.ID, err)
	}
	if inst.Config.Organizer, err = model.AddressFromBytes(organizer); err != nil {
		return model.Instance{}, fmt.Errorf("instance %d organizer: %w", inst.ID, err)
	}
	return inst, nil
}

// CreateInstance inserts an unconfigured event_instances row and returns it
// as stored, including the database-assigned id and created_at.
func (s *Store) CreateInstance(ctx context.Context, creator model.Address) (model.Instance, error) {
	var zero model.Address // organizer stays zero until configuration
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO event_instances (creator, organizer) VALUES (?, ?)`, creator[:], zero[:])
	if err != nil {
		return model.Instance{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Instance{}, err
	}
	return scanInstance(s.db.QueryRowContext(ctx,
		`SELECT `+instanceColumns+` FROM event_instances WHERE id = ?`, id))
}

// Atomic runs fn as one mutating unit on instanceID.  Any error returned by
// fn rolls back every write it made.
func (s *Store) Atomic(ctx context.Context, instanceID uint64, fn func(ctx context.Context, tx ticketing.Tx) error) error {
	return s.run(ctx, instanceID, false, fn)
}

// View runs fn in a read-only transaction without locking the instance.
func (s *Store) View(ctx context.Context, instanceID uint64, fn func(ctx context.Context, tx ticketing.Tx) error) error {
	return s.run(ctx, instanceID, true, fn)
}

// run opens the transaction, loads the instance and hands a sqlTx to fn.
// The deferred block commits on success and rolls back otherwise.
func (s *Store) run(ctx context.Context, instanceID uint64, readOnly bool, fn func(ctx context.Context, tx ticketing.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: readOnly})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	q := `SELECT ` + instanceColumns + ` FROM event_instances WHERE id = ?`
	if !readOnly {
		// Serialize all mutating units of this instance on its row lock.
		q += ` FOR UPDATE`
	}
	inst, err := scanInstance(tx.QueryRowContext(ctx, q, instanceID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: instance %d", ticketing.ErrNotFound, instanceID)
		}
		return err
	}

	t := &sqlTx{tx: tx, inst: inst, readOnly: readOnly}
	if err = fn(ctx, t); err != nil {
		return err
	}
	// Nothing to write back for queries or units that left the row alone.
	if readOnly || !t.dirty {
		return nil
	}
	return t.flushInstance(ctx)
}

// Deposit credits a wallet and journals the deposit.
func (s *Store) Deposit(ctx context.Context, to model.Address, amount uint64) (w model.Wallet, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Wallet{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	bal, err := lockWallet(ctx, tx, to)
	if err != nil {
		return model.Wallet{}, err
	}
	if amount > math.MaxUint64-bal {
		return model.Wallet{}, ticketing.ErrArithmeticOverflow
	}
	bal += amount
	if err = saveWallet(ctx, tx, to, bal); err != nil {
		return model.Wallet{}, err
	}
	var zero model.Address
	if err = journal(ctx, tx, 0, zero, to, amount, model.TransferDeposit); err != nil {
		return model.Wallet{}, err
	}
	return model.Wallet{Address: to, Balance: bal}, nil
}

// Wallet returns the balance of addr; missing rows read as zero.
func (s *Store) Wallet(ctx context.Context, addr model.Address) (model.Wallet, error) {
	var bal uint64
	err := s.db.QueryRowContext(ctx, `SELECT balance FROM wallets WHERE address = ?`, addr[:]).Scan(&bal)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return model.Wallet{}, err
	}
	return model.Wallet{Address: addr, Balance: bal}, nil
}

// Transfers lists the journal entries touching addr, newest first.
func (s *Store) Transfers(ctx context.Context, addr model.Address, limit int) ([]model.Transfer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, COALESCE(instance_id, 0), from_addr, to_addr, amount, kind, created_at
		   FROM transfers
		  WHERE from_addr = ? OR to_addr = ?
		  ORDER BY id DESC
		  LIMIT ?`, addr[:], addr[:], limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Transfer{}
	for rows.Next() {
		var (
			tr       model.Transfer
			from, to []byte
			kind     string
		)
		if err := rows.Scan(&tr.ID, &tr.InstanceID, &from, &to, &tr.Amount, &kind, &tr.CreatedAt); err != nil {
			return nil, err
		}
		if tr.From, err = model.AddressFromBytes(from); err != nil {
			return nil, err
		}
		if tr.To, err = model.AddressFromBytes(to); err != nil {
			return nil, err
		}
		tr.Kind = model.TransferKind(kind)
		out = append(out, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// TokenByID returns a token row.
func (s *Store) TokenByID(ctx context.Context, id uint64) (model.Token, error) {
	var (
		tok    model.Token
		holder []byte
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, instance_id, holder FROM tokens WHERE id = ?`, id).Scan(&tok.ID, &tok.InstanceID, &holder)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Token{}, ticketing.ErrNotFound
		}
		return model.Token{}, err
	}
	tok.Holder, err = model.AddressFromBytes(holder)
	return tok, err
}

func lockWallet(ctx context.Context, tx *sql.Tx, addr model.Address) (uint64, error) {
	var bal uint64
	err := tx.QueryRowContext(ctx,
		`SELECT balance FROM wallets WHERE address = ? FOR UPDATE`, addr[:]).Scan(&bal)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}
	return bal, nil
}

func saveWallet(ctx context.Context, tx *sql.Tx, addr model.Address, bal uint64) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO wallets (address, balance) VALUES (?, ?)
		 ON DUPLICATE KEY UPDATE balance = VALUES(balance)`, addr[:], bal)
	return err
}

func journal(ctx context.Context, tx *sql.Tx, instanceID uint64, from, to model.Address, amount uint64, kind model.TransferKind) error {
	var inst any
	if instanceID != 0 {
		inst = instanceID
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO transfers (instance_id, from_addr, to_addr, amount, kind) VALUES (?, ?, ?, ?, ?)`,
		inst, from[:], to[:], amount, string(kind))
	return err
}
