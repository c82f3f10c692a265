package memstore

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/ticket-escrow/internal/model"
	"github.com/iliyamo/ticket-escrow/internal/ticketing"
)

func testAddr(b byte) model.Address {
	var a model.Address
	a[0] = b
	return a
}

func TestAtomicRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := New(nil)
	inst, err := s.CreateInstance(ctx, testAddr(1))
	require.NoError(t, err)
	payer := testAddr(2)
	_, err = s.Deposit(ctx, payer, 100)
	require.NoError(t, err)

	boom := errors.New("boom")
	err = s.Atomic(ctx, inst.ID, func(ctx context.Context, tx ticketing.Tx) error {
		require.NoError(t, tx.SaveConfig(ctx, model.EventConfig{Price: 5, Supply: 1}))
		require.NoError(t, tx.Collect(ctx, payer, 60, model.TransferTicketPayment))
		id, err := tx.MintToken(ctx)
		require.NoError(t, err)
		require.NoError(t, tx.PutTicket(ctx, 0, model.Ticket{TokenID: id, Owner: payer}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	err = s.View(ctx, inst.ID, func(ctx context.Context, tx ticketing.Tx) error {
		got, _ := tx.Instance(ctx)
		assert.False(t, got.Initialized)
		assert.Zero(t, got.Balance)
		_, ok, err := tx.GetTicket(ctx, 0)
		assert.False(t, ok)
		return err
	})
	require.NoError(t, err)

	w, _ := s.Wallet(ctx, payer)
	assert.Equal(t, uint64(100), w.Balance)
	_, minted := s.Token(1)
	assert.False(t, minted)
}

func TestStagedWritesVisibleInsideUnit(t *testing.T) {
	ctx := context.Background()
	s := New(nil)
	inst, _ := s.CreateInstance(ctx, testAddr(1))
	owner := testAddr(3)

	err := s.Atomic(ctx, inst.ID, func(ctx context.Context, tx ticketing.Tx) error {
		id, err := tx.MintToken(ctx)
		require.NoError(t, err)
		require.NoError(t, tx.PutTicket(ctx, 7, model.Ticket{TokenID: id, Owner: owner}))
		require.NoError(t, tx.UpdateStatus(ctx, 7, model.StatusClaimed))
		require.NoError(t, tx.TransferToken(ctx, id, inst.Contract(), owner, false))

		tk, ok, err := tx.GetTicket(ctx, 7)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, model.StatusClaimed, tk.Status)

		entries, err := tx.TicketsByOwner(ctx, owner)
		require.NoError(t, err)
		assert.Len(t, entries, 1)

		err = tx.TransferToken(ctx, id, inst.Contract(), owner, false)
		assert.ErrorIs(t, err, ticketing.ErrInvalidState, "contract no longer holds the token")
		return nil
	})
	require.NoError(t, err)

	tok, ok := s.Token(1)
	require.True(t, ok)
	assert.Equal(t, owner, tok.Holder)
	assert.Len(t, s.TokenMoves(), 1)
}

func TestViewIsReadOnly(t *testing.T) {
	ctx := context.Background()
	s := New(nil)
	inst, _ := s.CreateInstance(ctx, testAddr(1))
	err := s.View(ctx, inst.ID, func(ctx context.Context, tx ticketing.Tx) error {
		return tx.PutTicket(ctx, 0, model.Ticket{})
	})
	assert.ErrorIs(t, err, errReadOnly)
}

func TestPayAndCollectBounds(t *testing.T) {
	ctx := context.Background()
	s := New(nil)
	inst, _ := s.CreateInstance(ctx, testAddr(1))

	err := s.Atomic(ctx, inst.ID, func(ctx context.Context, tx ticketing.Tx) error {
		return tx.Pay(ctx, testAddr(2), 1, model.TransferWithdrawal)
	})
	assert.ErrorIs(t, err, ticketing.ErrInsufficientBalance)

	err = s.Atomic(ctx, inst.ID, func(ctx context.Context, tx ticketing.Tx) error {
		return tx.Collect(ctx, testAddr(2), 1, model.TransferTicketPayment)
	})
	assert.ErrorIs(t, err, ticketing.ErrInsufficientFunds)

	_, err = s.Deposit(ctx, testAddr(2), math.MaxUint64)
	require.NoError(t, err)
	_, err = s.Deposit(ctx, testAddr(2), 1)
	assert.ErrorIs(t, err, ticketing.ErrArithmeticOverflow)
}

func TestTransfersNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := New(nil)
	a := testAddr(9)
	for i := uint64(1); i <= 3; i++ {
		_, err := s.Deposit(ctx, a, i)
		require.NoError(t, err)
	}
	got, err := s.Transfers(ctx, a, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, uint64(3), got[0].Amount)
	assert.Equal(t, uint64(2), got[1].Amount)
	assert.Equal(t, model.TransferDeposit, got[0].Kind)
}

func TestUnknownInstance(t *testing.T) {
	s := New(nil)
	err := s.Atomic(context.Background(), 42, func(context.Context, ticketing.Tx) error { return nil })
	assert.ErrorIs(t, err, ticketing.ErrNotFound)
}

func TestAccounts(t *testing.T) {
	ctx := context.Background()
	a := NewAccounts()

	id, err := a.Create(ctx, " Alice@Example.com ", "hash", model.RoleUser, testAddr(1))
	require.NoError(t, err)
	_, err = a.Create(ctx, "alice@example.com", "hash", model.RoleUser, testAddr(2))
	assert.ErrorIs(t, err, model.ErrEmailExists)

	u, err := a.GetByEmail(ctx, "ALICE@example.com")
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)
	_, err = a.GetByID(ctx, 99)
	assert.ErrorIs(t, err, model.ErrUserNotFound)

	require.NoError(t, a.StoreRefresh(ctx, id, "h1", time.Now().Add(time.Hour)))
	require.NoError(t, a.StoreRefresh(ctx, id, "h2", time.Now().Add(-time.Hour)))
	got, err := a.ValidateRefresh(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, id, got)
	_, err = a.ValidateRefresh(ctx, "h2")
	assert.ErrorIs(t, err, model.ErrRefreshInvalid)

	require.NoError(t, a.RevokeAllForUser(ctx, id))
	_, err = a.ValidateRefresh(ctx, "h1")
	assert.ErrorIs(t, err, model.ErrRefreshInvalid)
}
