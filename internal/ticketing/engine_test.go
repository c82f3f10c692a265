package ticketing_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/ticket-escrow/internal/clock"
	"github.com/iliyamo/ticket-escrow/internal/memstore"
	"github.com/iliyamo/ticket-escrow/internal/model"
	"github.com/iliyamo/ticket-escrow/internal/ticketing"
)

var start = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func addr(b byte) model.Address {
	var a model.Address
	a[0], a[31] = b, b
	return a
}

var (
	creator   = addr(1)
	organizer = creator // configuring caller
	alice     = addr(3)
	bob       = addr(4)
	carol     = addr(5)
)

type recorder struct {
	mu   sync.Mutex
	acts []ticketing.Activity
}

func (r *recorder) Notify(_ context.Context, a ticketing.Activity) error {
	r.mu.Lock()
	r.acts = append(r.acts, a)
	r.mu.Unlock()
	return nil
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, a := range r.acts {
		out = append(out, a.Type)
	}
	return out
}

type fixture struct {
	ctx   context.Context
	store *memstore.Store
	clk   *clock.Fake
	eng   *ticketing.Engine
	rec   *recorder
	inst  model.Instance
}

func defaultParams() ticketing.EventParams {
	return ticketing.EventParams{
		Price:                1000,
		Supply:               10,
		CancellationDeadline: uint64(start.Add(time.Hour).Unix()),
		PenaltyPercentage:    10,
		RoyaltyPercentage:    5,
	}
}

func newFixture(t *testing.T, p ticketing.EventParams, opts ...ticketing.Option) *fixture {
	t.Helper()
	f := unconfigured(t, opts...)
	require.NoError(t, f.eng.ConfigureEvent(f.ctx, f.call(creator), p))
	return f
}

func unconfigured(t *testing.T, opts ...ticketing.Option) *fixture {
	t.Helper()
	clk := clock.NewFake(start)
	store := memstore.New(clk)
	rec := &recorder{}
	opts = append([]ticketing.Option{ticketing.WithNotifier(rec)}, opts...)
	eng := ticketing.NewEngine(store, clk, opts...)
	f := &fixture{ctx: context.Background(), store: store, clk: clk, eng: eng, rec: rec}
	inst, err := eng.Deploy(f.ctx, creator)
	require.NoError(t, err)
	f.inst = inst
	return f
}

func (f *fixture) call(caller model.Address) ticketing.Call {
	return ticketing.Call{Instance: f.inst.ID, Caller: caller}
}

func (f *fixture) fund(t *testing.T, a model.Address, amount uint64) {
	t.Helper()
	_, err := f.eng.Deposit(f.ctx, a, amount)
	require.NoError(t, err)
}

func (f *fixture) balance(t *testing.T, a model.Address) uint64 {
	t.Helper()
	w, err := f.eng.Wallet(f.ctx, a)
	require.NoError(t, err)
	return w.Balance
}

func (f *fixture) ticket(t *testing.T, id uint64) ticketing.TicketView {
	t.Helper()
	v, err := f.eng.TicketInfo(f.ctx, f.inst.ID, id)
	require.NoError(t, err)
	return v
}

func (f *fixture) summary(t *testing.T) ticketing.Summary {
	t.Helper()
	s, err := f.eng.EventSummary(f.ctx, f.inst.ID)
	require.NoError(t, err)
	return s
}

// issue buys a ticket for buyer at the event price, funding the wallet first.
func (f *fixture) issue(t *testing.T, buyer model.Address) uint64 {
	t.Helper()
	price := f.summary(t).Price
	f.fund(t, buyer, price)
	it, err := f.eng.IssueTicket(f.ctx, f.call(buyer), price)
	require.NoError(t, err)
	return it.TicketID
}

func (f *fixture) claimed(t *testing.T, buyer model.Address) uint64 {
	t.Helper()
	id := f.issue(t, buyer)
	require.NoError(t, f.eng.ClaimTicket(f.ctx, f.call(buyer), id))
	return id
}

func TestSellOutAtSupply(t *testing.T) {
	p := defaultParams()
	p.Price = 1_000_000
	p.Supply = 2
	f := newFixture(t, p)

	f.fund(t, alice, 3_000_000)
	first, err := f.eng.IssueTicket(f.ctx, f.call(alice), 1_000_000)
	require.NoError(t, err)
	second, err := f.eng.IssueTicket(f.ctx, f.call(alice), 1_000_000)
	require.NoError(t, err)

	assert.Equal(t, uint64(0), first.TicketID)
	assert.Equal(t, uint64(1), second.TicketID)
	assert.NotEqual(t, first.Ticket.TokenID, second.Ticket.TokenID)

	_, err = f.eng.IssueTicket(f.ctx, f.call(alice), 1_000_000)
	assert.ErrorIs(t, err, ticketing.ErrSoldOut)

	s := f.summary(t)
	assert.Equal(t, uint64(2), s.Sold)
	assert.Zero(t, s.Remaining)
	assert.Equal(t, uint64(2_000_000), s.Balance)
	assert.Equal(t, uint64(1_000_000), f.balance(t, alice))

	tok, ok := f.store.Token(first.Ticket.TokenID)
	require.True(t, ok)
	assert.Equal(t, f.inst.Contract(), tok.Holder)
}

func TestClaimThenCheckIn(t *testing.T) {
	f := newFixture(t, defaultParams())
	id := f.issue(t, alice)
	assert.Equal(t, model.StatusPending, f.ticket(t, id).Status)

	err := f.eng.CheckIn(f.ctx, f.call(organizer), id)
	assert.ErrorIs(t, err, ticketing.ErrInvalidState, "pending ticket cannot be checked in")

	err = f.eng.ClaimTicket(f.ctx, f.call(bob), id)
	assert.ErrorIs(t, err, ticketing.ErrUnauthorized)

	require.NoError(t, f.eng.ClaimTicket(f.ctx, f.call(alice), id))
	v := f.ticket(t, id)
	assert.Equal(t, model.StatusClaimed, v.Status)
	tok, _ := f.store.Token(v.TokenID)
	assert.Equal(t, alice, tok.Holder)

	err = f.eng.ClaimTicket(f.ctx, f.call(alice), id)
	assert.ErrorIs(t, err, ticketing.ErrInvalidState)

	err = f.eng.CheckIn(f.ctx, f.call(alice), id)
	assert.ErrorIs(t, err, ticketing.ErrUnauthorized)

	require.NoError(t, f.eng.CheckIn(f.ctx, f.call(organizer), id))
	assert.Equal(t, model.StatusUsed, f.ticket(t, id).Status)

	err = f.eng.CheckIn(f.ctx, f.call(organizer), id)
	assert.ErrorIs(t, err, ticketing.ErrInvalidState)

	assert.Equal(t, []string{
		ticketing.ActivityConfigured,
		ticketing.ActivityIssued,
		ticketing.ActivityClaimed,
		ticketing.ActivityCheckedIn,
	}, f.rec.types())
}

func TestCancelSplitsPenaltyAndRefund(t *testing.T) {
	f := newFixture(t, defaultParams())
	id := f.issue(t, alice)

	rc, err := f.eng.CancelTicket(f.ctx, f.call(alice), id)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), rc.Penalty)
	assert.Equal(t, uint64(900), rc.Refund)
	assert.False(t, rc.Reclaimed)

	assert.Equal(t, uint64(100), f.balance(t, organizer))
	assert.Equal(t, uint64(900), f.balance(t, alice))
	assert.Zero(t, f.summary(t).Balance)

	v := f.ticket(t, id)
	assert.Equal(t, model.StatusCancelled, v.Status)
	assert.Zero(t, v.ResalePrice)

	_, err = f.eng.CancelTicket(f.ctx, f.call(alice), id)
	assert.ErrorIs(t, err, ticketing.ErrInvalidState)

	kinds := map[model.TransferKind]uint64{}
	transfers, err := f.eng.Transfers(f.ctx, alice, 10)
	require.NoError(t, err)
	for _, tr := range transfers {
		kinds[tr.Kind] += tr.Amount
	}
	assert.Equal(t, uint64(900), kinds[model.TransferRefund])
	assert.Equal(t, uint64(1000), kinds[model.TransferTicketPayment])
}

func TestResaleSplitsRoyalty(t *testing.T) {
	f := newFixture(t, defaultParams())
	id := f.claimed(t, alice)

	require.NoError(t, f.eng.ListForResale(f.ctx, f.call(alice), id, 500))
	v := f.ticket(t, id)
	assert.Equal(t, model.StatusListed, v.Status)
	assert.Equal(t, uint64(500), v.ResalePrice)

	f.fund(t, bob, 500)
	rc, err := f.eng.BuyResale(f.ctx, f.call(bob), id, 500)
	require.NoError(t, err)
	assert.Equal(t, uint64(25), rc.Royalty)
	assert.Equal(t, uint64(475), rc.SellerTake)
	assert.Equal(t, alice, rc.Seller)
	assert.Equal(t, bob, rc.Buyer)

	assert.Equal(t, uint64(25), f.balance(t, organizer))
	assert.Equal(t, uint64(475), f.balance(t, alice))
	assert.Zero(t, f.balance(t, bob))

	v = f.ticket(t, id)
	assert.Equal(t, bob, v.Owner)
	assert.Equal(t, model.StatusClaimed, v.Status)
	assert.Zero(t, v.ResalePrice)
	tok, _ := f.store.Token(v.TokenID)
	assert.Equal(t, bob, tok.Holder)

	// The price paid at issue stays in escrow.
	assert.Equal(t, uint64(1000), f.summary(t).Balance)
}

func TestBuyRequiresListing(t *testing.T) {
	f := newFixture(t, defaultParams())
	id := f.claimed(t, alice)
	f.fund(t, bob, 500)

	_, err := f.eng.BuyResale(f.ctx, f.call(bob), id, 500)
	assert.ErrorIs(t, err, ticketing.ErrInvalidState)

	require.NoError(t, f.eng.ListForResale(f.ctx, f.call(alice), id, 500))

	_, err = f.eng.BuyResale(f.ctx, f.call(alice), id, 500)
	assert.ErrorIs(t, err, ticketing.ErrInvalidState, "seller cannot buy own listing")

	_, err = f.eng.BuyResale(f.ctx, f.call(bob), id, 499)
	assert.ErrorIs(t, err, ticketing.ErrIncorrectPayment)

	_, err = f.eng.BuyResale(f.ctx, f.call(carol), id, 500)
	assert.ErrorIs(t, err, ticketing.ErrInsufficientFunds)

	v := f.ticket(t, id)
	assert.Equal(t, alice, v.Owner)
	assert.Equal(t, model.StatusListed, v.Status)
	assert.Equal(t, uint64(500), f.balance(t, bob))
}

func TestListDelistRoundTrip(t *testing.T) {
	f := newFixture(t, defaultParams())
	id := f.claimed(t, alice)
	before := f.ticket(t, id)

	for _, price := range []uint64{1, 500, 1_000_000, math.MaxUint64} {
		require.NoError(t, f.eng.ListForResale(f.ctx, f.call(alice), id, price))
		require.NoError(t, f.eng.DelistResale(f.ctx, f.call(alice), id))
		assert.Equal(t, before, f.ticket(t, id))
	}

	err := f.eng.ListForResale(f.ctx, f.call(alice), id, 0)
	assert.ErrorIs(t, err, ticketing.ErrInvalidPrice)

	err = f.eng.DelistResale(f.ctx, f.call(alice), id)
	assert.ErrorIs(t, err, ticketing.ErrInvalidState)

	err = f.eng.ListForResale(f.ctx, f.call(bob), id, 10)
	assert.ErrorIs(t, err, ticketing.ErrUnauthorized)

	pending := f.issue(t, bob)
	err = f.eng.ListForResale(f.ctx, f.call(bob), pending, 10)
	assert.ErrorIs(t, err, ticketing.ErrInvalidState)
}

func TestConfigureRules(t *testing.T) {
	f := unconfigured(t)

	_, err := f.eng.IssueTicket(f.ctx, f.call(alice), 1000)
	assert.ErrorIs(t, err, ticketing.ErrInvalidState)

	err = f.eng.ConfigureEvent(f.ctx, f.call(alice), defaultParams())
	assert.ErrorIs(t, err, ticketing.ErrUnauthorized)

	bad := defaultParams()
	bad.PenaltyPercentage = 101
	assert.ErrorIs(t, f.eng.ConfigureEvent(f.ctx, f.call(creator), bad), ticketing.ErrInvalidPercentage)

	bad = defaultParams()
	bad.RoyaltyPercentage = 250
	assert.ErrorIs(t, f.eng.ConfigureEvent(f.ctx, f.call(creator), bad), ticketing.ErrInvalidPercentage)

	bad = defaultParams()
	bad.Price = 0
	assert.ErrorIs(t, f.eng.ConfigureEvent(f.ctx, f.call(creator), bad), ticketing.ErrInvalidPrice)

	require.NoError(t, f.eng.ConfigureEvent(f.ctx, f.call(creator), defaultParams()))
	f.issue(t, alice)

	again := defaultParams()
	again.Price = 1
	err = f.eng.ConfigureEvent(f.ctx, f.call(creator), again)
	assert.ErrorIs(t, err, ticketing.ErrAlreadyInitialized)

	s := f.summary(t)
	assert.True(t, s.Initialized)
	assert.Equal(t, uint64(1000), s.Price)
	assert.Equal(t, uint64(1), s.Sold)
}

func TestOrganizerIsInitializer(t *testing.T) {
	f := newFixture(t, defaultParams())
	assert.Equal(t, creator, f.summary(t).Organizer)

	id := f.claimed(t, alice)
	assert.ErrorIs(t, f.eng.CheckIn(f.ctx, f.call(bob), id), ticketing.ErrUnauthorized)
	require.NoError(t, f.eng.CheckIn(f.ctx, f.call(creator), id))
	require.NoError(t, f.eng.WithdrawFunds(f.ctx, f.call(creator), 1000))
	assert.Equal(t, uint64(1000), f.balance(t, creator))
}

// journalKinds sums the journal entries of a by kind.
func journalKinds(t *testing.T, f *fixture, a model.Address) map[model.TransferKind]uint64 {
	t.Helper()
	transfers, err := f.eng.Transfers(f.ctx, a, 100)
	require.NoError(t, err)
	kinds := map[model.TransferKind]uint64{}
	for _, tr := range transfers {
		assert.NotZero(t, tr.Amount, "zero-value transfer %s recorded", tr.Kind)
		kinds[tr.Kind] += tr.Amount
	}
	return kinds
}

func TestCancelSkipsEmptySide(t *testing.T) {
	for _, tc := range []struct {
		name            string
		pct             uint64
		penalty, refund uint64
	}{
		{"no penalty", 0, 0, 1000},
		{"full penalty", 100, 1000, 0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			p := defaultParams()
			p.PenaltyPercentage = tc.pct
			f := newFixture(t, p)
			id := f.issue(t, alice)

			rc, err := f.eng.CancelTicket(f.ctx, f.call(alice), id)
			require.NoError(t, err)
			assert.Equal(t, tc.penalty, rc.Penalty)
			assert.Equal(t, tc.refund, rc.Refund)
			assert.Equal(t, tc.refund, f.balance(t, alice))
			assert.Equal(t, tc.penalty, f.balance(t, organizer))
			assert.Zero(t, f.summary(t).Balance)

			owner := journalKinds(t, f, alice)
			_, refunded := owner[model.TransferRefund]
			assert.Equal(t, tc.refund > 0, refunded)
			org := journalKinds(t, f, organizer)
			_, penalized := org[model.TransferPenalty]
			assert.Equal(t, tc.penalty > 0, penalized)
		})
	}
}

func TestResaleSkipsEmptySide(t *testing.T) {
	for _, tc := range []struct {
		name          string
		pct           uint64
		royalty, take uint64
	}{
		{"no royalty", 0, 0, 500},
		{"full royalty", 100, 500, 0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			p := defaultParams()
			p.RoyaltyPercentage = tc.pct
			f := newFixture(t, p)
			id := f.claimed(t, alice)
			require.NoError(t, f.eng.ListForResale(f.ctx, f.call(alice), id, 500))
			f.fund(t, bob, 500)

			rc, err := f.eng.BuyResale(f.ctx, f.call(bob), id, 500)
			require.NoError(t, err)
			assert.Equal(t, tc.royalty, rc.Royalty)
			assert.Equal(t, tc.take, rc.SellerTake)
			assert.Equal(t, tc.take, f.balance(t, alice))
			assert.Equal(t, tc.royalty, f.balance(t, organizer))
			assert.Zero(t, f.balance(t, bob))
			assert.Equal(t, uint64(1000), f.summary(t).Balance)

			seller := journalKinds(t, f, alice)
			_, paid := seller[model.TransferSellerPayout]
			assert.Equal(t, tc.take > 0, paid)
			org := journalKinds(t, f, organizer)
			_, royalty := org[model.TransferRoyalty]
			assert.Equal(t, tc.royalty > 0, royalty)
		})
	}
}

func TestIssueRejectionsLeaveNoTrace(t *testing.T) {
	f := newFixture(t, defaultParams())
	f.fund(t, alice, 5000)

	_, err := f.eng.IssueTicket(f.ctx, f.call(alice), 999)
	assert.ErrorIs(t, err, ticketing.ErrIncorrectPayment)

	_, err = f.eng.IssueTicket(f.ctx, f.call(bob), 1000)
	assert.ErrorIs(t, err, ticketing.ErrInsufficientFunds)

	s := f.summary(t)
	assert.Zero(t, s.Sold)
	assert.Zero(t, s.Balance)
	assert.Equal(t, uint64(5000), f.balance(t, alice))
	_, minted := f.store.Token(1)
	assert.False(t, minted)

	_, err = f.eng.TicketInfo(f.ctx, f.inst.ID, 0)
	assert.ErrorIs(t, err, ticketing.ErrNotFound)
	assert.Equal(t, []string{ticketing.ActivityConfigured}, f.rec.types())
}

func TestCancelDeadline(t *testing.T) {
	f := newFixture(t, defaultParams())
	id := f.issue(t, alice)

	f.clk.Advance(time.Hour)
	_, err := f.eng.CancelTicket(f.ctx, f.call(alice), id)
	assert.ErrorIs(t, err, ticketing.ErrDeadlinePassed, "deadline itself is already too late")

	p := defaultParams()
	p.CancellationDeadline = 0
	g := newFixture(t, p)
	gid := g.issue(t, alice)
	_, err = g.eng.CancelTicket(g.ctx, g.call(alice), gid)
	assert.ErrorIs(t, err, ticketing.ErrDeadlinePassed)
}

func TestCancelAuthorizationBeforeState(t *testing.T) {
	f := newFixture(t, defaultParams())
	id := f.claimed(t, alice)

	_, err := f.eng.CancelTicket(f.ctx, f.call(bob), id)
	assert.ErrorIs(t, err, ticketing.ErrUnauthorized)

	_, err = f.eng.CancelTicket(f.ctx, f.call(alice), id)
	assert.ErrorIs(t, err, ticketing.ErrInvalidState, "claimed tickets are not cancellable by default")

	_, err = f.eng.CancelTicket(f.ctx, f.call(alice), 42)
	assert.ErrorIs(t, err, ticketing.ErrNotFound)
}

func TestCancelWithClawback(t *testing.T) {
	f := newFixture(t, defaultParams(), ticketing.WithCancelPolicy(ticketing.CancelWithClawback))
	id := f.claimed(t, alice)
	tokenID := f.ticket(t, id).TokenID

	rc, err := f.eng.CancelTicket(f.ctx, f.call(alice), id)
	require.NoError(t, err)
	assert.True(t, rc.Reclaimed)
	assert.Equal(t, uint64(900), f.balance(t, alice))

	tok, _ := f.store.Token(tokenID)
	assert.Equal(t, f.inst.Contract(), tok.Holder)
	moves := f.store.TokenMoves()
	require.Len(t, moves, 2)
	assert.False(t, moves[0].Forced)
	assert.True(t, moves[1].Forced)
	assert.Equal(t, alice, moves[1].From)

	listed := f.claimed(t, bob)
	require.NoError(t, f.eng.ListForResale(f.ctx, f.call(bob), listed, 10))
	_, err = f.eng.CancelTicket(f.ctx, f.call(bob), listed)
	assert.ErrorIs(t, err, ticketing.ErrInvalidState)
}

func TestCancelOverflowAborts(t *testing.T) {
	p := defaultParams()
	p.Price = math.MaxUint64 / 2
	f := newFixture(t, p)
	id := f.issue(t, alice)

	_, err := f.eng.CancelTicket(f.ctx, f.call(alice), id)
	assert.ErrorIs(t, err, ticketing.ErrArithmeticOverflow)
	assert.Equal(t, model.StatusPending, f.ticket(t, id).Status)
	assert.Equal(t, p.Price, f.summary(t).Balance)
}

func TestWithdrawFunds(t *testing.T) {
	f := newFixture(t, defaultParams())
	f.issue(t, alice)
	f.issue(t, bob)

	err := f.eng.WithdrawFunds(f.ctx, f.call(alice), 100)
	assert.ErrorIs(t, err, ticketing.ErrUnauthorized)

	err = f.eng.WithdrawFunds(f.ctx, f.call(organizer), 0)
	assert.ErrorIs(t, err, ticketing.ErrInvalidPrice)

	err = f.eng.WithdrawFunds(f.ctx, f.call(organizer), 2001)
	assert.ErrorIs(t, err, ticketing.ErrInsufficientBalance)

	require.NoError(t, f.eng.WithdrawFunds(f.ctx, f.call(organizer), 1500))
	assert.Equal(t, uint64(1500), f.balance(t, organizer))

	bal, err := f.eng.ContractBalance(f.ctx, f.inst.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), bal)
}

func TestConcurrentIssueNeverOversells(t *testing.T) {
	p := defaultParams()
	p.Supply = 5
	f := newFixture(t, p)

	const buyers = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	var sold, soldOut int
	tokens := map[uint64]bool{}
	for i := 0; i < buyers; i++ {
		buyer := addr(byte(100 + i))
		f.fund(t, buyer, p.Price)
		wg.Add(1)
		go func() {
			defer wg.Done()
			it, err := f.eng.IssueTicket(f.ctx, f.call(buyer), p.Price)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				sold++
				tokens[it.Ticket.TokenID] = true
			case errors.Is(err, ticketing.ErrSoldOut):
				soldOut++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, sold)
	assert.Equal(t, buyers-5, soldOut)
	assert.Len(t, tokens, 5)
	s := f.summary(t)
	assert.Equal(t, uint64(5), s.Sold)
	assert.Equal(t, 5*p.Price, s.Balance)
}

func TestTicketsByOwner(t *testing.T) {
	f := newFixture(t, defaultParams())
	a0 := f.issue(t, alice)
	f.issue(t, bob)
	a2 := f.issue(t, alice)

	got, err := f.eng.TicketsByOwner(f.ctx, f.inst.ID, alice)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, a0, got[0].ID)
	assert.Equal(t, a2, got[1].ID)

	none, err := f.eng.TicketsByOwner(f.ctx, f.inst.ID, carol)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestUnknownInstance(t *testing.T) {
	f := newFixture(t, defaultParams())
	_, err := f.eng.IssueTicket(f.ctx, ticketing.Call{Instance: 999, Caller: alice}, 1000)
	assert.ErrorIs(t, err, ticketing.ErrNotFound)
	_, err = f.eng.EventSummary(f.ctx, 999)
	assert.ErrorIs(t, err, ticketing.ErrNotFound)
}

func TestExecuteDispatch(t *testing.T) {
	f := newFixture(t, defaultParams())
	f.fund(t, alice, 1000)
	f.fund(t, bob, 700)

	res, err := f.eng.Execute(f.ctx, f.call(alice), ticketing.Issue{Payment: 1000})
	require.NoError(t, err)
	require.NotNil(t, res.Issued)
	id := res.Issued.TicketID

	steps := []struct {
		caller model.Address
		op     ticketing.Operation
	}{
		{alice, ticketing.Claim{TicketID: id}},
		{alice, ticketing.List{TicketID: id, Price: 700}},
		{alice, ticketing.Delist{TicketID: id}},
		{alice, ticketing.List{TicketID: id, Price: 700}},
	}
	for _, s := range steps {
		_, err := f.eng.Execute(f.ctx, f.call(s.caller), s.op)
		require.NoError(t, err, s.op.Name())
	}

	res, err = f.eng.Execute(f.ctx, f.call(bob), ticketing.Buy{TicketID: id, Payment: 700})
	require.NoError(t, err)
	require.NotNil(t, res.Resale)
	assert.Equal(t, uint64(35), res.Resale.Royalty)

	_, err = f.eng.Execute(f.ctx, f.call(organizer), ticketing.CheckInOp{TicketID: id})
	require.NoError(t, err)

	_, err = f.eng.Execute(f.ctx, f.call(organizer), ticketing.Withdraw{Amount: 1000})
	require.NoError(t, err)
	assert.Equal(t, uint64(1035), f.balance(t, organizer))
}

func TestParseCancelPolicy(t *testing.T) {
	p, err := ticketing.ParseCancelPolicy("Clawback")
	require.NoError(t, err)
	assert.Equal(t, ticketing.CancelWithClawback, p)

	p, err = ticketing.ParseCancelPolicy("")
	require.NoError(t, err)
	assert.Equal(t, ticketing.CancelPendingOnly, p)

	_, err = ticketing.ParseCancelPolicy("always")
	assert.Error(t, err)
}
