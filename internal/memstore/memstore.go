// Package memstore is an in-process implementation of the ticketing store.
// Each atomic unit holds the store lock for its whole duration and stages
// its writes in an overlay that is applied only when the unit succeeds.
// Ticket records are kept in their fixed-width encoded form.
package memstore

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/iliyamo/ticket-escrow/internal/clock"
	"github.com/iliyamo/ticket-escrow/internal/model"
	"github.com/iliyamo/ticket-escrow/internal/ticketing"
)

var errReadOnly = errors.New("memstore: write in read-only view")

// TokenMove records one token custody change.
type TokenMove struct {
	TokenID uint64
	From    model.Address
	To      model.Address
	Forced  bool
}

type instanceState struct {
	inst    model.Instance
	tickets map[uint64][]byte
}

// Store keeps all state in memory.  The zero value is not usable; call New.
type Store struct {
	mu    sync.Mutex
	clock clock.Clock

	nextInstance uint64
	nextToken    uint64
	nextTransfer uint64

	instances map[uint64]*instanceState
	tokens    map[uint64]model.Token
	wallets   map[model.Address]uint64
	journal   []model.Transfer
	moves     []TokenMove
	registry  []model.RegistryEntry
}

// New returns an empty store.  clk stamps journal entries; nil uses the
// system clock.
func New(clk clock.Clock) *Store {
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &Store{
		clock:        clk,
		nextInstance: 1,
		nextToken:    1,
		nextTransfer: 1,
		instances:    make(map[uint64]*instanceState),
		tokens:       make(map[uint64]model.Token),
		wallets:      make(map[model.Address]uint64),
	}
}

var _ ticketing.Store = (*Store)(nil)

func (s *Store) CreateInstance(ctx context.Context, creator model.Address) (model.Instance, error) {
	if err := ctx.Err(); err != nil {
		return model.Instance{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	inst := model.Instance{ID: s.nextInstance, Creator: creator, CreatedAt: s.clock.Now()}
	s.nextInstance++
	s.instances[inst.ID] = &instanceState{inst: inst, tickets: make(map[uint64][]byte)}
	return inst, nil
}

func (s *Store) Atomic(ctx context.Context, instanceID uint64, fn func(ctx context.Context, tx ticketing.Tx) error) error {
	return s.run(ctx, instanceID, false, fn)
}

func (s *Store) View(ctx context.Context, instanceID uint64, fn func(ctx context.Context, tx ticketing.Tx) error) error {
	return s.run(ctx, instanceID, true, fn)
}

func (s *Store) run(ctx context.Context, instanceID uint64, readOnly bool, fn func(ctx context.Context, tx ticketing.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.instances[instanceID]
	if !ok {
		return fmt.Errorf("%w: instance %d", ticketing.ErrNotFound, instanceID)
	}
	tx := &txn{
		s:         s,
		base:      st,
		inst:      st.inst,
		readOnly:  readOnly,
		tickets:   make(map[uint64][]byte),
		tokens:    make(map[uint64]model.Token),
		wallets:   make(map[model.Address]uint64),
		nextToken: s.nextToken,
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if readOnly {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	tx.commit()
	return nil
}

func (s *Store) Deposit(ctx context.Context, to model.Address, amount uint64) (model.Wallet, error) {
	if err := ctx.Err(); err != nil {
		return model.Wallet{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	bal := s.wallets[to]
	if amount > math.MaxUint64-bal {
		return model.Wallet{}, ticketing.ErrArithmeticOverflow
	}
	bal += amount
	s.wallets[to] = bal
	s.appendJournal(model.Transfer{To: to, Amount: amount, Kind: model.TransferDeposit})
	return model.Wallet{Address: to, Balance: bal}, nil
}

func (s *Store) Wallet(ctx context.Context, addr model.Address) (model.Wallet, error) {
	if err := ctx.Err(); err != nil {
		return model.Wallet{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.Wallet{Address: addr, Balance: s.wallets[addr]}, nil
}

func (s *Store) Transfers(ctx context.Context, addr model.Address, limit int) ([]model.Transfer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []model.Transfer{}
	for i := len(s.journal) - 1; i >= 0 && len(out) < limit; i-- {
		tr := s.journal[i]
		if tr.From == addr || tr.To == addr {
			out = append(out, tr)
		}
	}
	return out, nil
}

// Token returns the current state of a token.
func (s *Store) Token(id uint64) (model.Token, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[id]
	return t, ok
}

// TokenMoves returns every committed custody change in order.
func (s *Store) TokenMoves() []TokenMove {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]TokenMove(nil), s.moves...)
}

// caller holds s.mu
func (s *Store) appendJournal(tr model.Transfer) {
	tr.ID = s.nextTransfer
	s.nextTransfer++
	tr.CreatedAt = s.clock.Now()
	s.journal = append(s.journal, tr)
}

// txn stages every write of one atomic unit.
type txn struct {
	s        *Store
	base     *instanceState
	inst     model.Instance
	readOnly bool

	tickets   map[uint64][]byte
	tokens    map[uint64]model.Token
	wallets   map[model.Address]uint64
	journal   []model.Transfer
	moves     []TokenMove
	nextToken uint64
}

func (t *txn) commit() {
	s := t.s
	t.base.inst = t.inst
	for id, rec := range t.tickets {
		t.base.tickets[id] = rec
	}
	for id, tok := range t.tokens {
		s.tokens[id] = tok
	}
	for addr, bal := range t.wallets {
		s.wallets[addr] = bal
	}
	for _, tr := range t.journal {
		s.appendJournal(tr)
	}
	s.moves = append(s.moves, t.moves...)
	s.nextToken = t.nextToken
}

func (t *txn) writable() error {
	if t.readOnly {
		return errReadOnly
	}
	return nil
}

func (t *txn) Instance(ctx context.Context) (model.Instance, error) {
	return t.inst, nil
}

func (t *txn) SaveConfig(ctx context.Context, cfg model.EventConfig) error {
	if err := t.writable(); err != nil {
		return err
	}
	t.inst.Config = cfg
	t.inst.Initialized = true
	return nil
}

func (t *txn) record(id uint64) ([]byte, bool) {
	if rec, ok := t.tickets[id]; ok {
		return rec, true
	}
	rec, ok := t.base.tickets[id]
	return rec, ok
}

func (t *txn) GetTicket(ctx context.Context, id uint64) (model.Ticket, bool, error) {
	rec, ok := t.record(id)
	if !ok {
		return model.Ticket{}, false, nil
	}
	tk, err := ticketing.DecodeRecord(rec)
	if err != nil {
		return model.Ticket{}, false, err
	}
	return tk, true, nil
}

func (t *txn) PutTicket(ctx context.Context, id uint64, tk model.Ticket) error {
	if err := t.writable(); err != nil {
		return err
	}
	t.tickets[id] = ticketing.EncodeRecord(tk)
	return nil
}

func (t *txn) UpdateStatus(ctx context.Context, id uint64, st model.Status) error {
	if err := t.writable(); err != nil {
		return err
	}
	rec, ok := t.record(id)
	if !ok {
		return fmt.Errorf("%w: ticket %d", ticketing.ErrNotFound, id)
	}
	cp := append([]byte(nil), rec...)
	if err := ticketing.SetRecordStatus(cp, st); err != nil {
		return err
	}
	t.tickets[id] = cp
	return nil
}

func (t *txn) TicketsByOwner(ctx context.Context, owner model.Address) ([]ticketing.TicketEntry, error) {
	ids := make(map[uint64]struct{}, len(t.base.tickets)+len(t.tickets))
	for id := range t.base.tickets {
		ids[id] = struct{}{}
	}
	for id := range t.tickets {
		ids[id] = struct{}{}
	}
	var out []ticketing.TicketEntry
	for id := range ids {
		tk, _, err := t.GetTicket(ctx, id)
		if err != nil {
			return nil, err
		}
		if tk.Owner == owner {
			out = append(out, ticketing.TicketEntry{ID: id, Ticket: tk})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *txn) token(id uint64) (model.Token, bool) {
	if tok, ok := t.tokens[id]; ok {
		return tok, true
	}
	tok, ok := t.s.tokens[id]
	return tok, ok
}

func (t *txn) MintToken(ctx context.Context) (uint64, error) {
	if err := t.writable(); err != nil {
		return 0, err
	}
	id := t.nextToken
	t.nextToken++
	t.tokens[id] = model.Token{ID: id, InstanceID: t.inst.ID, Holder: t.inst.Contract()}
	return id, nil
}

func (t *txn) TransferToken(ctx context.Context, tokenID uint64, from, to model.Address, forced bool) error {
	if err := t.writable(); err != nil {
		return err
	}
	tok, ok := t.token(tokenID)
	if !ok || tok.InstanceID != t.inst.ID {
		return fmt.Errorf("%w: token %d", ticketing.ErrNotFound, tokenID)
	}
	if tok.Holder != from {
		return fmt.Errorf("%w: token %d is not held by %s", ticketing.ErrInvalidState, tokenID, from)
	}
	tok.Holder = to
	t.tokens[tokenID] = tok
	t.moves = append(t.moves, TokenMove{TokenID: tokenID, From: from, To: to, Forced: forced})
	return nil
}

func (t *txn) wallet(addr model.Address) uint64 {
	if bal, ok := t.wallets[addr]; ok {
		return bal
	}
	return t.s.wallets[addr]
}

func (t *txn) Collect(ctx context.Context, from model.Address, amount uint64, kind model.TransferKind) error {
	if err := t.writable(); err != nil {
		return err
	}
	bal := t.wallet(from)
	if bal < amount {
		return ticketing.ErrInsufficientFunds
	}
	if amount > math.MaxUint64-t.inst.Balance {
		return ticketing.ErrArithmeticOverflow
	}
	t.wallets[from] = bal - amount
	t.inst.Balance += amount
	t.journal = append(t.journal, model.Transfer{
		InstanceID: t.inst.ID, From: from, To: t.inst.Contract(), Amount: amount, Kind: kind,
	})
	return nil
}

func (t *txn) Pay(ctx context.Context, to model.Address, amount uint64, kind model.TransferKind) error {
	if err := t.writable(); err != nil {
		return err
	}
	if t.inst.Balance < amount {
		return ticketing.ErrInsufficientBalance
	}
	bal := t.wallet(to)
	if amount > math.MaxUint64-bal {
		return ticketing.ErrArithmeticOverflow
	}
	t.inst.Balance -= amount
	t.wallets[to] = bal + amount
	t.journal = append(t.journal, model.Transfer{
		InstanceID: t.inst.ID, From: t.inst.Contract(), To: to, Amount: amount, Kind: kind,
	})
	return nil
}
