// Package ticketing implements the ticket lifecycle state machine, the
// resale marketplace and the escrow payment splits of an event instance.
//
// Every mutating operation runs as one atomic unit on a Store: the
// preconditions are checked, all writes are staged, and the unit commits
// only if the whole operation succeeds.  Preconditions are evaluated in a
// fixed order (existence, authorization, state, price and payment) so the
// same request always fails with the same error.
package ticketing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/iliyamo/ticket-escrow/internal/clock"
	"github.com/iliyamo/ticket-escrow/internal/model"
	"github.com/iliyamo/ticket-escrow/internal/split"
)

// CancelPolicy selects which tickets an owner may cancel.
type CancelPolicy int

const (
	// CancelPendingOnly allows cancellation of unclaimed tickets only.
	CancelPendingOnly CancelPolicy = iota
	// CancelWithClawback also allows cancellation of claimed tickets; the
	// token is reclaimed from the owner without consent.
	CancelWithClawback
)

// ParseCancelPolicy maps the configuration values "pending" and "clawback".
func ParseCancelPolicy(s string) (CancelPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "pending":
		return CancelPendingOnly, nil
	case "clawback":
		return CancelWithClawback, nil
	}
	return CancelPendingOnly, fmt.Errorf("unknown cancel policy %q", s)
}

func (p CancelPolicy) String() string {
	if p == CancelWithClawback {
		return "clawback"
	}
	return "pending"
}

// Call identifies who invokes an operation and on which instance.
type Call struct {
	Instance uint64
	Caller   model.Address
}

// Notifier receives an Activity after each committed operation.
type Notifier interface {
	Notify(ctx context.Context, a Activity) error
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, Activity) error { return nil }

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.  The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithNotifier sets where committed activity is published.
func WithNotifier(n Notifier) Option {
	return func(e *Engine) {
		if n != nil {
			e.notifier = n
		}
	}
}

// WithCancelPolicy sets the cancellation policy.
func WithCancelPolicy(p CancelPolicy) Option {
	return func(e *Engine) { e.policy = p }
}

// Engine executes ticketing operations against a Store.
type Engine struct {
	store    Store
	clock    clock.Clock
	log      *zap.Logger
	notifier Notifier
	policy   CancelPolicy
}

// NewEngine returns an engine backed by store and reading time from clk.
func NewEngine(store Store, clk clock.Clock, opts ...Option) *Engine {
	if store == nil {
		panic("ticketing: nil store")
	}
	if clk == nil {
		clk = clock.NewSystem()
	}
	e := &Engine{
		store:    store,
		clock:    clk,
		log:      zap.NewNop(),
		notifier: noopNotifier{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Policy returns the configured cancellation policy.
func (e *Engine) Policy() CancelPolicy { return e.policy }

// mutate runs fn as one atomic unit and publishes its activity once the
// unit has committed.
func (e *Engine) mutate(ctx context.Context, call Call, op string, fn func(ctx context.Context, tx Tx) (Activity, error)) error {
	var act Activity
	err := e.store.Atomic(ctx, call.Instance, func(ctx context.Context, tx Tx) error {
		var err error
		act, err = fn(ctx, tx)
		return err
	})
	if err != nil {
		e.log.Debug("operation rejected",
			zap.String("op", op),
			zap.Uint64("instance", call.Instance),
			zap.Stringer("caller", call.Caller),
			zap.Error(err))
		return err
	}

	act.Type = op
	act.InstanceID = call.Instance
	act.Actor = call.Caller
	act.At = e.clock.Now()
	e.log.Info("operation committed",
		zap.String("op", op),
		zap.Uint64("instance", call.Instance),
		zap.Uint64("ticket", act.TicketID),
		zap.Stringer("caller", call.Caller))
	if err := e.notifier.Notify(ctx, act); err != nil {
		e.log.Warn("activity publish failed", zap.String("op", op), zap.Error(err))
	}
	return nil
}

// configured loads the instance and requires it to be configured.
func configured(ctx context.Context, tx Tx) (model.Instance, error) {
	inst, err := tx.Instance(ctx)
	if err != nil {
		return model.Instance{}, err
	}
	if !inst.Initialized {
		return model.Instance{}, fmt.Errorf("%w: event not configured", ErrInvalidState)
	}
	return inst, nil
}

// loadTicket returns the ticket stored under id or ErrNotFound.
func loadTicket(ctx context.Context, tx Tx, id uint64) (model.Ticket, error) {
	t, ok, err := tx.GetTicket(ctx, id)
	if err != nil {
		return model.Ticket{}, err
	}
	if !ok {
		return model.Ticket{}, fmt.Errorf("%w: ticket %d", ErrNotFound, id)
	}
	return t, nil
}

// splitErr maps split failures into the engine taxonomy.
func splitErr(err error) error {
	switch {
	case errors.Is(err, split.ErrOverflow):
		return ErrArithmeticOverflow
	case errors.Is(err, split.ErrPercentage):
		return ErrInvalidPercentage
	}
	return err
}

// payIfPositive skips zero-value transfers.
func payIfPositive(ctx context.Context, tx Tx, to model.Address, amount uint64, kind model.TransferKind) error {
	if amount == 0 {
		return nil
	}
	return tx.Pay(ctx, to, amount, kind)
}
