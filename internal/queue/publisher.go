package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/iliyamo/ticket-escrow/internal/ticketing"
)

const (
	// DefaultDialTimeout bounds one connection attempt.  Notify runs on the
	// request path, so a dead broker must fail fast.
	DefaultDialTimeout = 3 * time.Second
	// RedialCooldown is how long Notify fails without dialing after a
	// failed attempt.
	RedialCooldown = 5 * time.Second
)

// Publisher sends TicketActivity messages to a durable queue.  It keeps one
// connection and channel open and re-dials after the broker drops them.
// Publisher implements ticketing.Notifier.
type Publisher struct {
	url         string
	queue       string
	log         *zap.Logger
	dialTimeout time.Duration
	cooldown    time.Duration
	now         func() time.Time

	mu        sync.Mutex
	conn      *amqp.Connection
	ch        *amqp.Channel
	downUntil time.Time // no dialing before this after a failed dial
}

var _ ticketing.Notifier = (*Publisher)(nil)

var (
	errPublisherClosed = errors.New("publisher closed")
	errBrokerDown      = errors.New("rabbitmq unavailable, redial pending")
)

// NewPublisher dials the broker and declares the queue.  An unreachable
// broker is an error here so misconfiguration surfaces at start-up.
func NewPublisher(url, queue string, log *zap.Logger) (*Publisher, error) {
	if queue == "" {
		queue = DefaultQueue
	}
	if log == nil {
		log = zap.NewNop()
	}
	p := &Publisher{
		url:         url,
		queue:       queue,
		log:         log,
		dialTimeout: DefaultDialTimeout,
		cooldown:    RedialCooldown,
		now:         time.Now,
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := p.channel(); err != nil {
		return nil, err
	}
	return p, nil
}

// channel returns the open channel, re-dialing if needed.  p.mu must be held.
func (p *Publisher) channel() (*amqp.Channel, error) {
	if p.url == "" {
		return nil, errPublisherClosed
	}
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	if p.conn == nil || p.conn.IsClosed() {
		if p.now().Before(p.downUntil) {
			return nil, errBrokerDown
		}
		conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(p.dialTimeout)})
		if err != nil {
			p.downUntil = p.now().Add(p.cooldown)
			return nil, fmt.Errorf("rabbitmq dial: %w", err)
		}
		p.conn = conn
	}
	ch, err := p.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(
		p.queue, // name
		true,    // durable
		false,   // autoDelete
		false,   // exclusive
		false,   // noWait
		nil,     // args
	); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("rabbitmq queue declare: %w", err)
	}
	p.ch = ch
	return ch, nil
}

// Notify publishes a as a persistent JSON message.
func (p *Publisher) Notify(ctx context.Context, a ticketing.Activity) error {
	msg := TicketActivity{ID: uuid.NewString(), Activity: a}
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal activity: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	ch, err := p.channel()
	if err != nil {
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		MessageId:    msg.ID,
		Type:         a.Type,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx,
		"",      // default exchange
		p.queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		pub,
	); err != nil {
		// Drop the channel so the next call re-dials.
		_ = ch.Close()
		p.ch = nil
		return fmt.Errorf("rabbitmq publish: %w", err)
	}
	p.log.Debug("activity published", zap.String("id", msg.ID), zap.String("type", a.Type))
	return nil
}

// Close releases the channel and connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.url = ""
	var errs []error
	if p.ch != nil {
		errs = append(errs, p.ch.Close())
		p.ch = nil
	}
	if p.conn != nil {
		errs = append(errs, p.conn.Close())
		p.conn = nil
	}
	return errors.Join(errs...)
}
