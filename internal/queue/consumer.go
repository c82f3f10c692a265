package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// ActivityLogFile is the file the consumer appends to inside its log dir.
const ActivityLogFile = "ticket-activity.log"

// DefaultSeenLimit is how many recent message ids a Consumer remembers.
const DefaultSeenLimit = 4096

// Consumer drains the activity queue into ActivityLogFile, one line per
// message.  Redeliveries of the last SeenLimit message ids are acknowledged
// without writing; older ids are forgotten oldest first.
type Consumer struct {
	URL       string
	Queue     string
	LogDir    string
	Log       *zap.Logger
	SeenLimit int // 0 means DefaultSeenLimit

	mu    sync.Mutex
	seen  map[string]struct{}
	order []string // ring of the ids in seen, oldest at next
	next  int
}

// Run connects to RabbitMQ and consumes until ctx is cancelled.  Broker
// failures are retried with exponential backoff capped at 30s.
func (c *Consumer) Run(ctx context.Context) error {
	log := c.logger()
	queue := c.queue()
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			log.Warn("activity consumer: dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		err = c.consumeLoop(ctx, conn, queue)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn("activity consumer: loop ended, reconnecting", zap.Error(err))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection, queue string) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.logger().Warn("activity consumer: set QoS failed", zap.Error(err))
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.handleMessage(d.Body); err != nil {
				c.logger().Error("activity consumer: handle message failed",
					zap.String("message_id", d.MessageId), zap.Error(err))
				_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// handleMessage appends one activity line to the log file.
func (c *Consumer) handleMessage(body []byte) error {
	var ev TicketActivity
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Type == "" {
		return errors.New("activity without type")
	}
	if ev.ID != "" && !c.markSeen(ev.ID) {
		return nil
	}

	dir := c.LogDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	f, err := os.OpenFile(filepath.Join(dir, ActivityLogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("[%s] %s | instance=%d | ticket=%d | status=%s | actor=%s | owner=%s | amount=%d | id=%s\n",
		ev.At.UTC().Format(time.RFC3339), ev.Type, ev.InstanceID, ev.TicketID, ev.Status,
		ev.Actor, ev.Owner, ev.Amount, ev.ID)
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// markSeen records id and reports whether it was new.  Once the ring is
// full each new id evicts the oldest one.
func (c *Consumer) markSeen(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.seen == nil {
		limit := c.SeenLimit
		if limit <= 0 {
			limit = DefaultSeenLimit
		}
		c.seen = make(map[string]struct{}, limit)
		c.order = make([]string, 0, limit)
	}
	if _, dup := c.seen[id]; dup {
		return false
	}
	if len(c.order) < cap(c.order) {
		c.order = append(c.order, id)
	} else {
		delete(c.seen, c.order[c.next])
		c.order[c.next] = id
		c.next = (c.next + 1) % len(c.order)
	}
	c.seen[id] = struct{}{}
	return true
}

func (c *Consumer) logger() *zap.Logger {
	if c.Log == nil {
		return zap.L()
	}
	return c.Log
}

func (c *Consumer) queue() string {
	if c.Queue == "" {
		return DefaultQueue
	}
	return c.Queue
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
