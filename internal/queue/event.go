// Package queue publishes ticket activity to RabbitMQ and consumes it into
// an append-only audit log.
package queue

import "github.com/iliyamo/ticket-escrow/internal/ticketing"

// DefaultQueue is the durable queue carrying TicketActivity messages.
const DefaultQueue = "ticket.activity"

// TicketActivity is the message body published after every committed
// ticketing operation.  ID matches the AMQP message id so consumers can
// drop redeliveries.
type TicketActivity struct {
	ID string `json:"id"`
	ticketing.Activity
}
