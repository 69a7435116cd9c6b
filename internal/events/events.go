// Package events publishes task store mutations to NATS.
//
// Each successful mutation becomes one JSON message on
//
//	<prefix>.created | <prefix>.completed | <prefix>.deleted
//
// Publishing is fire-and-forget from the store's point of view: a failed
// publish is logged and never fails the request that caused it.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/taskmaster/internal/logging"
	"github.com/fyrsmithlabs/taskmaster/internal/taskstore"
)

// DefaultSubjectPrefix is used when no prefix is configured.
const DefaultSubjectPrefix = "taskmaster.tasks"

// Event is the payload published for one mutation.
type Event struct {
	ID         string               `json:"id"`
	Kind       taskstore.ChangeKind `json:"kind"`
	Task       taskstore.Task       `json:"task"`
	OccurredAt time.Time            `json:"occurred_at"`
}

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// NATSPublisher publishes events on a NATS connection.
type NATSPublisher struct {
	nc     *nats.Conn
	prefix string
	owned  bool
}

// NewNATSPublisher wraps an existing connection. The caller keeps ownership
// of nc.
func NewNATSPublisher(nc *nats.Conn, prefix string) *NATSPublisher {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &NATSPublisher{nc: nc, prefix: prefix}
}

// Connect dials url and returns a publisher that closes the connection on Close.
func Connect(url, prefix string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("taskmaster"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(1*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}
	p := NewNATSPublisher(nc, prefix)
	p.owned = true
	return p, nil
}

// Subject returns the subject an event of kind is published on.
func (p *NATSPublisher) Subject(kind taskstore.ChangeKind) string {
	return p.prefix + "." + string(kind)
}

// Publish marshals ev and publishes it.
func (p *NATSPublisher) Publish(ctx context.Context, ev Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := p.nc.Publish(p.Subject(ev.Kind), data); err != nil {
		return fmt.Errorf("publish %s event: %w", ev.Kind, err)
	}
	return nil
}

// Close flushes pending messages and closes an owned connection.
func (p *NATSPublisher) Close() error {
	if !p.owned {
		return nil
	}
	err := p.nc.FlushTimeout(2 * time.Second)
	p.nc.Close()
	if err != nil && err != nats.ErrConnectionClosed {
		return fmt.Errorf("flush NATS connection: %w", err)
	}
	return nil
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(ctx context.Context, ev Event) error { return nil }
func (Nop) Close() error                                { return nil }

// NewEvent builds the event for a store change.
func NewEvent(c taskstore.Change) Event {
	return Event{
		ID:         uuid.NewString(),
		Kind:       c.Kind,
		Task:       c.Task,
		OccurredAt: time.Now().UTC(),
	}
}

// Hook returns a store ChangeHook that publishes every change through p.
func Hook(p Publisher, logger *logging.Logger) taskstore.ChangeHook {
	if logger == nil {
		logger = logging.NewNop()
	}
	return func(c taskstore.Change) {
		ctx := context.Background()
		ev := NewEvent(c)
		if err := p.Publish(ctx, ev); err != nil {
			logger.Warn(ctx, "failed to publish task event",
				zap.String("event_id", ev.ID),
				zap.String("kind", string(ev.Kind)),
				zap.Int("task_id", ev.Task.ID),
				zap.Error(err))
		}
	}
}

// Ensure interfaces are implemented at compile time.
var (
	_ Publisher = (*NATSPublisher)(nil)
	_ Publisher = Nop{}
)
