// Package event carries build notifications from long-running commands to
// whoever reports them, over a watermill gochannel pub/sub.
package event

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/vermilion00/libhmk/internal/logging"
)

// Type represents the type of event.
type Type string

const (
	DescriptorChanged Type = "descriptor.changed"
	BuildSucceeded    Type = "build.succeeded"
	BuildFailed       Type = "build.failed"
)

// topic is the single watermill topic all events travel on.
const topic = "hmkconf.events"

// Event is one notification.
type Event struct {
	Type     Type          `json:"type"`
	Path     string        `json:"path,omitempty"`     // descriptor that triggered the run
	Error    string        `json:"error,omitempty"`    // set on BuildFailed
	Duration time.Duration `json:"duration,omitempty"` // run time of a build
}

// Bus publishes events to every current subscriber. Events published while
// nobody subscribes are dropped.
type Bus struct {
	pubsub *gochannel.GoChannel

	mu     sync.Mutex
	closed bool
}

// NewBus creates a new event bus.
func NewBus() *Bus {
	return &Bus{
		pubsub: gochannel.NewGoChannel(
			gochannel.Config{
				OutputChannelBuffer:            64,
				Persistent:                     false,
				BlockPublishUntilSubscriberAck: true,
			},
			watermill.NopLogger{},
		),
	}
}

// Publish sends e to all subscribers. It returns once every subscriber has
// taken the event, so subscribers see events in publish order.
func (b *Bus) Publish(e Event) error {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return nil
	}

	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("type", string(e.Type))
	return b.pubsub.Publish(topic, msg)
}

// Subscribe returns a channel of events published from now on. The channel
// is closed when ctx is done or the bus is closed.
func (b *Bus) Subscribe(ctx context.Context) (<-chan Event, error) {
	msgs, err := b.pubsub.Subscribe(ctx, topic)
	if err != nil {
		return nil, err
	}

	out := make(chan Event)
	go func() {
		defer close(out)
		for msg := range msgs {
			var e Event
			if err := json.Unmarshal(msg.Payload, &e); err != nil {
				logging.Warn().Err(err).Str("uuid", msg.UUID).Msg("dropping undecodable event")
				msg.Ack()
				continue
			}
			msg.Ack()

			select {
			case out <- e:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Close closes the bus and ends all subscriptions.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	return b.pubsub.Close()
}
