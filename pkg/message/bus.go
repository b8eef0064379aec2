package message

import (
	"context"
	"errors"
	"sync"

	"github.com/argus-labs/scene-engine/internal/schema"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// defaultChannelCapacity is the size of the envelope channel.
const defaultChannelCapacity = 1024

// initialBufferCapacity is the starting capacity of the overflow buffer.
const initialBufferCapacity = 128

var _ Output = &Bus{}

// Bus collects the messages sent by systems during a tick and publishes them to its sink when
// Dispatch is called. Messages are encoded when they are sent, so later mutations of the sent value
// don't leak into the published payload.
type Bus struct {
	sink    Sink
	channel chan Envelope // Envelopes sent by systems
	buffer  []Envelope    // Overflow buffer for when channel is full
	mu      sync.Mutex    // Guards buffer
	log     zerolog.Logger
}

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithBusLogger sets the logger used to report messages that can't be encoded or published.
func WithBusLogger(log zerolog.Logger) BusOption {
	return func(b *Bus) { b.log = log }
}

// NewBus creates a bus publishing to sink.
func NewBus(sink Sink, opts ...BusOption) *Bus {
	b := &Bus{
		sink:    sink,
		channel: make(chan Envelope, defaultChannelCapacity),
		buffer:  make([]Envelope, 0, initialBufferCapacity),
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// SendToAll queues a message for every player.
func (b *Bus) SendToAll(msg Message) {
	b.send(true, 0, msg)
}

// Send queues a message for one player.
func (b *Bus) Send(uid uint32, msg Message) {
	b.send(false, uid, msg)
}

func (b *Bus) send(broadcast bool, uid uint32, msg Message) {
	payload, err := schema.Serialize(msg)
	if err != nil {
		b.log.Error().Err(err).Str("message", msg.MessageName()).Msg("failed to encode message, dropping")
		return
	}
	b.enqueue(Envelope{
		ID:        uuid.New(),
		Broadcast: broadcast,
		UID:       uid,
		Name:      msg.MessageName(),
		Payload:   payload,
	})
}

// enqueue adds an envelope. If the channel is full, it is drained into the buffer first.
func (b *Bus) enqueue(env Envelope) {
	select {
	case b.channel <- env:
	default:
		b.flush()
		b.channel <- env
	}
}

// flush drains the channel into the buffer.
func (b *Bus) flush() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for {
		select {
		case env := <-b.channel:
			b.buffer = append(b.buffer, env)
		default:
			return
		}
	}
}

// Pending returns the number of envelopes waiting for Dispatch.
func (b *Bus) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.buffer) + len(b.channel)
}

// Dispatch publishes every queued envelope to the sink in the order they were queued. A failed
// publish doesn't stop the others; all errors are returned joined. The queue is empty afterwards.
func (b *Bus) Dispatch(ctx context.Context) error {
	b.flush()

	b.mu.Lock()
	defer b.mu.Unlock()

	var errs []error
	for _, env := range b.buffer {
		if err := b.sink.Publish(ctx, env); err != nil {
			errs = append(errs, eris.Wrapf(err, "failed to publish %s", env.Name))
		}
	}
	clear(b.buffer)
	b.buffer = b.buffer[:0]

	if len(errs) > 0 {
		return eris.Wrapf(errors.Join(errs...), "message dispatch encountered %d error(s)", len(errs))
	}
	return nil
}
