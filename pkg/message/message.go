// Package message is the outbound side of the scene: systems hand typed messages to an Output during
// a tick, the messages are encoded right away, buffered, and published to a Sink once the tick is
// done.
package message

import (
	"github.com/argus-labs/scene-engine/internal/schema"
	"github.com/google/uuid"
)

// Message is a typed outbound message. The name identifies the wire type to the receiver.
type Message interface { //nolint:iface // We may add more methods in the future.
	MessageName() string
}

// Output is the interface systems use to send messages. Implementations must be safe for concurrent
// use, systems in the same tier call them in parallel.
type Output interface {
	// SendToAll sends a message to every player in the scene.
	SendToAll(msg Message)
	// Send sends a message to one player.
	Send(uid uint32, msg Message)
}

// Envelope is an encoded message with its routing information.
type Envelope struct {
	ID        uuid.UUID
	Broadcast bool   // Sent to every player, UID is unset
	UID       uint32 // Receiving player
	Name      string // Message name
	Payload   []byte // msgpack encoded message
}

// Decode decodes the payload of an envelope into v.
func (e Envelope) Decode(v any) error {
	return schema.Deserialize(e.Payload, v)
}
