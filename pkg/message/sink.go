package message

import (
	"context"
	"slices"
	"sync"

	"github.com/argus-labs/scene-engine/pkg/micro"
	"github.com/nats-io/nats.go"
	"github.com/rotisserie/eris"
)

// Sink publishes envelopes to their receivers.
type Sink interface {
	Publish(ctx context.Context, env Envelope) error
}

var _ Sink = &MemorySink{}
var _ Sink = &NATSSink{}

// MemorySink keeps published envelopes in memory.
type MemorySink struct {
	mu        sync.Mutex
	envelopes []Envelope
}

// NewMemorySink creates an empty memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (m *MemorySink) Publish(_ context.Context, env Envelope) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.envelopes = append(m.envelopes, env)
	return nil
}

// Envelopes returns a copy of everything published so far.
func (m *MemorySink) Envelopes() []Envelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.envelopes)
}

// Reset forgets everything published so far.
func (m *MemorySink) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.envelopes = nil
}

// Publisher is the part of a NATS connection the sink needs. Both *nats.Conn and *micro.Client
// satisfy it.
type Publisher interface {
	PublishMsg(msg *nats.Msg) error
}

// NATSSink publishes broadcasts to scene.<id>.broadcast and player messages to
// scene.<id>.player.<uid>. The message name and envelope id travel as headers.
type NATSSink struct {
	pub      Publisher
	subjects micro.Subjects
}

// NewNATSSink creates a sink publishing the messages of a scene through pub.
func NewNATSSink(pub Publisher, subjects micro.Subjects) *NATSSink {
	return &NATSSink{pub: pub, subjects: subjects}
}

func (n *NATSSink) Publish(_ context.Context, env Envelope) error {
	subject := n.subjects.Broadcast()
	if !env.Broadcast {
		subject = n.subjects.Player(env.UID)
	}

	msg := nats.NewMsg(subject)
	msg.Data = env.Payload
	msg.Header.Set(micro.HeaderMessageName, env.Name)
	msg.Header.Set(micro.HeaderMessageID, env.ID.String())

	if err := n.pub.PublishMsg(msg); err != nil {
		return eris.Wrapf(err, "failed to publish to %s", subject)
	}
	return nil
}
