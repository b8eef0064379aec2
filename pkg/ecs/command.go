package ecs

import (
	"math"
	"sync"

	"github.com/argus-labs/scene-engine/pkg/assert"
	"github.com/rotisserie/eris"
)

// Command is the interface that all commands must implement.
// Commands are requests issued from outside the world and handled by systems.
type Command interface { //nolint:iface // We may add more methods in the future.
	Name() string
}

// commandID is a unique identifier for a command type.
type commandID = uint32

// maxCommandID is the maximum number of command types that can be registered.
const maxCommandID = math.MaxUint32 - 1

// initialCommandBufferCapacity is the starting capacity of command buffers.
const initialCommandBufferCapacity = 128

// commandQueue is an unbounded queue of commands of a single type.
type commandQueue struct {
	pending []Command
	mu      sync.Mutex
}

// commandManager manages command registration, queuing, and the per-tick command buffers.
//
// Thread safety: the queues slice is read-only after all systems are registered. Each queue has its
// own mutex to protect concurrent access between Enqueue (any goroutine) and drain (tick loop).
// The per-tick buffers are only written by drain, before systems run.
type commandManager struct {
	nextID   commandID
	registry map[string]commandID // Command name -> command ID
	queues   []*commandQueue      // Command ID -> queue
	commands [][]Command          // Command ID -> commands of the current tick
}

// newCommandManager creates a new commandManager.
func newCommandManager() commandManager {
	return commandManager{
		nextID:   0,
		registry: make(map[string]commandID),
		queues:   make([]*commandQueue, 0),
		commands: make([][]Command, 0),
	}
}

// register registers a new command type. If the command is already registered, the existing ID
// is returned.
func (c *commandManager) register(name string) (commandID, error) {
	if name == "" {
		return 0, eris.New("command name cannot be empty")
	}

	if id, exists := c.registry[name]; exists {
		return id, nil
	}

	if c.nextID > maxCommandID {
		return 0, eris.New("max number of commands exceeded")
	}

	c.registry[name] = c.nextID
	c.queues = append(c.queues, &commandQueue{})
	c.commands = append(c.commands, make([]Command, 0, initialCommandBufferCapacity))
	c.nextID++
	assert.That(int(c.nextID) == len(c.commands), "command id doesn't match number of commands")

	return c.nextID - 1, nil
}

// enqueue stores a command until the next tick drains it.
func (c *commandManager) enqueue(command Command) error {
	id, exists := c.registry[command.Name()]
	if !exists {
		return eris.Errorf("unregistered command: %s", command.Name())
	}

	q := c.queues[id]
	q.mu.Lock()
	q.pending = append(q.pending, command)
	q.mu.Unlock()
	return nil
}

// drain moves every queued command into the buffers of the current tick.
func (c *commandManager) drain() {
	for id, q := range c.queues {
		c.commands[id] = c.commands[id][:0]

		q.mu.Lock()
		c.commands[id] = append(c.commands[id], q.pending...)
		q.pending = q.pending[:0]
		q.mu.Unlock()
	}
}

// get returns the commands of the current tick for a given command name.
func (c *commandManager) get(name string) ([]Command, error) {
	id, exists := c.registry[name]
	if !exists {
		return nil, eris.Errorf("command %s is not registered", name)
	}
	return c.commands[id], nil
}

// clear clears the command buffers of the current tick.
func (c *commandManager) clear() {
	for id := range c.commands {
		c.commands[id] = c.commands[id][:0]
	}
}
