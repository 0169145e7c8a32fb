// Package devicestatus provides the process-wide device-connection signal.
//
// Any component may publish the boolean; every subscriber observes the
// latest value. The only consistency guarantee is last-write-wins — the
// signal is a cosmetic indicator, not safety-relevant state. Subscribers do
// NOT receive a replay of the current value on subscribe: a component reads
// Connected() once at mount time, then listens for subsequent changes.
package devicestatus

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Handler receives the new connection state on every publish.
type Handler func(connected bool)

// Channel is the broadcast channel for the device-connection flag.
// The zero value is not usable; call NewChannel.
type Channel struct {
	mu        sync.Mutex
	connected bool
	subs      map[uint64]Handler
	nextID    uint64
}

// NewChannel creates a channel with the device initially disconnected.
func NewChannel() *Channel {
	return &Channel{subs: make(map[uint64]Handler)}
}

// Connected returns the latest published value.
func (c *Channel) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Publish updates the state and notifies all current subscribers before
// returning. Handlers run on the publisher's goroutine and must not block;
// handlers that need to do real work should hand the value off to their
// own goroutine.
func (c *Channel) Publish(connected bool) {
	c.mu.Lock()
	c.connected = connected
	handlers := make([]Handler, 0, len(c.subs))
	for _, h := range c.subs {
		handlers = append(handlers, h)
	}
	c.mu.Unlock()

	for _, h := range handlers {
		h(connected)
	}

	log.Debug().Bool("connected", connected).Int("subscribers", len(handlers)).Msg("Device status published")
}

// Subscribe registers a handler for subsequent publishes and returns the
// capability to deregister it. A component must call the returned function
// on teardown so a dead handler is never invoked.
func (c *Channel) Subscribe(h Handler) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = h
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}
