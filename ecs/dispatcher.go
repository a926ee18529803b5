package ecs

import (
	"fmt"
	"slices"

	"go.uber.org/zap"
)

// MessageType names a kind of message sent through a Dispatcher.
type MessageType string

// Messages announced by Storage.
const (
	EntityCreated    MessageType = "entityCreated"
	EntityRemoved    MessageType = "entityRemoved"
	ComponentAdded   MessageType = "componentAdded"
	ComponentRemoved MessageType = "componentRemoved"
)

// Message is a synchronously delivered notification. Storage fills Entity
// and, for component messages, Component. Data carries the payload of
// application defined messages.
type Message struct {
	Type      MessageType
	Entity    EntityId
	Component ComponentType
	Data      any
}

// HandlerFunc receives messages. A returned error stops delivery of the
// current message to later handlers and is returned from Send.
type HandlerFunc func(msg Message) error

// Subscription identifies one registration of a handler. Handlers are funcs
// and cannot be compared, so the token is what Unsubscribe removes.
type Subscription struct {
	messageType MessageType
	id          uint64
}

// MessageType returns the message type the subscription listens to.
func (s Subscription) MessageType() MessageType {
	return s.messageType
}

type subscriber struct {
	id      uint64
	handler HandlerFunc
}

// Dispatcher is a synchronous publish/subscribe bus. Handlers run in
// registration order on the goroutine calling Send, and may themselves call
// Send, Subscribe or Unsubscribe. A Dispatcher is not safe for concurrent use.
type Dispatcher struct {
	logger      *zap.Logger
	nextId      uint64
	subscribers map[MessageType][]subscriber
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher(opts ...Option) *Dispatcher {
	o := buildOptions(opts)
	return &Dispatcher{
		logger:      o.logger,
		subscribers: make(map[MessageType][]subscriber),
	}
}

// Subscribe registers handler for every future Send of messageType.
// Subscribing the same handler twice delivers each message to it twice.
func (d *Dispatcher) Subscribe(messageType MessageType, handler HandlerFunc) Subscription {
	if handler == nil {
		panic("ecs: nil message handler")
	}

	d.nextId++
	current := d.subscribers[messageType]

	// Lists are never modified in place: a Send in progress keeps ranging
	// over the slice it started with.
	next := make([]subscriber, len(current), len(current)+1)
	copy(next, current)
	d.subscribers[messageType] = append(next, subscriber{id: d.nextId, handler: handler})

	return Subscription{messageType: messageType, id: d.nextId}
}

// Unsubscribe removes one registration. It reports false, and logs, when the
// subscription is not active.
func (d *Dispatcher) Unsubscribe(sub Subscription) bool {
	current := d.subscribers[sub.messageType]
	idx := slices.IndexFunc(current, func(s subscriber) bool {
		return s.id == sub.id
	})
	if idx < 0 {
		d.logger.Warn("handler was not subscribed",
			zap.String("message", string(sub.messageType)),
			zap.Uint64("subscription", sub.id))
		return false
	}

	if len(current) == 1 {
		delete(d.subscribers, sub.messageType)
		return true
	}

	next := make([]subscriber, 0, len(current)-1)
	next = append(next, current[:idx]...)
	next = append(next, current[idx+1:]...)
	d.subscribers[sub.messageType] = next
	return true
}

// Send delivers msg to every handler subscribed to msg.Type, in registration
// order, before returning. Handlers subscribed or unsubscribed while the
// message is being delivered only observe the change from the next Send on.
func (d *Dispatcher) Send(msg Message) error {
	subscribers := d.subscribers[msg.Type]
	if len(subscribers) == 0 {
		d.logger.Debug("nobody responds to message",
			zap.String("message", string(msg.Type)),
			zap.Uint32("entity", uint32(msg.Entity)))
		return nil
	}

	for _, s := range subscribers {
		if err := s.handler(msg); err != nil {
			return fmt.Errorf("dispatch %s: %w", msg.Type, err)
		}
	}
	return nil
}

// HandlerCount returns the number of active subscriptions for messageType.
func (d *Dispatcher) HandlerCount(messageType MessageType) int {
	return len(d.subscribers[messageType])
}
