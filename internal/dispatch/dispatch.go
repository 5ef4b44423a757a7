// Package dispatch serialises inbound server events through a single queue.
package dispatch

import (
	"context"
	"errors"
	"time"
)

// Event is the closed set of inbound events: RenderFrame and AlertRaised.
type Event interface {
	event()
}

// RenderFrame replaces the displayed frame and the cheating indicator.
type RenderFrame struct {
	Image    string
	Cheating bool
}

// AlertRaised announces a new flagged snapshot.
type AlertRaised struct {
	ID        string
	Message   string
	URL       string
	Timestamp time.Time
}

func (RenderFrame) event() {}
func (AlertRaised) event() {}

// Handler receives dispatched events. Calls never overlap.
type Handler interface {
	HandleRenderFrame(RenderFrame)
	HandleAlert(AlertRaised)
}

var ErrQueueFull = errors.New("dispatch queue full")

// Dispatcher delivers events to a Handler one at a time, in submission order.
type Dispatcher struct {
	handler Handler
	queue   chan Event
}

// New creates a Dispatcher with a queue of the given capacity.
func New(handler Handler, capacity int) *Dispatcher {
	if capacity <= 0 {
		capacity = 64
	}
	return &Dispatcher{
		handler: handler,
		queue:   make(chan Event, capacity),
	}
}

// Submit enqueues an event without blocking.
func (d *Dispatcher) Submit(ev Event) error {
	select {
	case d.queue <- ev:
		return nil
	default:
		return ErrQueueFull
	}
}

// Run drains the queue until ctx is done.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-d.queue:
			d.Dispatch(ev)
		}
	}
}

// Dispatch delivers one event synchronously.
func (d *Dispatcher) Dispatch(ev Event) {
	switch e := ev.(type) {
	case RenderFrame:
		d.handler.HandleRenderFrame(e)
	case AlertRaised:
		d.handler.HandleAlert(e)
	}
}

// Pending returns the number of queued events.
func (d *Dispatcher) Pending() int {
	return len(d.queue)
}
