package event

import (
	"reflect"
	"sync"
)

// Bus is a double-buffered event bus. Events emitted in tick N are readable
// in tick N+1. SwapBuffers() is called at tick start by the event dispatch system.
type Bus struct {
	mu     sync.Mutex // protects queue creation and handler registration
	queues map[reflect.Type]channel
	order  []channel
}

// channel is the type-erased view of a queue[T].
type channel interface {
	swap()
	dispatch()
	pending() int
}

type queue[T any] struct {
	front    []T
	back     []T
	handlers []func(T)
}

func (q *queue[T]) swap() {
	q.front, q.back = q.back, q.front[:0]
}

func (q *queue[T]) dispatch() {
	for _, ev := range q.front {
		for _, h := range q.handlers {
			h(ev)
		}
	}
}

func (q *queue[T]) pending() int { return len(q.back) }

func NewBus() *Bus {
	return &Bus{
		queues: make(map[reflect.Type]channel),
	}
}

func queueFor[T any](b *Bus) *queue[T] {
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.mu.Lock()
	defer b.mu.Unlock()
	if c, ok := b.queues[t]; ok {
		return c.(*queue[T])
	}
	q := &queue[T]{}
	b.queues[t] = q
	b.order = append(b.order, q)
	return q
}

// Emit queues an event into the back buffer (will be readable next tick).
func Emit[T any](b *Bus, event T) {
	q := queueFor[T](b)
	q.back = append(q.back, event)
}

// Subscribe registers a typed handler for events of type T.
func Subscribe[T any](b *Bus, fn func(T)) {
	q := queueFor[T](b)
	b.mu.Lock()
	q.handlers = append(q.handlers, fn)
	b.mu.Unlock()
}

// SwapBuffers rotates back→front and clears the new back buffer.
// Called once at tick start.
func (b *Bus) SwapBuffers() {
	for _, q := range b.order {
		q.swap()
	}
}

// DispatchAll delivers all front-buffer events to their subscribed handlers.
// Event types are visited in the order the bus first saw them.
func (b *Bus) DispatchAll() {
	for _, q := range b.order {
		q.dispatch()
	}
}

// Pending counts events waiting in the back buffer.
func (b *Bus) Pending() int {
	n := 0
	for _, q := range b.order {
		n += q.pending()
	}
	return n
}
